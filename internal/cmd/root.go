// Package cmd wires the ttq command-line surface: a cobra root command
// plus the "run" subcommand that executes a TTQ program against a data
// directory (SPEC_FULL.md §2.2).
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/curious-machines/typed-tables/internal/ttlog"
)

// Version is set at build time via -ldflags; when it is empty, the module
// version recorded in the binary's build info is printed instead.
var Version string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ttq",
	Short: "A query runner for Typed Tables.",
	Long:  "Executes TTQ programs against a Typed Tables data directory.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("ttq ")

			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}

			fmt.Println()

			return
		}

		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.Flags().Bool("version", false, "report version of this executable")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		ttlog.SetVerbose(GetFlag(cmd, "verbose"))
	}

	rootCmd.AddCommand(runCmd)
}

// GetFlag gets an expected bool flag, or exits if one is missing.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if one is missing.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}
