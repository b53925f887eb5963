package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/curious-machines/typed-tables/internal/instance"
	"github.com/curious-machines/typed-tables/internal/query"
	"github.com/curious-machines/typed-tables/internal/querylang"
	"github.com/curious-machines/typed-tables/internal/ttlog"
)

// runCmd implements SPEC_FULL.md §2.2: "ttq run [DIR] [-f FILE] [-v]", a
// non-interactive runner that executes a TTQ program against a data
// directory and prints every "from" statement's result as a table.
var runCmd = &cobra.Command{
	Use:   "run [DIR]",
	Short: "Run a TTQ program against a data directory.",
	Long:  "Executes the statements of a TTQ program (read from -f, or stdin if omitted) against DIR, printing each query's rows as a table.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		file := GetString(cmd, "file")

		source, err := readProgram(file)
		if err != nil {
			fail(err)
		}

		if err := run(dir, source, os.Stdout); err != nil {
			fail(err)
		}
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "TTQ program file to execute (defaults to stdin)")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func readProgram(file string) (string, error) {
	if file == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		return string(raw), nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}

	return string(raw), nil
}

// run parses source as a TTQ program and executes it against dir,
// opening dir implicitly before the first statement so that a program
// beginning with a "from"/"create" rather than an explicit "use" still
// has a bound schema.
func run(dir, source string, out io.Writer) error {
	stmts, err := querylang.ParseProgram(source)
	if err != nil {
		return err
	}

	exec := query.New()
	defer func() {
		if cerr := exec.Close(); cerr != nil {
			ttlog.Log.WithError(cerr).Warn("closing schema")
		}
	}()

	if _, err := exec.Execute(&querylang.UseStmt{Path: dir}); err != nil {
		return err
	}

	for _, stmt := range stmts {
		result, err := exec.Execute(stmt)
		if err != nil {
			return err
		}

		printResult(out, result)
	}

	return nil
}

// printResult renders a statement's result to out. Only QueryResult and
// ExecuteResult produce visible output; the remaining kinds are silent
// on success, mirroring a SQL shell that only echoes SELECT output.
func printResult(out io.Writer, result query.Result) {
	switch r := result.(type) {
	case *query.QueryResult:
		printQueryResult(out, r)
	case *query.ExecuteResult:
		for _, nested := range r.Results {
			printResult(out, nested)
		}
	case *query.CreateResult:
		ttlog.Log.WithField("ref", r.Ref.String()).Debug("created instance")
	case *query.UpdateResult:
		ttlog.Log.WithField("count", r.Count).Debug("updated instances")
	}
}

func printQueryResult(out io.Writer, r *query.QueryResult) {
	tbl := newTextTable(r.Columns)

	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}

		tbl.addRow(cells)
	}

	tbl.print(out)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case instance.Ref:
		return x.String()
	case instance.EnumValue:
		return x.Variant
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
