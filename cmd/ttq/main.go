package main

import "github.com/curious-machines/typed-tables/internal/cmd"

func main() {
	cmd.Execute()
}
