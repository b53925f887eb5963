package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// textTable renders a header row plus data rows as an aligned,
// pipe-delimited table, each column padded to its widest cell and each
// printed line truncated to the terminal's current width when stdout is a
// tty (adapted from
// pkg/util/termio/table.go's FormattedTable.Print, minus the ANSI escape
// support that widget has no use for here).
type textTable struct {
	header []string
	rows   [][]string
	widths []int
}

func newTextTable(header []string) *textTable {
	widths := make([]int, len(header))

	for i, h := range header {
		widths[i] = len(h)
	}

	return &textTable{header: header, widths: widths}
}

func (t *textTable) addRow(cells []string) {
	for i, c := range cells {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}

	t.rows = append(t.rows, cells)
}

// print writes the table to out, truncating each printed line to the
// terminal width reported by golang.org/x/term (falling back to an
// unbounded line when stdout isn't a terminal, e.g. when piped to a file
// or another process).
func (t *textTable) print(out io.Writer) {
	maxWidth := 0

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		maxWidth = width
	}

	printRow := func(cells []string) {
		var line strings.Builder

		for i, w := range t.widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}

			if len(cell) > w {
				cell = cell[:w]
			}

			fmt.Fprintf(&line, " %-*s |", w, cell)
		}

		text := line.String()

		if maxWidth > 0 && len(text) > maxWidth {
			text = text[:maxWidth]
		}

		fmt.Fprintln(out, text)
	}

	printRow(t.header)

	for _, row := range t.rows {
		printRow(row)
	}
}
