package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BCD4"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// styled reports whether stdout is an interactive terminal.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type field struct {
	label string
	value string
	warn  bool
}

// printFields prints aligned "label: value" lines.
func printFields(w io.Writer, pretty bool, fields []field) {
	width := 0
	for _, f := range fields {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	for _, f := range fields {
		label := fmt.Sprintf("%-*s", width+1, f.label+":")
		value := f.value
		if pretty {
			label = labelStyle.Render(label)
			if f.warn {
				value = warnStyle.Render(value)
			} else {
				value = okStyle.Render(value)
			}
		}
		fmt.Fprintf(w, "%s %s\n", label, value)
	}
}

// printTable renders rows as a bordered table on a terminal and as
// tab-aligned columns otherwise.
func printTable(w io.Writer, pretty bool, headers []string, rows [][]string) {
	if pretty {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(labelStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle.Padding(0, 1)
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}
