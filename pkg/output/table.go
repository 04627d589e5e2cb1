// pkg/output/table.go

package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// StatusTable renders rows with a bordered lipgloss table. The column
// named "STATUS" is coloured by value.
func (p *Printer) StatusTable(headers []string, rows [][]string) {
	statusCol := -1
	for i, h := range headers {
		if h == "STATUS" {
			statusCol = i
		}
	}

	headerStyle := p.outR.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := p.outR.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.outR.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				return cellStyle.Foreground(StatusColor(rows[row][col]))
			}
			return cellStyle
		})

	fmt.Fprintln(p.Out, t.String())
}

// StatusColor maps live container states onto colours.
func StatusColor(status string) lipgloss.Color {
	switch strings.ToLower(status) {
	case "running":
		return colorSuccess
	case "stopped":
		return colorWarn
	case "not-found":
		return colorError
	default:
		return colorMuted
	}
}

// KeyValues renders an aligned two-column listing, sorted by key unless
// order is given.
func (p *Printer) KeyValues(data map[string]string, order ...string) error {
	keys := order
	if len(keys) == 0 {
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	return writeKeyValues(p.Out, data, keys)
}

func writeKeyValues(w io.Writer, data map[string]string, keys []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		v, ok := data[k]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", k, v)
	}
	return tw.Flush()
}
