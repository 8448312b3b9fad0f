package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mind-engage/motorskill/internal/norms"
)

var bandColors = map[string]*color.Color{
	"very advanced":         color.New(color.FgGreen, color.Bold),
	"advanced":              color.New(color.FgGreen),
	"normal":                color.New(color.FgCyan),
	"needs improvement":     color.New(color.FgYellow),
	"at risk":               color.New(color.FgRed, color.Bold),
	"delayed":               color.New(color.FgRed),
	norms.InsufficientLabel: color.New(color.Faint),
}

// WriteTable prints the report as a bordered table. Band labels are coloured
// unless color.NoColor is set.
func WriteTable(w io.Writer, rep norms.Report) {
	fmt.Fprintf(w, "%s  %s  (peers: %d, scheme: %s)\n", rep.Target.FullName(), rep.Target.Date(), rep.PeerN, rep.Scheme)

	table := tablewriter.NewWriter(w)
	headers := make([]string, len(tableCols))
	for i, c := range tableCols {
		headers[i] = c.title
	}
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	for _, row := range rep.Rows {
		cells := Cells(row)
		if c, ok := bandColors[row.Band]; ok {
			cells[len(cells)-1] = c.Sprint(row.Band)
		}
		table.Append(cells)
	}
	table.Render()
}
