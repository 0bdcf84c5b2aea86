package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"csvreduce/internal/reduce"
)

// renderStats writes a two-column summary of a finished run.
func renderStats(w io.Writer, input string, st reduce.Stats, d time.Duration) error {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
		Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
	})))
	table.Header([]string{"METRIC", "VALUE"})

	rows := [][]string{
		{"input", input},
		{"k", strconv.Itoa(st.K)},
		{"lines", strconv.Itoa(st.Lines)},
		{"rows", strconv.Itoa(st.Rows)},
		{"selected", strconv.Itoa(st.Selected)},
		{"evicted", strconv.Itoa(st.Evicted)},
		{"discarded", strconv.Itoa(st.Discarded)},
		{"totals", st.Totals},
		{"checksum", fmt.Sprintf("%016x", st.Checksum)},
		{"elapsed", d.Truncate(time.Millisecond).String()},
	}
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}
