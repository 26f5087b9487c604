package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// printTable writes rows under cols followed by a row count.
func printTable(w io.Writer, cols []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(cols)
	table.AppendBulk(rows)
	table.Render()

	suffix := "s"
	if len(rows) == 1 {
		suffix = ""
	}
	fmt.Fprintf(w, "(%d row%s)\n", len(rows), suffix)
}
