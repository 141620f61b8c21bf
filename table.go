package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const titleWidth = 100

// renderTable writes rows as space-aligned columns. Widths are measured
// in terminal cells so CJK titles line up.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if width := runewidth.StringWidth(row[i]); width > widths[i] {
				widths[i] = width
			}
		}
	}

	writeRow := func(cells []string) {
		var sb strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		io.WriteString(w, strings.TrimRight(sb.String(), " ")+"\n")
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}

// truncateTitle shortens a title to the display width used in samples
func truncateTitle(title string) string {
	return runewidth.Truncate(strings.TrimSpace(title), titleWidth, "...")
}
