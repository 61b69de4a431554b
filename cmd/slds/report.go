package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

type report struct {
	w table.Writer
}

func newReport(out io.Writer, box string, header ...any) *report {
	w := table.NewWriter()
	w.SetOutputMirror(out)

	style := table.StyleDefault
	switch box {
	case "bold":
		style = table.StyleBold
	case "double":
		style = table.StyleDouble
	case "light":
		style = table.StyleLight
	case "round":
		style = table.StyleRounded
	}
	w.SetStyle(style)
	w.AppendHeader(table.Row(header))

	return &report{w: w}
}

func (r *report) row(vals ...any) {
	row := make(table.Row, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			row[i] = fmt.Sprintf("%.4f", f)
			continue
		}
		row[i] = v
	}
	r.w.AppendRow(row)
}

func (r *report) render() {
	r.w.Render()
}
