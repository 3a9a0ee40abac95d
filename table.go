package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/krau/tagpipe/runner"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderRunStats(stats runner.Stats) string {
	rows := make([][]string, 0, len(stats.Folders))
	for _, f := range stats.Folders {
		rows = append(rows, []string{
			f.Folder,
			humanize.Comma(int64(f.Found)),
			humanize.Comma(int64(f.Resumed)),
			humanize.Comma(int64(f.Tagged)),
			humanize.Comma(int64(f.Failed)),
			f.Duration.Round(time.Millisecond).String(),
		})
	}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	out := renderTable([]string{"Folder", "Images", "Resumed", "Tagged", "Failed", "Duration"}, rows, aligns)

	if len(stats.Warnings) > 0 {
		var warnRows [][]string
		for _, rule := range slices.Sorted(maps.Keys(stats.Warnings)) {
			warnRows = append(warnRows, []string{rule, strconv.Itoa(stats.Warnings[rule])})
		}
		out += "\n" + renderTable([]string{"Rule", "Warnings"}, warnRows, []columnAlignment{alignLeft, alignRight})
	}
	return fmt.Sprintf("run %s\n%s", stats.RunID, out)
}
