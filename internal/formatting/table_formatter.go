package formatting

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	pkgstrings "launchkit/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatConfig formats configuration keys grouped by service
func (f *TableFormatter) FormatConfig(entries []ConfigEntry) string {
	if len(entries) == 0 {
		return f.formatEmptyMessage("📋", "No configuration keys registered")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("SERVICE"), f.header("KEY"), f.header("VALUE"), f.header("DEFAULT"), f.header("ARGUMENT")})
	for _, e := range entries {
		value := truncate(e.Value)
		if e.Value != e.Default {
			value = f.color(text.FgHiYellow, value)
		}
		argument := ""
		if e.Argument != "" {
			argument = "-" + e.Argument
		}
		t.AppendRow(table.Row{e.Service, f.color(text.FgHiCyan, e.Key), value, truncate(e.Default), argument})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	return t.Render() + "\n"
}

// FormatCommands formats registered arguments and commands
func (f *TableFormatter) FormatCommands(entries []CommandEntry) string {
	if len(entries) == 0 {
		return f.formatEmptyMessage("📋", "No commands registered")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("NAME"), f.header("KIND"), f.header("STARTUP"), f.header("DESCRIPTION")})
	for _, e := range entries {
		startup := "no"
		if e.Startup {
			startup = f.color(text.FgGreen, "yes")
		}
		t.AppendRow(table.Row{f.color(text.FgHiCyan, e.Name), e.Kind, startup, e.Description})
	}
	return t.Render() + "\n"
}

// FormatMetrics formats gathered metric samples
func (f *TableFormatter) FormatMetrics(entries []MetricEntry) string {
	if len(entries) == 0 {
		return f.formatEmptyMessage("📊", "No metrics recorded yet")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("METRIC"), f.header("LABELS"), f.header("VALUE")})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Name, e.Labels, strconv.FormatFloat(e.Value, 'f', -1, 64)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, Align: text.AlignRight},
	})
	t.AppendFooter(table.Row{"", f.header("SERIES"), len(entries)})
	return t.Render() + "\n"
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.color(text.FgHiCyan, s)
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", f.color(text.FgYellow, icon), f.color(text.FgYellow, message))
}

func truncate(s string) string {
	return pkgstrings.Truncate(s, pkgstrings.DefaultCellWidth)
}
