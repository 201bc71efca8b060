// Package profile summarizes the columns of a loaded publication table:
// fill rate, distinct values and the most frequent entries.
package profile

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/utils"
)

// Options tunes the report.
type Options struct {
	// TopN values are listed for list and categorical columns. Default 5.
	TopN int
	// Examples are shown for free-text columns. Default 2.
	Examples int
	// ExampleWidth truncates each example. Default 60.
	ExampleWidth int
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{TopN: 5, Examples: 2, ExampleWidth: 60}
}

// Report is the profile of one table.
type Report struct {
	Name string
	Rows int
	Cols []ColumnSummary
}

// ColumnSummary captures per-column statistics.
type ColumnSummary struct {
	Name    string
	Kind    string // list|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// TopValues counts tokens; list columns are split on semicolons first.
	TopValues []chat.Count
	Examples  []string
}

// Build profiles t.
func Build(name string, t *table.Table, opt Options) *Report {
	def := DefaultOptions()
	if opt.TopN <= 0 {
		opt.TopN = def.TopN
	}
	if opt.Examples <= 0 {
		opt.Examples = def.Examples
	}
	if opt.ExampleWidth <= 0 {
		opt.ExampleWidth = def.ExampleWidth
	}
	r := &Report{Name: name, Rows: t.NumRows()}
	for _, col := range t.Columns() {
		vals, _ := t.Column(col)
		r.Cols = append(r.Cols, summarize(col, vals, opt))
	}
	return r
}

func summarize(name string, vals []string, opt Options) ColumnSummary {
	cs := ColumnSummary{Name: name}
	distinct := map[string]struct{}{}
	for _, v := range vals {
		if v == "" {
			cs.Missing++
			continue
		}
		cs.NonNull++
		distinct[v] = struct{}{}
	}
	cs.Unique = len(distinct)
	switch {
	case cs.NonNull == 0:
		cs.Kind = "empty"
	case chat.IsMultiValued(vals):
		cs.Kind = "list"
		cs.TopValues = chat.TopCounts(vals, opt.TopN)
	case cs.Unique*2 <= cs.NonNull:
		cs.Kind = "categorical"
		cs.TopValues = chat.TopCounts(vals, opt.TopN)
	default:
		cs.Kind = "text"
		for _, v := range vals {
			if v == "" {
				continue
			}
			cs.Examples = append(cs.Examples, utils.Truncate(oneLine(v), opt.ExampleWidth))
			if len(cs.Examples) == opt.Examples {
				break
			}
		}
	}
	return cs
}

// Markdown renders the report as a compact plain-text summary.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %s\n", chat.FormatCount(r.Rows)))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", c.Name, c.Kind, c.NonNull, missPct, c.Unique))
		switch {
		case len(c.TopValues) > 0:
			b.WriteString(" top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", oneLine(kv.Value), kv.Count))
			}
		case len(c.Examples) > 0:
			b.WriteString(" e.g. ")
			b.WriteString(strings.Join(c.Examples, " | "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}
