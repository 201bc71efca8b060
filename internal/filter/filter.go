// Package filter narrows a publication table by author and content keyword
// and reorders the result for display.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// ErrUnknownField is returned for a field name that is not a search option.
var ErrUnknownField = errors.New("unknown search field")

// Spec is the user's current filter input.
type Spec struct {
	// Author is matched after trimming.
	Author string
	// Content is matched as typed; only its activation checks the trimmed form.
	Content string
	// Fields are field options (see columns.Resolved.FieldOptions).
	Fields []string
}

// AuthorActive reports whether the author constraint applies.
func (s Spec) AuthorActive() bool { return strings.TrimSpace(s.Author) != "" }

// ContentActive reports whether the content constraint applies.
func (s Spec) ContentActive() bool { return strings.TrimSpace(s.Content) != "" && len(s.Fields) > 0 }

// Active reports whether any constraint applies.
func (s Spec) Active() bool { return s.AuthorActive() || s.ContentActive() }

// Mask evaluates spec against every row of t.
func Mask(t *table.Table, cols columns.Resolved, spec Spec) []bool {
	n := t.NumRows()
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}

	if spec.AuthorActive() {
		q := strings.ToLower(strings.TrimSpace(spec.Author))
		andColumn(mask, t, cols.Authors, q)
	}

	if spec.ContentActive() {
		q := strings.ToLower(spec.Content)
		hit := make([]bool, n)
		searched := false
		for _, f := range spec.Fields {
			col, ok := cols.ColumnFor(f)
			if !ok {
				continue
			}
			searched = true
			orColumn(hit, t, col, q)
		}
		if searched {
			for i := range mask {
				mask[i] = mask[i] && hit[i]
			}
		}
	}
	return mask
}

// Apply returns the rows of t that satisfy spec, in original order.
func Apply(t *table.Table, cols columns.Resolved, spec Spec) *table.Table {
	if !spec.Active() {
		return t
	}
	return t.Where(Mask(t, cols, spec))
}

// contains is a case-insensitive substring test; q must already be
// lower-cased. Missing cells never match.
func contains(cell, q string) bool {
	if cell == "" {
		return false
	}
	return strings.Contains(strings.ToLower(cell), q)
}

func andColumn(mask []bool, t *table.Table, col, q string) {
	vals, ok := t.Column(col)
	for i := range mask {
		mask[i] = mask[i] && ok && contains(vals[i], q)
	}
}

func orColumn(acc []bool, t *table.Table, col, q string) {
	vals, ok := t.Column(col)
	if !ok {
		return
	}
	for i, v := range vals {
		if !acc[i] && contains(v, q) {
			acc[i] = true
		}
	}
}

// ParseFields validates user-entered field names against the available
// options, case-insensitively, and returns them in canonical spelling.
// An empty input selects every option; a blank entry is an unknown field.
func ParseFields(in []string, cols columns.Resolved) ([]string, error) {
	opts := cols.FieldOptions()
	if len(in) == 0 {
		return opts, nil
	}
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, raw := range in {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: blank field name (available: %s)", ErrUnknownField, strings.Join(opts, ", "))
		}
		var match string
		for _, o := range opts {
			if strings.EqualFold(o, name) || (o == columns.KeywordsField && isKeywordAlias(name)) {
				match = o
				break
			}
		}
		if match == "" {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownField, name, strings.Join(opts, ", "))
		}
		if !seen[match] {
			seen[match] = true
			out = append(out, match)
		}
	}
	return out, nil
}

func isKeywordAlias(name string) bool {
	switch strings.ToLower(name) {
	case "mesh", "keywords", "keyword":
		return true
	}
	return false
}
