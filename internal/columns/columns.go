// Package columns binds the semantic roles of a publication table (authors,
// title, abstract, keyword terms) to concrete column names.
package columns

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// Expected column names of a Dimensions publication export.
const (
	Authors  = "Authors"
	Title    = "Title"
	Abstract = "Abstract"
)

// KeywordsField is the user-facing name of the optional keyword role,
// whatever column it is bound to.
const KeywordsField = "MeSH terms"

// previewLimit caps how many available names a MissingColumnsError shows.
const previewLimit = 20

// Required lists the columns that must be present.
var Required = []string{Authors, Title, Abstract}

// KeywordCandidates is searched in order; the first present column wins.
var KeywordCandidates = []string{"MeSH terms", "MeSH_terms", "Mesh Terms", "Keywords", "Key Terms"}

// MissingColumnsError names every absent required column plus a preview of
// what the table does have.
type MissingColumnsError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing expected column(s): %s", strings.Join(e.Missing, ", "))
}

// Preview renders the available-columns hint shown next to the error.
func (e *MissingColumnsError) Preview() string {
	return fmt.Sprintf("Available columns include: %s...", strings.Join(e.Available, ", "))
}

// Resolved is the binding of roles to column names. Keywords is empty when
// no candidate matched.
type Resolved struct {
	Authors  string
	Title    string
	Abstract string
	Keywords string
}

// HasKeywords reports whether the optional keyword role is bound.
func (r Resolved) HasKeywords() bool { return r.Keywords != "" }

// Resolve checks required names exactly and binds the optional role to the
// first candidate present. An unbound optional role is not an error.
func Resolve(t *table.Table, required []string, optional []string) (map[string]string, string, error) {
	var missing []string
	bound := make(map[string]string, len(required))
	for _, name := range required {
		if !t.Has(name) {
			missing = append(missing, name)
			continue
		}
		bound[name] = name
	}
	if len(missing) > 0 {
		avail := t.Columns()
		if len(avail) > previewLimit {
			avail = avail[:previewLimit]
		}
		return nil, "", &MissingColumnsError{Missing: missing, Available: avail}
	}
	return bound, FirstPresent(t, optional), nil
}

// FirstPresent returns the first candidate that is a column of t, or "".
func FirstPresent(t *table.Table, candidates []string) string {
	for _, c := range candidates {
		if t.Has(c) {
			return c
		}
	}
	return ""
}

// ResolvePublications applies Resolve with the publication defaults.
func ResolvePublications(t *table.Table) (Resolved, error) {
	bound, kw, err := Resolve(t, Required, KeywordCandidates)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		Authors:  bound[Authors],
		Title:    bound[Title],
		Abstract: bound[Abstract],
		Keywords: kw,
	}, nil
}

// FieldOptions lists the content fields a user may search.
func (r Resolved) FieldOptions() []string {
	opts := []string{Title, Abstract}
	if r.HasKeywords() {
		opts = append(opts, KeywordsField)
	}
	return opts
}

// ColumnFor maps a field option to its bound column.
func (r Resolved) ColumnFor(field string) (string, bool) {
	switch field {
	case Title:
		return r.Title, r.Title != ""
	case Abstract:
		return r.Abstract, r.Abstract != ""
	case KeywordsField:
		return r.Keywords, r.Keywords != ""
	}
	return "", false
}

// FrontColumns lists the bound role columns in presentation order.
func (r Resolved) FrontColumns() []string {
	out := make([]string, 0, 4)
	for _, c := range []string{r.Title, r.Authors, r.Abstract, r.Keywords} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
