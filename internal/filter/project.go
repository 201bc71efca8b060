package filter

import (
	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// Project moves the bound role columns (Title, Authors, Abstract, keywords)
// to the front and keeps every other column in its original order. Rows are
// untouched.
func Project(t *table.Table, cols columns.Resolved) *table.Table {
	front := make([]string, 0, 4)
	isFront := map[string]bool{}
	for _, c := range cols.FrontColumns() {
		if t.Has(c) && !isFront[c] {
			front = append(front, c)
			isFront[c] = true
		}
	}
	order := front
	for _, c := range t.Columns() {
		if !isFront[c] {
			order = append(order, c)
		}
	}
	out, err := t.Select(order...)
	if err != nil {
		// every name came from t
		return t
	}
	return out
}
