package chat

import (
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// multiValueThreshold is the share of non-missing cells that must contain a
// semicolon before a column is treated as a semicolon-delimited list.
const multiValueThreshold = 0.30

// Count is one ranked token.
type Count struct {
	Value string
	Count int
}

// IsMultiValued reports whether more than 30% of the non-missing values
// contain a semicolon.
func IsMultiValued(values []string) bool {
	var nonMissing, withSemi int
	for _, v := range values {
		if v == "" {
			continue
		}
		nonMissing++
		if strings.Contains(v, ";") {
			withSemi++
		}
	}
	if nonMissing == 0 {
		return false
	}
	return float64(withSemi)/float64(nonMissing) > multiValueThreshold
}

// Tokens flattens a column into countable tokens: missing cells are dropped,
// list columns are split on semicolons, every token is trimmed and empty
// tokens are discarded.
func Tokens(values []string) []string {
	split := IsMultiValued(values)
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if !split {
			if tok := strings.TrimSpace(v); tok != "" {
				out = append(out, tok)
			}
			continue
		}
		for _, part := range strings.Split(v, ";") {
			if tok := strings.TrimSpace(part); tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}

// TopCounts returns the n most frequent tokens, highest first. Ties keep
// first-seen order.
func TopCounts(values []string, n int) []Count {
	counts := map[string]int{}
	var order []string
	for _, tok := range Tokens(values) {
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}
	out := make([]Count, len(order))
	for i, tok := range order {
		out[i] = Count{Value: tok, Count: counts[tok]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// countsTable renders counts as a two-column table.
func countsTable(label string, counts []Count) *table.Table {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Value, strconv.Itoa(c.Count)}
	}
	return table.New([]string{label, "Count"}, rows)
}
