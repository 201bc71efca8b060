package filter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/filter"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

func publications(t *testing.T) (*table.Table, columns.Resolved) {
	t.Helper()
	tb := table.New(
		[]string{"Year", "Abstract", "Authors", "Title", "MeSH terms"},
		[][]string{
			{"2021", "A trial of mindfulness in nurses", "Sohn, J; Park, H", "Stress at work", "Mindfulness; Nurses"},
			{"2020", "Screening outcomes", "Lee, K", "Mindfulness for clinicians", ""},
			{"2019", "Tumour markers", "", "Cancer screening", "Neoplasms"},
			{"2018", "Cohort follow-up", "SOHNSEN, A", "Diet and sleep", "Sleep"},
		},
	)
	cols, err := columns.ResolvePublications(tb)
	require.NoError(t, err)
	return tb, cols
}

func titles(tb *table.Table) []string {
	v, _ := tb.Column("Title")
	return v
}

func TestAuthorFilterTrimsAndIgnoresCase(t *testing.T) {
	tb, cols := publications(t)
	out := filter.Apply(tb, cols, filter.Spec{Author: "  sohn "})
	assert.Equal(t, []string{"Stress at work", "Diet and sleep"}, titles(out))
	for i := 0; i < out.NumRows(); i++ {
		assert.Contains(t, strings.ToLower(out.Cell(i, "Authors")), "sohn")
	}
}

func TestMissingAuthorNeverMatches(t *testing.T) {
	tb, cols := publications(t)
	out := filter.Apply(tb, cols, filter.Spec{Author: "nan"})
	assert.Equal(t, 0, out.NumRows())

	out = filter.Apply(tb, cols, filter.Spec{Author: "   "})
	assert.Equal(t, tb.NumRows(), out.NumRows())
}

func TestContentFilterIsOrAcrossFields(t *testing.T) {
	tb, cols := publications(t)
	spec := filter.Spec{Content: "MINDFULNESS", Fields: []string{columns.Title, columns.Abstract}}
	out := filter.Apply(tb, cols, spec)
	// Row 0 matches only in Abstract, row 1 only in Title.
	assert.Equal(t, []string{"Stress at work", "Mindfulness for clinicians"}, titles(out))

	spec.Fields = []string{columns.Title}
	assert.Equal(t, []string{"Mindfulness for clinicians"}, titles(filter.Apply(tb, cols, spec)))

	spec.Fields = []string{columns.KeywordsField}
	assert.Equal(t, []string{"Stress at work"}, titles(filter.Apply(tb, cols, spec)))
}

func TestContentQueryIsNotTrimmed(t *testing.T) {
	tb, cols := publications(t)
	spec := filter.Spec{Content: " sleep", Fields: []string{columns.Title}}
	assert.Equal(t, []string{"Diet and sleep"}, titles(filter.Apply(tb, cols, spec)))

	spec.Content = "sleep "
	assert.Empty(t, titles(filter.Apply(tb, cols, spec)))
}

func TestNoFieldsOrBlankContentPassesThrough(t *testing.T) {
	tb, cols := publications(t)
	assert.Equal(t, tb.NumRows(), filter.Apply(tb, cols, filter.Spec{Content: "cancer"}).NumRows())
	assert.Equal(t, tb.NumRows(), filter.Apply(tb, cols, filter.Spec{Content: "  ", Fields: cols.FieldOptions()}).NumRows())
}

func TestAuthorAndContentCombine(t *testing.T) {
	tb, cols := publications(t)
	spec := filter.Spec{Author: "sohn", Content: "sleep", Fields: cols.FieldOptions()}
	assert.Equal(t, []string{"Diet and sleep"}, titles(filter.Apply(tb, cols, spec)))
}

func TestApplyIsIdempotent(t *testing.T) {
	tb, cols := publications(t)
	spec := filter.Spec{Author: "s", Content: "a", Fields: cols.FieldOptions()}
	once := filter.Apply(tb, cols, spec)
	twice := filter.Apply(once, cols, spec)
	assert.Equal(t, titles(once), titles(twice))
	assert.LessOrEqual(t, once.NumRows(), tb.NumRows())
}

func TestProjectPutsRolesFirst(t *testing.T) {
	tb, cols := publications(t)
	out := filter.Project(tb, cols)
	assert.Equal(t, []string{"Title", "Authors", "Abstract", "MeSH terms", "Year"}, out.Columns())
	require.Equal(t, tb.NumRows(), out.NumRows())
	assert.Equal(t, "2021", out.Cell(0, "Year"))
	assert.Equal(t, tb.Cell(2, "Title"), out.Cell(2, "Title"))

	noKw := table.New([]string{"X", "Abstract", "Title", "Authors"}, [][]string{{"x", "a", "t", "au"}})
	c2, err := columns.ResolvePublications(noKw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Authors", "Abstract", "X"}, filter.Project(noKw, c2).Columns())
}

func TestParseFields(t *testing.T) {
	_, cols := publications(t)
	got, err := filter.ParseFields([]string{"title", " mesh ", "Title"}, cols)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "MeSH terms"}, got)

	all, err := filter.ParseFields(nil, cols)
	require.NoError(t, err)
	assert.Equal(t, cols.FieldOptions(), all)

	_, err = filter.ParseFields([]string{"Journal"}, cols)
	assert.ErrorIs(t, err, filter.ErrUnknownField)

	_, err = filter.ParseFields([]string{"  "}, cols)
	assert.ErrorIs(t, err, filter.ErrUnknownField)
	_, err = filter.ParseFields([]string{"Title", ""}, cols)
	assert.ErrorIs(t, err, filter.ErrUnknownField)
}
