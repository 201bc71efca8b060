package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

func newModel(t *testing.T) (Model, *workbench.Workbench, string) {
	t.Helper()
	data := table.New(
		[]string{"Title", "Authors", "Abstract", "Keywords"},
		[][]string{
			{"Cancer in mice", "Smith J; Lee K", "tumour growth", "oncology"},
			{"Sleep and memory", "Lee K", "sleep study", "neuro"},
			{"Heart failure", "Park S", "cardiac outcomes", "cancer risk"},
		},
	)
	cols, err := columns.ResolvePublications(data)
	require.NoError(t, err)
	wb := workbench.New(data, cols, nil, nil)
	out := filepath.Join(t.TempDir(), "export.csv")
	m := New(wb, out)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), wb, out
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestAuthorFilterOnEnter(t *testing.T) {
	m, wb, _ := newModel(t)
	m = send(m, typed("lee"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, wb.KPIs().Matches)
	assert.Contains(t, m.Status(), "2 of 3")
	assert.Contains(t, m.View(), "Matches: 2")
}

func TestFieldTogglesNarrowContentSearch(t *testing.T) {
	m, wb, _ := newModel(t)
	assert.Equal(t, []string{"Title", "Abstract", "MeSH terms"}, m.SelectedFields())

	m = send(m, tea.KeyMsg{Type: tea.KeyTab}, typed("cancer"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, wb.KPIs().Matches)

	// F3 drops the keyword field, leaving only the title hit.
	m = send(m, tea.KeyMsg{Type: tea.KeyF3})
	assert.Equal(t, []string{"Title", "Abstract"}, m.SelectedFields())
	assert.Equal(t, 1, wb.KPIs().Matches)
	assert.Contains(t, m.View(), "F3 [ ] MeSH terms")
}

func TestScopeToggleAndChat(t *testing.T) {
	m, wb, _ := newModel(t)
	m = send(m, typed("park"), tea.KeyMsg{Type: tea.KeyEnter})
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, workbench.ScopeFiltered, wb.Scope())
	assert.Contains(t, m.Status(), "filtered")

	m = send(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, typed("how many rows"), tea.KeyMsg{Type: tea.KeyEnter})
	turns := wb.Chat()
	require.Len(t, turns, 2)
	assert.Contains(t, turns[1].Text, "1 rows")
	assert.Equal(t, "", m.inputs[focusChat].Value())
	assert.Contains(t, m.View(), "how many rows")

	m = send(m, typed("clear chat"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, wb.Chat())
}

func TestExportKeyWritesFile(t *testing.T) {
	m, _, out := newModel(t)
	m = send(m, typed("smith"), tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Contains(t, m.Status(), "Exported 1 rows")
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Cancer in mice")
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewBeforeSize(t *testing.T) {
	m, _, _ := newModel(t)
	m.ready = false
	assert.Equal(t, "Loading...", m.View())
}
