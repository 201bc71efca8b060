package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/filter"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

const (
	focusAuthor = iota
	focusKeyword
	focusChat
	focusCount
)

const (
	previewRows = 50
	cellWidth   = 40
)

// Model is the Bubble Tea model for the filter and chat screen.
type Model struct {
	wb         *workbench.Workbench
	inputs     [focusCount]textinput.Model
	focus      int
	fields     []string
	selected   map[string]bool
	results    viewport.Model
	chatLog    viewport.Model
	exportPath string
	status     string
	ready      bool
}

// New creates a model over wb. Every available search field starts selected.
func New(wb *workbench.Workbench, exportPath string) Model {
	placeholders := [focusCount]string{
		"Author (e.g. Smith J)",
		"Keyword in the selected fields",
		"Ask: how many matches, top 10 authors, list titles mentioning ...",
	}
	prompts := [focusCount]string{"Author  > ", "Keyword > ", "Chat    > "}
	var inputs [focusCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = prompts[i]
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 0
		inputs[i] = ti
	}
	inputs[focusAuthor].Focus()

	fields := wb.Columns().FieldOptions()
	selected := make(map[string]bool, len(fields))
	for _, f := range fields {
		selected[f] = true
	}
	m := Model{
		wb:         wb,
		inputs:     inputs,
		fields:     fields,
		selected:   selected,
		results:    viewport.New(0, 0),
		chatLog:    viewport.New(0, 0),
		exportPath: exportPath,
		status:     "Enter applies the filter. Tab switches input. F1-F3 toggle fields, Ctrl+T chat scope, Ctrl+E export.",
	}
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

// SelectedFields lists the toggled-on search fields in display order.
func (m Model) SelectedFields() []string {
	var out []string
	for _, f := range m.fields {
		if m.selected[f] {
			out = append(out, f)
		}
	}
	return out
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		// header, kpis, fields, scope, three inputs, status
		reserved := 8 + 2*fh
		avail := msg.Height - reserved
		if avail < 6 {
			avail = 6
		}
		w := max(20, msg.Width-2)
		m.results.Width, m.chatLog.Width = w, w
		m.results.Height = avail / 2
		m.chatLog.Height = avail - avail/2
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.setFocus((m.focus + 1) % focusCount)
			return m, nil
		case tea.KeyShiftTab:
			m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, nil
		case tea.KeyF1, tea.KeyF2, tea.KeyF3:
			m.toggleField(fieldKeys[msg.Type])
			return m, nil
		case tea.KeyCtrlT:
			m.status = fmt.Sprintf("Chat scope: %s", m.wb.ToggleScope())
			m.refresh()
			return m, nil
		case tea.KeyCtrlE:
			m.export()
			return m, nil
		case tea.KeyPgDown, tea.KeyPgUp:
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.focus == focusChat {
				m.ask()
			} else {
				m.applyFilter()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

var fieldKeys = map[tea.KeyType]int{tea.KeyF1: 0, tea.KeyF2: 1, tea.KeyF3: 2}

// toggleField flips the i-th field option and re-applies the filter.
func (m *Model) toggleField(i int) {
	if i < 0 || i >= len(m.fields) {
		return
	}
	f := m.fields[i]
	m.selected[f] = !m.selected[f]
	m.applyFilter()
}

func (m *Model) applyFilter() {
	spec := filter.Spec{
		Author:  m.inputs[focusAuthor].Value(),
		Content: m.inputs[focusKeyword].Value(),
		Fields:  m.SelectedFields(),
	}
	k := m.wb.SetFilter(spec)
	m.status = fmt.Sprintf("Filter applied: %s of %s rows match.", chat.FormatCount(k.Matches), chat.FormatCount(k.TotalRows))
	m.refresh()
}

func (m *Model) ask() {
	q := strings.TrimSpace(m.inputs[focusChat].Value())
	if q == "" {
		return
	}
	rep := m.wb.Ask(q)
	m.inputs[focusChat].SetValue("")
	m.status = "Chat: " + rep.Intent.String()
	m.refresh()
	m.chatLog.GotoBottom()
}

func (m *Model) export() {
	n, err := m.wb.ExportFile(m.exportPath)
	if err != nil {
		m.status = "Export failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("Exported %s rows to %s", chat.FormatCount(n), m.exportPath)
}

func (m *Model) refresh() {
	m.results.SetContent(renderTable(m.wb.Results(), previewRows))
	m.chatLog.SetContent(renderChat(m.wb.Chat()))
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	k := m.wb.KPIs()
	var b strings.Builder
	b.WriteString(headerStyle.Render("PubSift") + "\n")
	b.WriteString(kpiStyle.Render(fmt.Sprintf("Total rows: %s   Matches: %s", chat.FormatCount(k.TotalRows), chat.FormatCount(k.Matches))) + "\n")
	b.WriteString(m.renderFields() + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Chat scope: %s (Ctrl+T)", m.wb.Scope())) + "\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View() + "\n")
	}
	b.WriteString(boxStyle.Render(m.results.View()) + "\n")
	b.WriteString(boxStyle.Render(m.chatLog.View()) + "\n")
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderFields() string {
	parts := make([]string, len(m.fields))
	for i, f := range m.fields {
		mark := "[ ]"
		if m.selected[f] {
			mark = "[x]"
		}
		parts[i] = fmt.Sprintf("F%d %s %s", i+1, mark, f)
	}
	return "Search in: " + strings.Join(parts, "  ")
}

func renderTable(t *table.Table, maxRows int) string {
	if t.NumRows() == 0 {
		return "No matching rows."
	}
	var buf bytes.Buffer
	if err := table.WriteText(&buf, t, maxRows, cellWidth); err != nil {
		return "render error: " + err.Error()
	}
	if maxRows > 0 && t.NumRows() > maxRows {
		fmt.Fprintf(&buf, "... %s more rows\n", chat.FormatCount(t.NumRows()-maxRows))
	}
	return buf.String()
}

func renderChat(turns []chat.Turn) string {
	if len(turns) == 0 {
		return dimStyle.Render("No messages yet. Type \"help\" in the chat input.")
	}
	var b strings.Builder
	for _, t := range turns {
		switch {
		case t.IsTable():
			b.WriteString(renderTable(t.Table, 0))
		case t.Role == chat.RoleUser:
			b.WriteString(userStyle.Render("you: ") + t.Text + "\n")
		default:
			b.WriteString(botStyle.Render("bot: ") + t.Text + "\n")
		}
	}
	return b.String()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	kpiStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
