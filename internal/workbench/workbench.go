// Package workbench holds the per-user state of one filtering and chat
// session over a loaded publication table.
package workbench

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/filter"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/utils"
)

// Scope selects which rows the chat answers over.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeFiltered Scope = "filtered"
)

// ParseScope accepts "all" or "filtered" (case-insensitive). Empty means all.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll, nil
	case "filtered", "filter", "results":
		return ScopeFiltered, nil
	}
	return "", fmt.Errorf("invalid scope %q (use all or filtered)", s)
}

// KPIs are the two headline numbers shown above the results.
type KPIs struct {
	TotalRows int `json:"total_rows"`
	Matches   int `json:"matches"`
}

// Workbench is safe for concurrent use.
type Workbench struct {
	mu      sync.Mutex
	data    *table.Table
	cols    columns.Resolved
	spec    filter.Spec
	results *table.Table
	scope   Scope
	session *chat.Session
	router  *chat.Router
	logger  *zap.Logger
}

// New creates a workbench over data. The filter starts empty, so every row
// matches, and the chat scope starts at all rows.
func New(data *table.Table, cols columns.Resolved, router *chat.Router, logger *zap.Logger) *Workbench {
	if logger == nil {
		logger = zap.NewNop()
	}
	if router == nil {
		router = chat.NewRouter(chat.Options{}, logger)
	}
	w := &Workbench{
		data:    data,
		cols:    cols,
		scope:   ScopeAll,
		session: chat.NewSession(),
		router:  router,
		logger:  logger,
	}
	w.results = filter.Project(data, cols)
	return w
}

// Columns returns the resolved role columns.
func (w *Workbench) Columns() columns.Resolved { return w.cols }

// Data returns the full loaded table.
func (w *Workbench) Data() *table.Table { return w.data }

// SetFilter replaces the filter and recomputes the results.
func (w *Workbench) SetFilter(spec filter.Spec) KPIs {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spec = spec
	w.results = filter.Project(filter.Apply(w.data, w.cols, spec), w.cols)
	w.logger.Debug("filter applied",
		zap.String("author", spec.Author),
		zap.String("content", spec.Content),
		zap.Strings("fields", spec.Fields),
		zap.Int("matches", w.results.NumRows()),
	)
	return w.kpis()
}

// Filter returns the current filter.
func (w *Workbench) Filter() filter.Spec {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spec
}

// Results returns the filtered and projected table.
func (w *Workbench) Results() *table.Table {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}

// KPIs reports total and matching row counts.
func (w *Workbench) KPIs() KPIs {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.kpis()
}

func (w *Workbench) kpis() KPIs {
	return KPIs{TotalRows: w.data.NumRows(), Matches: w.results.NumRows()}
}

// Scope returns the current chat scope.
func (w *Workbench) Scope() Scope {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scope
}

// SetScope switches the chat between all rows and the filtered rows.
func (w *Workbench) SetScope(s Scope) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s != ScopeFiltered {
		s = ScopeAll
	}
	w.scope = s
}

// ToggleScope flips the chat scope and returns the new value.
func (w *Workbench) ToggleScope() Scope {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scope == ScopeAll {
		w.scope = ScopeFiltered
	} else {
		w.scope = ScopeAll
	}
	return w.scope
}

// Ask records the query, answers it over the current scope and records the
// reply. A clear command leaves the log empty.
func (w *Workbench) Ask(query string) chat.Reply {
	w.mu.Lock()
	defer w.mu.Unlock()
	scope := w.data
	if w.scope == ScopeFiltered {
		scope = w.results
	}
	w.session.AddUser(query)
	rep := w.router.Route(query, scope, w.session)
	if rep.Intent != chat.IntentClear {
		w.session.AddReply(rep)
	}
	return rep
}

// Chat returns the chat log.
func (w *Workbench) Chat() []chat.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Turns()
}

// ClearChat empties the chat log.
func (w *Workbench) ClearChat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Clear()
}

// Export writes the current results as CSV.
func (w *Workbench) Export(out io.Writer) error {
	res := w.Results()
	if err := table.WriteCSV(out, res); err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	return nil
}

// ExportFile writes the current results to path atomically, creating the
// parent directory when needed.
func (w *Workbench) ExportFile(path string) (int, error) {
	res := w.Results()
	b, err := table.CSVBytes(res)
	if err != nil {
		return 0, fmt.Errorf("export results: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return 0, err
	}
	return res.NumRows(), nil
}
