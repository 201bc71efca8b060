// Package chat answers a fixed set of questions about a publication table.
// Queries are classified by an ordered list of keyword rules; the first rule
// that matches decides the reply.
package chat

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// Canned replies.
const (
	ClearedText = "Chat cleared."

	HelpText = `I can answer questions about the rows currently in scope:
- "how many rows" / "how many matches"
- "what columns are available"
- "summary"
- "top 10 authors"
- "top 5 institutions" (needs an Institution/Affiliation/Organization column)
- "list titles" or "list titles mentioning cancer"
- "clear chat" to start over`

	FallbackText = `Sorry, I didn't understand that. Try one of:
- "how many matches"
- "top 10 authors"
- "top 5 institutions"
- "list titles mentioning <word>"
- "summary"
- "help"`
)

// institutionAliases are matched case-insensitively against whole column names.
var institutionAliases = map[string]bool{
	"institution":   true,
	"institutions":  true,
	"affiliation":   true,
	"affiliations":  true,
	"organization":  true,
	"organizations": true,
}

var clearCommands = map[string]bool{"clear": true, "clear chat": true, "reset": true}

// Reply is the router's answer. Table is nil for text-only replies.
type Reply struct {
	Intent Intent
	Text   string
	Table  *table.Table
}

// Options tunes router limits.
type Options struct {
	// TitleLimit caps ListTitles output. Default 200.
	TitleLimit int
	// DefaultTopN applies when a top-N query names no number. Default 10.
	DefaultTopN int
}

type rule struct {
	intent Intent
	match  func(q string) bool
	handle func(r *Router, q string, scope *table.Table, s *Session) Reply
}

// Router classifies queries and computes replies.
type Router struct {
	opt    Options
	rules  []rule
	logger *zap.Logger
	p      *message.Printer
}

// NewRouter returns a router with the standard rule cascade.
func NewRouter(opt Options, logger *zap.Logger) *Router {
	if opt.TitleLimit <= 0 {
		opt.TitleLimit = 200
	}
	if opt.DefaultTopN <= 0 {
		opt.DefaultTopN = defaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		opt:    opt,
		rules:  defaultRules(),
		logger: logger,
		p:      message.NewPrinter(language.English),
	}
}

// Order matters: several rules can match the same query.
func defaultRules() []rule {
	return []rule{
		{IntentClear, func(q string) bool { return clearCommands[q] }, (*Router).clear},
		{IntentHelp, func(q string) bool {
			return containsAny(q, "help", "what can you do", "commands", "options")
		}, (*Router).help},
		{IntentRowCount, func(q string) bool {
			return strings.Contains(q, "how many") && containsAny(q, "row", "match")
		}, (*Router).rowCount},
		{IntentColumnList, func(q string) bool {
			return strings.Contains(q, "column") && containsAny(q, "what", "list", "available")
		}, (*Router).columnList},
		{IntentSummary, func(q string) bool { return strings.Contains(q, "summary") }, (*Router).summary},
		{IntentTopAuthors, func(q string) bool {
			return strings.Contains(q, "top") && strings.Contains(q, "author")
		}, (*Router).topAuthors},
		{IntentTopInstitutions, func(q string) bool {
			return strings.Contains(q, "top") && containsAny(q, "institution", "affiliation", "organization")
		}, (*Router).topInstitutions},
		{IntentListTitles, func(q string) bool {
			return strings.Contains(q, "list") && strings.Contains(q, "title")
		}, (*Router).listTitles},
	}
}

// Classify returns the intent the query would be routed to.
func (r *Router) Classify(query string) Intent {
	q := normalize(query)
	for _, ru := range r.rules {
		if ru.match(q) {
			return ru.intent
		}
	}
	return IntentUnrecognized
}

// Route answers query over scope. The Clear intent empties session; no other
// intent touches it. Route never fails: unknown input yields FallbackText.
func (r *Router) Route(query string, scope *table.Table, session *Session) Reply {
	if scope == nil {
		scope = table.Empty()
	}
	q := normalize(query)
	for _, ru := range r.rules {
		if !ru.match(q) {
			continue
		}
		rep := ru.handle(r, q, scope, session)
		rep.Intent = ru.intent
		r.logger.Debug("chat routed",
			zap.String("intent", ru.intent.String()),
			zap.Int("scope_rows", scope.NumRows()),
			zap.Bool("table", rep.Table != nil),
		)
		return rep
	}
	r.logger.Debug("chat fallback", zap.String("query", q))
	return Reply{Intent: IntentUnrecognized, Text: FallbackText}
}

func normalize(query string) string { return strings.ToLower(strings.TrimSpace(query)) }

func (r *Router) clear(_ string, _ *table.Table, s *Session) Reply {
	if s != nil {
		s.Clear()
	}
	return Reply{Text: ClearedText}
}

func (r *Router) help(string, *table.Table, *Session) Reply {
	return Reply{Text: HelpText}
}

func (r *Router) rowCount(_ string, scope *table.Table, _ *Session) Reply {
	return Reply{Text: r.p.Sprintf("There are %d rows in the current scope.", scope.NumRows())}
}

func (r *Router) columnList(_ string, scope *table.Table, _ *Session) Reply {
	cols := scope.Columns()
	if len(cols) == 0 {
		return Reply{Text: "No columns are loaded."}
	}
	return Reply{Text: "Columns: " + strings.Join(cols, ", ")}
}

func (r *Router) summary(_ string, scope *table.Table, _ *Session) Reply {
	cols := scope.Columns()
	first := cols
	if len(first) > 10 {
		first = first[:10]
	}
	text := r.p.Sprintf("Rows: %d | Columns: %d", scope.NumRows(), len(cols))
	if len(first) > 0 {
		text += "\nFirst columns: " + strings.Join(first, ", ")
	}
	return Reply{Text: text}
}

func (r *Router) topAuthors(q string, scope *table.Table, _ *Session) Reply {
	vals, ok := scope.Column(columns.Authors)
	if !ok {
		return Reply{Text: fmt.Sprintf("Sorry, there is no %q column in this dataset.", columns.Authors)}
	}
	n := ExtractTopN(q, r.opt.DefaultTopN)
	counts := TopCounts(vals, n)
	if len(counts) == 0 {
		return Reply{Text: "There are no author values in the current scope."}
	}
	return Reply{
		Text:  r.p.Sprintf("Top %d authors by number of publications:", len(counts)),
		Table: countsTable("Author", counts),
	}
}

func (r *Router) topInstitutions(q string, scope *table.Table, _ *Session) Reply {
	col := institutionColumn(scope)
	if col == "" {
		return Reply{Text: "Sorry, I couldn't find an institution, affiliation or organization column in this dataset."}
	}
	vals, _ := scope.Column(col)
	n := ExtractTopN(q, r.opt.DefaultTopN)
	counts := TopCounts(vals, n)
	if len(counts) == 0 {
		return Reply{Text: fmt.Sprintf("There are no %s values in the current scope.", col)}
	}
	return Reply{
		Text:  r.p.Sprintf("Top %d institutions (from %q):", len(counts), col),
		Table: countsTable("Institution", counts),
	}
}

func institutionColumn(t *table.Table) string {
	for _, c := range t.Columns() {
		if institutionAliases[strings.ToLower(strings.TrimSpace(c))] {
			return c
		}
	}
	return ""
}

func (r *Router) listTitles(q string, scope *table.Table, _ *Session) Reply {
	titles, ok := scope.Column(columns.Title)
	if !ok {
		return Reply{Text: fmt.Sprintf("Sorry, there is no %q column in this dataset.", columns.Title)}
	}
	phrase := ExtractMentioning(q)
	var picked []string
	if phrase == "" {
		picked = titles
	} else {
		needle := strings.ToLower(phrase)
		for _, t := range titles {
			if t != "" && strings.Contains(strings.ToLower(t), needle) {
				picked = append(picked, t)
			}
		}
	}
	total := len(picked)
	if total > r.opt.TitleLimit {
		picked = picked[:r.opt.TitleLimit]
	}
	rows := make([][]string, len(picked))
	for i, t := range picked {
		rows[i] = []string{t}
	}

	var text string
	switch {
	case phrase != "" && total > len(picked):
		text = r.p.Sprintf("Showing %d of %d titles mentioning %q.", len(picked), total, phrase)
	case phrase != "":
		text = r.p.Sprintf("Showing %d titles mentioning %q.", len(picked), phrase)
	case total > len(picked):
		text = r.p.Sprintf("Showing %d of %d titles.", len(picked), total)
	default:
		text = r.p.Sprintf("Showing %d titles.", len(picked))
	}
	return Reply{Text: text, Table: table.New([]string{columns.Title}, rows)}
}

// FormatCount renders n with thousands separators ("1,234").
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
