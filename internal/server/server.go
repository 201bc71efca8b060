// Package server exposes workbench sessions over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/filter"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

const defaultResultLimit = 100

// Options configures New.
type Options struct {
	Data    *table.Table
	Columns columns.Resolved
	// Reload, when set, is called for every new session. A successful result
	// replaces Data and Columns for that and later sessions; on error the
	// previous dataset is kept.
	Reload         func() (*table.Table, columns.Resolved, error)
	Router         *chat.Router
	SessionTTL     time.Duration
	DefaultScope   workbench.Scope
	ExportFilename string
	Logger         *zap.Logger
}

type Server struct {
	app      *fiber.App
	opt      Options
	sessions *sessionStore
	logger   *zap.Logger

	mu   sync.RWMutex
	data *table.Table
	cols columns.Resolved
}

func New(opt Options) *Server {
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Data == nil {
		opt.Data = table.Empty()
	}
	if opt.Router == nil {
		opt.Router = chat.NewRouter(chat.Options{}, opt.Logger)
	}
	if opt.ExportFilename == "" {
		opt.ExportFilename = "dimensions_filtered_results.csv"
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             1 << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(opt.Logger),
	})
	app.Use(recover.New())
	app.Use(requestLogger(opt.Logger))

	s := &Server{
		app:      app,
		opt:      opt,
		sessions: newSessionStore(opt.SessionTTL),
		logger:   opt.Logger,
		data:     opt.Data,
		cols:     opt.Columns,
	}
	s.RegisterRoutes(app.Group("/api/v1"))
	return s
}

// App returns the fiber application, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) RegisterRoutes(r fiber.Router) {
	r.Get("/health", s.Health)
	r.Get("/columns", s.Columns)
	r.Post("/sessions", s.CreateSession)
	r.Delete("/sessions/:id", s.DeleteSession)
	r.Put("/sessions/:id/filter", s.SetFilter)
	r.Get("/sessions/:id/results", s.Results)
	r.Get("/sessions/:id/export", s.Export)
	r.Post("/sessions/:id/chat", s.Ask)
	r.Get("/sessions/:id/chat", s.ChatLog)
	r.Delete("/sessions/:id/chat", s.ClearChat)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listen(addr) }()
	data, _ := s.dataset()
	s.logger.Info("server listening", zap.String("addr", addr), zap.Int("rows", data.NumRows()))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		logger.Debug("request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	}
}

func (s *Server) dataset() (*table.Table, columns.Resolved) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.cols
}

// refresh reloads the dataset for a new session.
func (s *Server) refresh() (*table.Table, columns.Resolved) {
	if s.opt.Reload == nil {
		return s.dataset()
	}
	data, cols, err := s.opt.Reload()
	if err != nil {
		s.logger.Warn("dataset reload failed, keeping previous", zap.Error(err))
		return s.dataset()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.cols = data, cols
	return data, cols
}

func (s *Server) workbench(ctx *fiber.Ctx) (*workbench.Workbench, error) {
	wb, ok := s.sessions.get(ctx.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return wb, nil
}

func decode(ctx *fiber.Ctx, v any) error {
	if err := json.Unmarshal(ctx.Body(), v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func (s *Server) Health(ctx *fiber.Ctx) error {
	data, _ := s.dataset()
	return ctx.JSON(successResponse("ok", fiber.Map{
		"rows":     data.NumRows(),
		"sessions": s.sessions.count(),
	}))
}

// ColumnsResponse describes how the dataset's columns were resolved.
type ColumnsResponse struct {
	Available    []string `json:"available"`
	Authors      string   `json:"authors"`
	Title        string   `json:"title"`
	Abstract     string   `json:"abstract"`
	Keywords     string   `json:"keywords,omitempty"`
	FieldOptions []string `json:"field_options"`
}

func (s *Server) Columns(ctx *fiber.Ctx) error {
	data, c := s.dataset()
	return ctx.JSON(successResponse("Success get columns", ColumnsResponse{
		Available:    data.Columns(),
		Authors:      c.Authors,
		Title:        c.Title,
		Abstract:     c.Abstract,
		Keywords:     c.Keywords,
		FieldOptions: c.FieldOptions(),
	}))
}

func (s *Server) CreateSession(ctx *fiber.Ctx) error {
	data, cols := s.refresh()
	wb := workbench.New(data, cols, s.opt.Router, s.logger)
	if s.opt.DefaultScope != "" {
		wb.SetScope(s.opt.DefaultScope)
	}
	id := s.sessions.save(wb)
	s.logger.Debug("session created", zap.String("id", id))
	return ctx.Status(fiber.StatusCreated).JSON(successResponse("Success create session", fiber.Map{
		"id":   id,
		"kpis": wb.KPIs(),
	}))
}

func (s *Server) DeleteSession(ctx *fiber.Ctx) error {
	if _, err := s.workbench(ctx); err != nil {
		return err
	}
	s.sessions.delete(ctx.Params("id"))
	return ctx.JSON(successResponse[any]("Success delete session", nil))
}

// FilterRequest is the body of PUT /sessions/:id/filter. A nil Fields
// searches every available field; an empty list searches none.
type FilterRequest struct {
	Author  string   `json:"author"`
	Keyword string   `json:"keyword"`
	Fields  []string `json:"fields"`
}

func (s *Server) SetFilter(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	var req FilterRequest
	if err := decode(ctx, &req); err != nil {
		return err
	}
	var fields []string
	switch {
	case req.Fields == nil:
		fields = wb.Columns().FieldOptions()
	case len(req.Fields) > 0:
		fields, err = filter.ParseFields(req.Fields, wb.Columns())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	kpis := wb.SetFilter(filter.Spec{Author: req.Author, Content: req.Keyword, Fields: fields})
	return ctx.JSON(successResponse("Success apply filter", kpis))
}

// ResultsResponse is the body of GET /sessions/:id/results.
type ResultsResponse struct {
	KPIs    workbench.KPIs `json:"kpis"`
	Results *TableDTO      `json:"results"`
}

func (s *Server) Results(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	// limit=0 returns every row.
	limit := ctx.QueryInt("limit", defaultResultLimit)
	if limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be >= 0")
	}
	return ctx.JSON(successResponse("Success get results", ResultsResponse{
		KPIs:    wb.KPIs(),
		Results: toTableDTO(wb.Results(), limit),
	}))
}

func (s *Server) Export(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	b, err := table.CSVBytes(wb.Results())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	ctx.Attachment(s.opt.ExportFilename)
	ctx.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return ctx.Send(b)
}

// ChatRequest is the body of POST /sessions/:id/chat. Scope, when set,
// switches the session's chat scope before answering.
type ChatRequest struct {
	Query string `json:"query"`
	Scope string `json:"scope"`
}

func (s *Server) Ask(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	var req ChatRequest
	if err := decode(ctx, &req); err != nil {
		return err
	}
	if req.Scope != "" {
		scope, err := workbench.ParseScope(req.Scope)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		wb.SetScope(scope)
	}
	rep := wb.Ask(req.Query)
	return ctx.JSON(successResponse("Success chat", ReplyDTO{
		Intent: rep.Intent,
		Text:   rep.Text,
		Table:  toTableDTO(rep.Table, 0),
	}))
}

func (s *Server) ChatLog(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	turns := wb.Chat()
	out := make([]TurnDTO, len(turns))
	for i, t := range turns {
		out[i] = TurnDTO{
			Role:  t.Role,
			Text:  t.Text,
			Table: toTableDTO(t.Table, 0),
			At:    t.At.UTC().Format(time.RFC3339),
		}
	}
	return ctx.JSON(successResponse("Success get chat", fiber.Map{
		"scope": wb.Scope(),
		"turns": out,
	}))
}

func (s *Server) ClearChat(ctx *fiber.Ctx) error {
	wb, err := s.workbench(ctx)
	if err != nil {
		return err
	}
	wb.ClearChat()
	return ctx.JSON(successResponse[any]("Chat cleared", nil))
}
