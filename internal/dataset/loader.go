// Package dataset loads publication tables from disk and caches them for
// reuse within (and across) sessions.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/parser"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

var (
	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrNoRecords is returned by RequireRecords for a source with a header
	// but no data rows.
	ErrNoRecords = errors.New("dataset has no records")
)

// ParseError wraps any other failure to read a source.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader reads sources through the parser registry and memoizes the result.
// Cached tables are immutable and may be handed to any number of sessions.
type Loader struct {
	opt    parser.Options
	cache  *cache.Cache
	logger *zap.Logger
	parse  func(path string, opt parser.Options) (*table.Table, error)
}

// NewLoader creates a loader whose entries expire after ttl. A ttl <= 0
// keeps entries for the lifetime of the process.
func NewLoader(opt parser.Options, ttl time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	exp := cache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	return &Loader{
		opt:    opt,
		cache:  cache.New(exp, 10*time.Minute),
		logger: logger,
		parse:  parser.ParseFile,
	}
}

// Load returns the table at path. On failure the returned table is empty
// (never nil) and the error is ErrSourceNotFound or a *ParseError.
func (l *Loader) Load(path string) (*table.Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("dataset not found", zap.String("path", abs))
			return table.Empty(), fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return table.Empty(), &ParseError{Path: path, Err: err}
	}
	if info.IsDir() {
		return table.Empty(), &ParseError{Path: path, Err: errors.New("is a directory")}
	}

	key := sourceKey(abs, info)
	if v, ok := l.cache.Get(key); ok {
		l.logger.Debug("dataset cache hit", zap.String("path", abs))
		return v.(*table.Table), nil
	}

	start := time.Now()
	t, err := l.parse(abs, l.opt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table.Empty(), fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		l.logger.Warn("dataset parse failed", zap.String("path", abs), zap.Error(err))
		return table.Empty(), &ParseError{Path: path, Err: err}
	}
	l.cache.Set(key, t, cache.DefaultExpiration)
	l.logger.Info("dataset loaded",
		zap.String("path", abs),
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumCols()),
		zap.Duration("took", time.Since(start)),
	)
	return t, nil
}

// RequireRecords stops a session before column checks when the loaded table
// has no rows.
func RequireRecords(t *table.Table, path string) error {
	if t == nil || t.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrNoRecords, path)
	}
	return nil
}

// Forget drops every cached table.
func (l *Loader) Forget() { l.cache.Flush() }

// sourceKey identifies a source by location and content version so that an
// edited file is re-read.
func sourceKey(abs string, info fs.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())
}
