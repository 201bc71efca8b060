package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/dataset"
	"github.com/KaramelBytes/pubsift-cli/internal/filter"
	"github.com/KaramelBytes/pubsift-cli/internal/parser"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/utils"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

type loaderKey struct {
	opt    parser.Options
	ttl    time.Duration
	logger *zap.Logger
}

var (
	loadersMu sync.Mutex
	loaders   = map[loaderKey]*dataset.Loader{}
)

// datasetLoader returns the process-wide loader for the current settings, so
// reloading an unchanged source is served from its cache.
func datasetLoader() (*dataset.Loader, error) {
	delim, err := parser.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, err
	}
	key := loaderKey{
		opt:    parser.Options{Delimiter: delim, SheetName: cfg.SheetName},
		ttl:    time.Duration(cfg.CacheTTLMin) * time.Minute,
		logger: logger,
	}
	loadersMu.Lock()
	defer loadersMu.Unlock()
	l, ok := loaders[key]
	if !ok {
		l = dataset.NewLoader(key.opt, key.ttl, key.logger)
		loaders[key] = l
	}
	return l, nil
}

// loadDataset reads the configured source through the shared loader.
func loadDataset() (*table.Table, error) {
	l, err := datasetLoader()
	if err != nil {
		return nil, err
	}
	return l.Load(cfg.DatasetPath)
}

// loadPublications loads the dataset, stops on a source without records and
// binds its role columns.
func loadPublications() (*table.Table, columns.Resolved, error) {
	t, err := loadDataset()
	if err != nil {
		return nil, columns.Resolved{}, err
	}
	if err := dataset.RequireRecords(t, cfg.DatasetPath); err != nil {
		return nil, columns.Resolved{}, err
	}
	cols, err := columns.ResolvePublications(t)
	if err != nil {
		return nil, columns.Resolved{}, err
	}
	return t, cols, nil
}

func newRouter() *chat.Router {
	return chat.NewRouter(chat.Options{
		TitleLimit:  cfg.ListTitlesLimit,
		DefaultTopN: cfg.DefaultTopN,
	}, logger)
}

// openWorkbench loads the dataset into a fresh session using the configured
// chat scope.
func openWorkbench() (*workbench.Workbench, error) {
	t, cols, err := loadPublications()
	if err != nil {
		return nil, err
	}
	scope, err := workbench.ParseScope(cfg.ChatScope)
	if err != nil {
		return nil, err
	}
	wb := workbench.New(t, cols, newRouter(), logger)
	wb.SetScope(scope)
	return wb, nil
}

// filterFlags are the author/keyword/field flags shared by several commands.
type filterFlags struct {
	author  string
	keyword string
	fields  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "case-insensitive author substring")
	cmd.Flags().StringVarP(&f.keyword, "keyword", "k", "", "case-insensitive keyword searched in --fields")
	cmd.Flags().StringVar(&f.fields, "fields", "", "comma-separated fields for --keyword: Title,Abstract,MeSH terms (default: all)")
}

func (f *filterFlags) spec(cols columns.Resolved) (filter.Spec, error) {
	fields, err := filter.ParseFields(utils.SplitList(f.fields), cols)
	if err != nil {
		return filter.Spec{}, fmt.Errorf("--fields: %w", err)
	}
	return filter.Spec{Author: f.author, Content: f.keyword, Fields: fields}, nil
}
