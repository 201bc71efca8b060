package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	cfgpkg "github.com/KaramelBytes/pubsift-cli/internal/config"
	"github.com/KaramelBytes/pubsift-cli/internal/dataset"
	"github.com/KaramelBytes/pubsift-cli/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDataset   string
	flagDelimiter string
	flagSheet     string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger      = zap.NewNop()
	closeLogger = func() {}
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	errMark  = color.New(color.FgRed).Sprint("✗")
)

var rootCmd = &cobra.Command{
	Use:   "pubsift",
	Short: "PubSift: filter a publication export and ask questions about it",
	Long: `PubSift loads a Dimensions-style publication export (CSV, TSV or XLSX),
filters it by author and by keyword across Title, Abstract and MeSH terms,
exports the matches as CSV, and answers simple questions about the rows in a
rule-based chat. It runs as a CLI, a terminal UI or an HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	closeLogger()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pubsift/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "publication export to load (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default: detect)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so every command still runs
		fmt.Fprintf(os.Stderr, "%s Warning: failed to load config: %v\n", warnMark, err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("dataset") {
		cfg.DatasetPath = flagDataset
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("sheet") {
		cfg.SheetName = flagSheet
	}

	l, cleanup, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		Debug:     debug,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s Warning: logging disabled: %v\n", warnMark, err)
		l, cleanup = zap.NewNop(), func() {}
	}
	closeLogger()
	logger, closeLogger = l, cleanup
}

// printError reports a terminal error with whatever hint helps the user fix it.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errMark, "Error:", err)
	var missing *columns.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		fmt.Fprintln(w, "  "+missing.Preview())
	case errors.Is(err, dataset.ErrSourceNotFound):
		fmt.Fprintln(w, "  Please ensure the file is present, or pass --dataset / run `pubsift config set dataset_path <file>`.")
	case errors.Is(err, dataset.ErrNoRecords):
		fmt.Fprintln(w, "  The file has a header row but no records to search.")
	}
}
