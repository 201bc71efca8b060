package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/server"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filter and chat over an HTTP JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cols, err := loadPublications()
		if err != nil {
			return err
		}
		scope, err := workbench.ParseScope(cfg.ChatScope)
		if err != nil {
			return err
		}
		addr := cfg.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(server.Options{
			Data:           t,
			Columns:        cols,
			Reload:         loadPublications,
			Router:         newRouter(),
			SessionTTL:     time.Duration(cfg.SessionTTLMin) * time.Minute,
			DefaultScope:   scope,
			ExportFilename: cfg.ExportFilename,
			Logger:         logger,
		})
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "%s Serving %s rows on http://%s/api/v1 (Ctrl+C to stop)\n", okMark, chat.FormatCount(t.NumRows()), addr)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
}
