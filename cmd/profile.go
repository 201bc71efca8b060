package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pubsift-cli/internal/profile"
)

var (
	profileFilters filterFlags
	profileTop     int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Summarize every column of the (optionally filtered) dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openWorkbench()
		if err != nil {
			return err
		}
		spec, err := profileFilters.spec(wb.Columns())
		if err != nil {
			return err
		}
		wb.SetFilter(spec)
		opt := profile.DefaultOptions()
		if profileTop > 0 {
			opt.TopN = profileTop
		}
		rep := profile.Build(filepath.Base(cfg.DatasetPath), wb.Results(), opt)
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileFilters.register(profileCmd)
	profileCmd.Flags().IntVar(&profileTop, "top", 0, "top values listed per column (default 5)")
}
