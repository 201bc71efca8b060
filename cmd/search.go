package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

var (
	searchFilters filterFlags
	searchOutput  string
	searchExport  bool
	searchLimit   int
	searchWidth   int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Filter publications by author and keyword",
	Example: `  pubsift search --author "smith j"
  pubsift search -k cancer --fields Title,Abstract --output cancer.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openWorkbench()
		if err != nil {
			return err
		}
		spec, err := searchFilters.spec(wb.Columns())
		if err != nil {
			return err
		}
		k := wb.SetFilter(spec)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total rows: %s | Matches: %s\n", chat.FormatCount(k.TotalRows), chat.FormatCount(k.Matches))

		if searchExport || searchOutput != "" {
			path := searchOutput
			if path == "" {
				path = cfg.ExportFilename
			}
			n, err := wb.ExportFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Exported %s rows to %s\n", okMark, chat.FormatCount(n), path)
			return nil
		}
		if k.Matches == 0 {
			fmt.Fprintln(out, "(no matching rows)")
			return nil
		}
		fmt.Fprintln(out)
		if err := table.WriteText(out, wb.Results(), searchLimit, searchWidth); err != nil {
			return err
		}
		if searchLimit > 0 && k.Matches > searchLimit {
			fmt.Fprintf(out, "... %s more rows (use --output to export all)\n", chat.FormatCount(k.Matches-searchLimit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchFilters.register(searchCmd)
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "write matches as CSV to this file")
	searchCmd.Flags().BoolVar(&searchExport, "export", false, "write matches as CSV to the configured export_filename")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "rows to preview (0 = all)")
	searchCmd.Flags().IntVar(&searchWidth, "width", 40, "truncate preview cells to this many characters (0 = no limit)")
}
