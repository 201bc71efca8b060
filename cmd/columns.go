package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/server"
	"github.com/KaramelBytes/pubsift-cli/internal/utils"
)

var columnsJSON bool

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show how the dataset's columns were resolved",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadDataset()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if columnsJSON {
			cols, err := columns.ResolvePublications(t)
			if err != nil {
				return err
			}
			b, err := utils.PrettyJSON(server.ColumnsResponse{
				Available:    t.Columns(),
				Authors:      cols.Authors,
				Title:        cols.Title,
				Abstract:     cols.Abstract,
				Keywords:     cols.Keywords,
				FieldOptions: cols.FieldOptions(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		fmt.Fprintf(out, "Dataset: %s (%d rows, %d columns)\n", cfg.DatasetPath, t.NumRows(), t.NumCols())
		for _, name := range columns.Required {
			if t.Has(name) {
				fmt.Fprintf(out, "%s %s\n", okMark, name)
			} else {
				fmt.Fprintf(out, "%s %s (missing)\n", errMark, name)
			}
		}
		cols, err := columns.ResolvePublications(t)
		if err != nil {
			return err
		}
		if cols.HasKeywords() {
			fmt.Fprintf(out, "%s %s -> %q\n", okMark, columns.KeywordsField, cols.Keywords)
		} else {
			fmt.Fprintf(out, "%s %s: none of %s found; keyword search is limited to Title and Abstract\n",
				warnMark, columns.KeywordsField, strings.Join(columns.KeywordCandidates, ", "))
		}
		fmt.Fprintf(out, "Search fields: %s\n", strings.Join(cols.FieldOptions(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().BoolVar(&columnsJSON, "json", false, "print the resolution as JSON")
}
