package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

var (
	chatFilters filterFlags
	chatScope   string
)

var chatCmd = &cobra.Command{
	Use:   "chat [question...]",
	Short: "Ask questions about the dataset (one-shot or interactive)",
	Long: `Answers a fixed set of questions about the rows in scope: row counts,
columns, a summary, top authors or institutions, and title lists. With no
question, starts an interactive prompt; type "exit" to leave.`,
	Example: `  pubsift chat top 10 authors
  pubsift chat --author lee --scope filtered "list titles mentioning sleep"
  pubsift chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openWorkbench()
		if err != nil {
			return err
		}
		spec, err := chatFilters.spec(wb.Columns())
		if err != nil {
			return err
		}
		wb.SetFilter(spec)
		if cmd.Flags().Changed("scope") {
			s, err := workbench.ParseScope(chatScope)
			if err != nil {
				return err
			}
			wb.SetScope(s)
		}
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			return printReply(out, wb.Ask(strings.Join(args, " ")))
		}
		return chatLoop(cmd.InOrStdin(), out, wb)
	},
}

func chatLoop(in io.Reader, out io.Writer, wb *workbench.Workbench) error {
	k := wb.KPIs()
	fmt.Fprintf(out, "Chat scope: %s (%s of %s rows match the filter). Type \"help\" or \"exit\".\n",
		wb.Scope(), chat.FormatCount(k.Matches), chat.FormatCount(k.TotalRows))
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		}
		if err := printReply(out, wb.Ask(q)); err != nil {
			return err
		}
	}
}

func printReply(out io.Writer, rep chat.Reply) error {
	fmt.Fprintln(out, rep.Text)
	if rep.Table == nil {
		return nil
	}
	return table.WriteText(out, rep.Table, 0, 80)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatFilters.register(chatCmd)
	chatCmd.Flags().StringVar(&chatScope, "scope", "all", "rows the chat answers over: all | filtered")
}
