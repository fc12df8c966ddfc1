package cmd

import (
	"context"
	"fmt"
	"time"

	"locafix/feature/history"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var historyLimit int

// historyCmd lists journaled runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.history == nil {
			return fmt.Errorf("run journal is not available (check DATABASE_* settings)")
		}

		records, err := a.history.Recent(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Println(renderHistory(records))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
	RootCmd.AddCommand(historyCmd)
}

func renderHistory(records []history.Record) string {
	title := cases.Title(language.Und)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		mode := "apply"
		if r.DryRun {
			mode = "dry-run"
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Kind,
			title.String(r.State),
			mode,
			r.Duration().Round(time.Millisecond).String(),
			r.Root,
			r.ID,
		})
	}
	return renderTable(
		[]string{"Started", "Kind", "State", "Mode", "Duration", "Root", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
