package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [series-id]",
	Short: "Show publish and extraction history",
	Long:  `Lists recorded publish attempts, optionally for one series. With --extractions the extraction log is shown instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var (
	historyLimit       int
	historyExtractions bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum entries to show")
	historyCmd.Flags().BoolVar(&historyExtractions, "extractions", false, "Show extraction history")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, _, err := setup(cmd); err != nil {
		return err
	}

	db, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)

	if historyExtractions {
		items, err := repo.ListExtractions(historyLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(out, "No extractions recorded.")
			return nil
		}
		table.Header("When", "Status", "Strategy", "Title", "URL")
		for _, e := range items {
			table.Append(e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Strategy, truncate(e.Title, 30), e.URL)
		}
		table.Render()
		return nil
	}

	seriesID := ""
	if len(args) == 1 {
		seriesID = args[0]
	}
	attempts, err := repo.ListPublish(seriesID, historyLimit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintln(out, "No publish attempts recorded.")
		return nil
	}

	table.Header("When", "Series", "#", "Status", "Title", "URL / Error")
	for _, a := range attempts {
		detail := a.URL
		if detail == "" {
			detail = truncate(a.Error, 40)
		}
		table.Append(
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.SeriesID,
			fmt.Sprintf("%d", a.ArticleNumber),
			a.Status,
			truncate(a.Title, 30),
			detail,
		)
	}
	table.Render()
	return nil
}
