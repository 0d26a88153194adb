package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/series"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List content series",
	Long:  `List all series in the data directory, newest first.`,
	RunE:  runList,
}

var (
	listTop  int
	listJSON bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listTop, "top", "n", 20, "Number of series to show")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	all, err := openStore(cfg).ListAll()
	if err != nil {
		return err
	}
	if listTop > 0 && len(all) > listTop {
		all = all[:listTop]
	}

	out := cmd.OutOrStdout()
	if listJSON {
		if all == nil {
			all = []series.Metadata{}
		}
		return printJSON(out, all)
	}

	if len(all) == 0 {
		fmt.Fprintln(out, "No series found. Start one with 'seriesgen new <topic>'.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf(" %-22s  %-10s  %-20s  %s", "ID", "CREATED", "STATUS", "TOPIC")))
	fmt.Fprintln(out, strings.Repeat("─", 100))

	for _, m := range all {
		date := "-"
		if !m.CreatedAt.IsZero() {
			date = m.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(out, " %s  %s  %s  %s\n",
			idStyle.Render(fmt.Sprintf("%-22s", m.ID)),
			dateStyle.Render(fmt.Sprintf("%-10s", date)),
			statusStyle(m.Status).Render(fmt.Sprintf("%-20s", m.Status)),
			truncate(m.Topic, 50),
		)
	}

	return nil
}

func statusStyle(status string) lipgloss.Style {
	color := "7"
	switch status {
	case series.StatusPublished:
		color = "10"
	case series.StatusPartiallyPublished:
		color = "11"
	case series.StatusUnknown:
		color = "9"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
