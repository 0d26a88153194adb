package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <series-id>",
	Short: "Show the progress of a series",
	Long:  `Display series metadata, how many outline articles have been written and the published URLs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(cfg).Status(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		return printJSON(out, st)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true)
	divider := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Repeat("━", 70))

	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, titleStyle.Render(st.Topic))
	fmt.Fprintln(out, divider)

	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Series:"), valueStyle.Render(st.ID))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Status:"), statusStyle(st.Status).Render(st.Status))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Style:"), valueStyle.Render(st.Style))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("News:"), valueStyle.Render(st.NewsSource))
	if !st.CreatedAt.IsZero() {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Created:"), valueStyle.Render(st.CreatedAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprintf(out, "%s %d/%d written (%d planned, %d words each)\n",
		labelStyle.Render("Progress:"), st.Generated, st.Outline, st.ArticlesCount, st.WordsPerArticle)

	if len(st.GeneratedArticles) > 0 {
		fmt.Fprintf(out, "\n%s\n", labelStyle.Render("WRITTEN:"))
		for _, a := range st.GeneratedArticles {
			fmt.Fprintf(out, "  %2d. %s  %s\n", a.Number, a.Title, labelStyle.Render(a.Filename))
		}
	}

	if len(st.PublishedURLs) > 0 {
		fmt.Fprintf(out, "\n%s\n", labelStyle.Render("PUBLISHED:"))
		for _, u := range st.PublishedURLs {
			fmt.Fprintf(out, "  %2d. %s\n      %s\n", u.Number, u.Title, urlStyle.Render(u.URL))
		}
	}

	return nil
}
