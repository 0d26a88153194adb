package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/config"
	"github.com/julienpequegnot/seriesgen/internal/research"
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Check the configured feeds for news about a topic",
	Long:  `Probes every configured RSS/Atom feed for items whose title mentions the query.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearch,
}

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List the feeds used for research",
	RunE:  runFeeds,
}

var feedsAddCmd = &cobra.Command{
	Use:   "add <site-url>",
	Short: "Discover a site's feed and add it to the research feeds",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedsAdd,
}

var researchJSON bool

func init() {
	rootCmd.AddCommand(researchCmd)
	researchCmd.AddCommand(feedsCmd)
	feedsCmd.AddCommand(feedsAddCmd)
	researchCmd.Flags().BoolVar(&researchJSON, "json", false, "Print the report as JSON")
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	prober := research.NewProber(cfg.Research.Feeds, time.Duration(cfg.Research.TimeoutSeconds)*time.Second, logger)
	report, err := research.New(prober, cfg.Research.MaxHits, logger).Gather(cmd.Context(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if researchJSON {
		return printJSON(out, report)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Feed", "Relevant", "Status")
	for _, f := range report.Feeds {
		status := "ok"
		if f.Error != "" {
			status = "skipped"
		}
		table.Append(f.Feed, fmt.Sprintf("%d", f.Relevant), status)
	}
	table.Render()

	fmt.Fprintf(out, "\nSource: %s\n", report.Source)
	if report.Note != "" {
		fmt.Fprintf(out, "Note: %s\n", report.Note)
	}
	if len(report.Topics) > 0 {
		fmt.Fprintf(out, "Topics: %s\n", strings.Join(report.Topics, ", "))
	}
	if len(report.Hits) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	hits := tablewriter.NewWriter(out)
	hits.Header("Score", "Date", "Title", "Link")
	for _, h := range report.Hits {
		date := "-"
		if !h.Published.IsZero() {
			date = h.Published.Format("2006-01-02")
		}
		hits.Append(fmt.Sprintf("%.0f", h.Score), date, h.Title, h.Link)
	}
	hits.Render()
	return nil
}

func runFeeds(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Research.Feeds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No feeds configured. Add some with 'seriesgen research feeds add <site-url>'")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("#", "Feed")
	for i, f := range cfg.Research.Feeds {
		table.Append(fmt.Sprintf("%d", i+1), f)
	}
	table.Render()
	return nil
}

func runFeedsAdd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	siteURL := args[0]
	if !strings.HasPrefix(siteURL, "http") {
		siteURL = "https://" + siteURL
	}
	if _, err := url.Parse(siteURL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	fmt.Fprintf(out, "Discovering feed for %s...\n", siteURL)
	client := &http.Client{Timeout: time.Duration(cfg.Research.TimeoutSeconds) * time.Second}
	feedURL, err := research.DiscoverFeed(cmd.Context(), client, siteURL)
	if err != nil {
		return err
	}
	if slices.Contains(cfg.Research.Feeds, feedURL) {
		fmt.Fprintf(out, "Feed already configured: %s\n", feedURL)
		return nil
	}

	// Save the file-based config so environment overrides are not persisted.
	fileCfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	fileCfg.Research.Feeds = append(fileCfg.Research.Feeds, feedURL)
	if err := config.SaveTo(cfgFile, fileCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Info("feed added", slog.String("feed", feedURL))

	fmt.Fprintf(out, "Added feed: %s\n", feedURL)
	return nil
}
