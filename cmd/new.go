package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/research"
)

var newCmd = &cobra.Command{
	Use:   "new <topic>",
	Short: "Start a new content series",
	Long: `Creates the series directory and metadata. With --research the configured
feeds are checked for recent news on the topic; when nothing relevant is found
the series is marked to be written from existing knowledge.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

var (
	newArticles int
	newWords    int
	newStyle    string
	newResearch bool
)

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().IntVarP(&newArticles, "articles", "n", 0, "Number of articles (default from config)")
	newCmd.Flags().IntVarP(&newWords, "words", "w", 0, "Target words per article (default from config)")
	newCmd.Flags().StringVarP(&newStyle, "style", "s", "", "Writing style (default from config)")
	newCmd.Flags().BoolVar(&newResearch, "research", false, "Gather recent news from the configured feeds")
}

type newResult struct {
	Success   bool             `json:"success"`
	SeriesID  string           `json:"series_id"`
	SeriesDir string           `json:"series_dir"`
	Topic     string           `json:"topic"`
	Research  *research.Report `json:"research,omitempty"`
	Message   string           `json:"message"`
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	articles := orInt(newArticles, cfg.Series.Articles)
	words := orInt(newWords, cfg.Series.WordsPerArticle)
	style := newStyle
	if style == "" {
		style = cfg.Series.Style
	}

	store := openStore(cfg)
	meta, err := store.Init(topic, articles, words, style)
	if err != nil {
		return fmt.Errorf("failed to initialize series: %w", err)
	}
	logger.Info("series created", slog.String("series", meta.ID), slog.String("topic", topic))

	result := newResult{
		Success:   true,
		SeriesID:  meta.ID,
		SeriesDir: store.SeriesDir(meta.ID),
		Topic:     topic,
		Message:   "Series initialized. The outline can now be generated.",
	}

	if newResearch {
		prober := research.NewProber(cfg.Research.Feeds, time.Duration(cfg.Research.TimeoutSeconds)*time.Second, logger)
		report, err := research.New(prober, cfg.Research.MaxHits, logger).Gather(cmd.Context(), topic)
		if err != nil {
			return err
		}
		meta.NewsSource = report.Source
		if err := store.SaveMetadata(meta); err != nil {
			return err
		}
		if err := store.SaveResearch(meta.ID, report); err != nil {
			return err
		}
		result.Research = report
		result.Message = fmt.Sprintf("Series initialized with %s research. The outline can now be generated.", report.Source)
	}

	return printJSON(cmd.OutOrStdout(), result)
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
