package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/publish"
	"github.com/julienpequegnot/seriesgen/internal/retry"
)

var publishCmd = &cobra.Command{
	Use:   "publish <series-id>",
	Short: "Publish the generated articles of a series",
	Long: `Publishes every article of the outline, or only --article, to the chosen
platform. Each article is retried with exponential backoff; articles that still
fail are logged to the series errors.log and the rest of the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

var (
	publishPlatform string
	publishArticle  int
)

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVarP(&publishPlatform, "platform", "p", "", "Target platform (default from config)")
	publishCmd.Flags().IntVarP(&publishArticle, "article", "a", 0, "Publish a single article number")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	platform := publishPlatform
	if platform == "" {
		platform = cfg.Publish.Platform
	}

	db, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	b4a := publish.NewB4A(cfg.Publish.B4A.Node, cfg.Publish.B4A.Script, time.Duration(cfg.Publish.TimeoutSeconds)*time.Second)
	publisher := publish.WithBreaker(b4a, publish.BreakerConfig{
		Name:                b4a.Name(),
		ConsecutiveFailures: uint32(max(cfg.Publish.Breaker.ConsecutiveFailures, 0)),
		OpenTimeout:         time.Duration(cfg.Publish.Breaker.OpenSeconds) * time.Second,
	}, logger)

	svc := publish.NewService(openStore(cfg), retry.NewPolicy(cfg.Publish.MaxAttempts, cfg.Publish.BaseDelayMS), repo, logger, publisher)
	result, err := svc.PublishSeries(cmd.Context(), publish.Request{
		SeriesID: args[0],
		Platform: platform,
		Article:  publishArticle,
	})
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), result)
}
