package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/extract"
	"github.com/julienpequegnot/seriesgen/internal/fallback"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract WeChat articles as source material",
	Long: `Extracts a single article (--url), a list of articles (--file, one URL per
line) or a pasted article (--manual). When the chosen method fails the other
configured methods are tried in order, each at most once.`,
	RunE: runExtract,
}

var (
	extractURL    string
	extractFile   string
	extractManual bool
	extractMethod string
	extractOutput string
	extractSave   bool
)

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractURL, "url", "", "Article URL")
	extractCmd.Flags().StringVar(&extractFile, "file", "", "File with one article URL per line")
	extractCmd.Flags().BoolVar(&extractManual, "manual", false, "Paste the article into a template file")
	extractCmd.Flags().StringVarP(&extractMethod, "method", "m", "", "Extraction method: cookie, playwright, proxy, manual (default from config)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output directory (default from config)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Save extracted articles as JSON files")
	extractCmd.MarkFlagsMutuallyExclusive("url", "file", "manual")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	db, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	ext := extract.NewFromConfig(cfg.Extractor, os.Stdin, cmd.ErrOrStderr(), repo, logger)
	ctx := cmd.Context()

	if extractFile != "" {
		urls, err := extract.ReadURLList(extractFile)
		if err != nil {
			return err
		}
		result, err := ext.ExtractBatch(ctx, urls, extractSave, extractOutput)
		if err != nil {
			logger.Error("batch extraction interrupted", slog.Any("error", err))
		}
		if printErr := printJSON(cmd.OutOrStdout(), result); printErr != nil {
			return printErr
		}
		return err
	}

	url := extractURL
	opts := extract.Options{Strategy: extractMethod}
	if extractManual || url == "" {
		url = "manual-input"
		opts = extract.Options{Strategy: extract.StrategyManual, DisableFallback: true}
	}

	article, err := ext.ExtractArticle(ctx, url, opts)
	var savedTo string
	if err == nil && extractSave {
		savedTo, err = ext.SaveToFile(article, extractOutput)
	}
	ext.Record(article, url, savedTo, err)
	if err != nil {
		var exhausted *fallback.ExhaustedError
		if errors.As(err, &exhausted) {
			logger.Error("every extraction method failed",
				slog.String("url", url),
				slog.Int("fallbacks_tried", len(exhausted.Failures)))
		}
		return err
	}

	return printJSON(cmd.OutOrStdout(), article)
}
