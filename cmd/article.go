package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/series"
)

var articleCmd = &cobra.Command{
	Use:   "article <series-id>",
	Short: "Show what to write for one article of a series",
	Long: `Prints the outline entry for an article together with the target length,
style and the file the finished Markdown should be saved to. With --validate
the saved article's length is checked against its target.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticle,
}

var (
	articleNumber    int
	articleValidate  bool
	articleTolerance float64
)

func init() {
	rootCmd.AddCommand(articleCmd)
	articleCmd.Flags().IntVarP(&articleNumber, "article", "a", 1, "Article number")
	articleCmd.Flags().BoolVar(&articleValidate, "validate", false, "Check the saved article against its target length")
	articleCmd.Flags().Float64Var(&articleTolerance, "tolerance", 0.2, "Allowed deviation from the target length")
}

type articleResult struct {
	Success bool `json:"success"`
	*series.ArticleInfo
	OutputPath string             `json:"output_path"`
	Validation *series.Validation `json:"validation,omitempty"`
	Message    string             `json:"message"`
}

func runArticle(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	seriesID := args[0]
	store := openStore(cfg)

	info, err := store.ArticleInfo(seriesID, articleNumber)
	if err != nil {
		return err
	}

	result := articleResult{
		Success:     true,
		ArticleInfo: info,
		OutputPath:  store.ArticlePath(seriesID, info.Title, time.Now()),
		Message:     "Article info loaded. The content can now be generated.",
	}

	if articleValidate {
		name, err := store.FindArticleFile(seriesID, info.Title)
		if err != nil {
			return fmt.Errorf("article %d: %w", articleNumber, err)
		}
		path := filepath.Join(store.SeriesDir(seriesID), name)
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		v := series.ValidateArticle(string(content), info.TargetWords, articleTolerance)
		result.OutputPath = path
		result.Validation = &v
		result.Success = v.Valid
		result.Message = fmt.Sprintf("%d of %d target words", v.WordCount, v.TargetWords)
	}

	return printJSON(cmd.OutOrStdout(), result)
}
