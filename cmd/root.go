package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/julienpequegnot/seriesgen/internal/config"
	"github.com/julienpequegnot/seriesgen/internal/database"
	"github.com/julienpequegnot/seriesgen/internal/history"
	"github.com/julienpequegnot/seriesgen/internal/logging"
	"github.com/julienpequegnot/seriesgen/internal/series"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "seriesgen",
	Short: "Plan, track and publish multi-article content series",
	Long: `Seriesgen manages content series on disk, gathers news for new series,
extracts WeChat articles as source material and publishes finished articles.

Workflow: new → article → publish`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = "0.1.0"
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $SERIESGEN_HOME/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration once for a command run, layers SERIESGEN_*
// environment overrides on top and installs the logger in the command context.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyEnv(cfg)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return cfg, logger, nil
}

func applyEnv(cfg *config.Config) {
	v := viper.New()
	v.SetEnvPrefix("SERIESGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overrides := map[string]*string{
		"data_dir":            &cfg.DataDir,
		"log.level":           &cfg.Log.Level,
		"publish.b4a.script":  &cfg.Publish.B4A.Script,
		"extractor.cookie":    &cfg.Extractor.Cookie,
		"extractor.token":     &cfg.Extractor.Token,
		"extractor.proxy_url": &cfg.Extractor.ProxyURL,
	}
	for key, dst := range overrides {
		if val := v.GetString(key); val != "" {
			*dst = val
		}
	}
}

func openStore(cfg *config.Config) *series.Store {
	return series.NewStore(cfg.DataDir)
}

func openHistory() (*database.DB, *history.Repository, error) {
	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		return nil, nil, err
	}
	db, err := database.New(config.HistoryDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, history.NewRepository(db), nil
}

// printJSON writes v with two-space indentation.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
