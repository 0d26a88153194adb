package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julienpequegnot/seriesgen/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize seriesgen configuration and history database",
	Long:  `Creates the ~/.seriesgen directory with config.yaml, the series data directory and the SQLite history database.`,
	RunE:  runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.Dir()
	out := cmd.OutOrStdout()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(config.Path()); err == nil && !initForce {
		fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite)\n", config.Path())
	} else {
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(out, "Created config at %s\n", config.Path())
	}

	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	fmt.Fprintf(out, "Series data in %s\n", cfg.DataDir)

	db, _, err := openHistory()
	if err != nil {
		return err
	}
	db.Close()
	fmt.Fprintf(out, "Created history database at %s\n", config.HistoryDBPath())

	fmt.Fprintln(out, "\nSeriesgen initialized! Next steps:")
	fmt.Fprintln(out, "  seriesgen new <topic> --research    Start a series")
	fmt.Fprintln(out, "  seriesgen publish <series-id>       Publish generated articles")

	return nil
}
