package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"maxscale/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "maxscale",
	Short: "MaxScale website backend",
	Long: `Serves the MaxScale marketing site together with its session bootstrap
and contact form endpoints.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}

// newLogger logs JSON in production and text everywhere else.
func newLogger(cfg config.Config) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
