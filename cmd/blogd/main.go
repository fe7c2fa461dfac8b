// Command blogd serves the blog API and manages its database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"blog/backend/internal/config"
	"blog/backend/internal/logging"
)

var configPath string

// rootCmd is the base command; every subcommand loads the same configuration.
var rootCmd = &cobra.Command{
	Use:           "blogd [command] [flags]",
	Short:         "Blog backend server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
}

// setup loads the configuration and builds the process logger.
func setup() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, closeLog := logging.New(cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, closeLog, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blogd: %v\n", err)
		os.Exit(1)
	}
}
