// Package cmd provides the CLI commands for the gamewiki search engine.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xiaocao12306/gamewiki-sub002/internal/logging"
	"github.com/xiaocao12306/gamewiki-sub002/pkg/version"
)

var (
	debugMode      bool
	logFile        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the gamewiki CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamewiki",
		Short: "Hybrid retrieval engine for game wiki content",
		Long: `Gamewiki answers questions over indexed game wiki content using
hybrid retrieval: a keyword branch and a vector branch run side by
side, their results are fused and reranked against the detected
query intent.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("gamewiki version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg.Level = "debug"
	}
	if logFile != "" {
		cfg.FilePath = logFile
		cfg.WriteToStderr = false
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
