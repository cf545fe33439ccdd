package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/config"
)

// commandContext lazily loads configuration once and shares it across
// subcommands. The logger is built from the loaded logging section.
type commandContext struct {
	configFlag *string

	cfg    *config.Pipeline
	logger *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Pipeline, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
	if err != nil {
		return config.Pipeline{}, err
	}
	c.cfg = &cfg
	c.logger = newLogger(cfg.Logging)
	return cfg, nil
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		c.logger = newLogger(config.Logging{Level: "info", Format: "console"})
	}
	return c.logger
}

func newLogger(cfg config.Logging) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "curator",
		Short:         "Deterministic curation of energy rows and transcript chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newEnergyCommand(ctx))
	rootCmd.AddCommand(newTranscriptCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}
