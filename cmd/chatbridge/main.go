package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memohai/chatbridge/internal/config"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "chatbridge",
		Short:         "Multi-tenant Slack and Telegram channel bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"Path to the TOML config file (default "+config.DefaultConfigPath+")")

	cmd.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newTokenCommand(&configPath),
	)
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
