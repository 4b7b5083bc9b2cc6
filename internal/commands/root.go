package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alertas-dev/alertas/internal/buildinfo"
	"github.com/alertas-dev/alertas/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "alertas",
		Short:   "Card alert extraction and reporting",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newAuthCommand())

	return rootCmd
}

// loadConfig reads the config at path with .env and environment overrides
// applied. A missing file falls back to defaults unless it was named explicitly.
func loadConfig(path, envFile string, explicit bool) (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg = config.Default()
	default:
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}
