package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alertas-dev/alertas/internal/config"
	"github.com/alertas-dev/alertas/internal/export"
	"github.com/alertas-dev/alertas/internal/extract"
	"github.com/alertas-dev/alertas/internal/logging"
	"github.com/alertas-dev/alertas/internal/mailbox"
	"github.com/alertas-dev/alertas/internal/model"
	"github.com/alertas-dev/alertas/internal/pipeline"
)

type runFlags struct {
	configPath string
	envFile    string
	since      string
	outDir     string
	fixtures   string
	logLevel   string
	noExport   bool
}

func newRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch Visa and Mastercard alerts, print the report and export CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.configPath, f.envFile, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runAlerts(cmd, cfg, f.fixtures)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file with ALERTAS_* overrides")
	cmd.Flags().StringVar(&f.since, "since", "", "only alerts received on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "directory for the CSV export")
	cmd.Flags().StringVar(&f.fixtures, "fixtures", "", "read messages from a YAML dump instead of Gmail")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().BoolVar(&f.noExport, "no-export", false, "skip the CSV export")

	return cmd
}

// apply lets explicitly set flags win over file and environment values.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("since") {
		cfg.Since = f.since
	}
	if flags.Changed("out-dir") {
		cfg.Export.Dir = f.outDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.noExport {
		cfg.Export.Enabled = false
	}
}

func runAlerts(cmd *cobra.Command, cfg *config.Config, fixtures string) error {
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	ctx := logging.WithContext(cmd.Context(), logger)

	since, err := mailbox.ParseSince(cfg.Since)
	if err != nil {
		return err
	}

	src, err := openSource(ctx, cfg, fixtures, logger)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Source:   src,
		Registry: extract.DefaultRegistry(cfg.Conventions()),
		Out:      cmd.OutOrStdout(),
	}
	if cfg.Export.Enabled && cfg.Export.GCSURI != "" {
		up, err := export.NewGCSUploader(cfg.Export.GCSURI)
		if err != nil {
			return err
		}
		runner.Uploader = up
	}

	senders := make(map[model.Brand]string, len(model.Brands))
	for _, b := range model.Brands {
		senders[b] = cfg.Brand(b).Sender
	}

	logger.Debug("starting run", logging.FieldRunID, runID, "since", cfg.Since)
	_, err = runner.Run(ctx, pipeline.Options{
		RunID:   runID,
		Since:   since,
		Senders: senders,
		Export:  cfg.Export.Enabled,
		OutDir:  cfg.Export.Dir,
		RunLog:  cfg.RunLog,
	})
	return err
}

func openSource(ctx context.Context, cfg *config.Config, fixtures string, logger *log.Logger) (mailbox.Source, error) {
	if fixtures != "" {
		logger.Info("reading fixture mailbox", logging.FieldPath, fixtures)
		return mailbox.LoadFile(fixtures)
	}
	return mailbox.NewGmailSource(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, logger)
}
