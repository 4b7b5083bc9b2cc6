package commands

import (
	"github.com/spf13/cobra"

	"github.com/alertas-dev/alertas/internal/config"
	"github.com/alertas-dev/alertas/internal/mailbox"
)

func newAuthCommand() *cobra.Command {
	var configPath string
	var envFile string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, envFile, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			return mailbox.Authorize(cmd.Context(), cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile,
				cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with ALERTAS_* overrides")

	return cmd
}
