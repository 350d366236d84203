package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"queryquest/internal/config"
	"queryquest/internal/userclient"
)

func newPlayCmd() *cobra.Command {
	var cfg userclient.Config

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play against a running server from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Token == "" {
				cfg.Token = os.Getenv(config.EnvPrefix + "TOKEN")
			}
			return userclient.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.ServerURL, "server", "http://127.0.0.1:3001", "queryquest server base URL")
	cmd.Flags().StringVar(&cfg.Token, "token", "", "access token (default: $"+config.EnvPrefix+"TOKEN)")
	cmd.Flags().IntVar(&cfg.RankingsLimit, "rankings", 10, "default rankings size")
	cmd.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", 15*time.Second, "HTTP timeout")
	return cmd
}
