// Package cli wires the queryquest command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"queryquest/internal/config"
	"queryquest/internal/telemetry"
)

type app struct {
	cfgFile string
	cfg     *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "queryquest",
		Short: "QueryQuest - learn SQL by playing missions",
		Long: `QueryQuest serves a mission-based SQL game. Players submit queries that run
inside a rolled-back Postgres transaction and earn XP for passing missions.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := telemetry.SetupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (console|json)")
	flags.String("database-url", "", "Postgres connection URL")
	flags.String("store", "", "progress store (postgres|memory)")
	flags.String("missions-dir", "", "directory of mission JSON files (default: embedded set)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newMissionsCmd(a),
		newUsersCmd(a),
		newCheckCmd(a),
		newPlayCmd(),
	)
	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
