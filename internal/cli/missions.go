package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"queryquest/internal/mission"
)

func newMissionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Inspect the mission catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List missions in play order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				catalog, err := loadCatalog(a.cfg)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tLEVEL\tXP\tTITLE")
				for _, m := range catalog.All() {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", m.ID, m.Level, m.XPReward, m.Title)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check every mission file and report all problems",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				catalog, err := mission.LoadDir(a.cfg.Missions.Dir)
				if err != nil {
					return err
				}

				errs := catalog.Validate()
				for _, err := range errs {
					fmt.Fprintf(cmd.OutOrStdout(), "invalid: %v\n", err)
				}
				if len(errs) > 0 {
					return errors.New("mission catalog has errors")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d missions\n", catalog.Len())
				return nil
			},
		},
	)
	return cmd
}
