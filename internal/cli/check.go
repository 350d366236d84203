package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"queryquest/internal/mission"
	"queryquest/internal/safety"
	"queryquest/internal/sandbox"
)

var errRejected = errors.New("query rejected")

func newCheckCmd(a *app) *cobra.Command {
	var (
		missionID string
		execute   bool
	)

	cmd := &cobra.Command{
		Use:   "check [--mission id] [--execute] <sql>",
		Short: "Run the safety gate and, optionally, a mission's scoring on a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			var m mission.Mission
			if missionID != "" {
				catalog, err := loadCatalog(a.cfg)
				if err != nil {
					return err
				}
				if m, err = catalog.Get(missionID); err != nil {
					return fmt.Errorf("%s: %w", missionID, err)
				}
			}

			verdict := safety.Classify(sql, missionID)
			if !verdict.Safe {
				fmt.Fprintf(out, "unsafe: %s\n", verdict.Reason)
				return errRejected
			}
			fmt.Fprintln(out, "safe")
			if !execute {
				return nil
			}

			ctx := cmd.Context()
			pool, executor, err := openSandbox(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := executor.Run(ctx, m.TableSetup, sql)
			if err != nil {
				var execErr *sandbox.ExecError
				if errors.As(err, &execErr) {
					fmt.Fprintf(out, "error: %s\n", execErr.Feedback())
					return errRejected
				}
				return err
			}
			fmt.Fprintf(out, "%d row(s), columns: %s\n", result.RowCount, strings.Join(result.Columns, ", "))

			if missionID == "" {
				return nil
			}
			scored := m.ValidationRules.Evaluate(sql, result.Columns, result.RowCount)
			if !scored.Passed {
				fmt.Fprintf(out, "fail: %s\n", scored.Feedback)
				return errRejected
			}
			fmt.Fprintf(out, "pass: %d XP\n", m.XPReward)
			return nil
		},
	}
	cmd.Flags().StringVarP(&missionID, "mission", "m", "", "mission id to check against")
	cmd.Flags().BoolVar(&execute, "execute", false, "run the query in the sandbox (needs database.url)")
	return cmd
}
