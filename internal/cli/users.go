package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"queryquest/internal/auth"
	"queryquest/internal/config"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage player accounts",
	}

	add := &cobra.Command{
		Use:   "add <username> [email]",
		Short: "Create a player and print an access token",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store != config.StorePostgres {
				return errors.New("users add needs the postgres store")
			}
			tokens, err := configuredTokens(a.cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			store, err := openPostgresStore(ctx, pool, a.cfg.Database.Migrate)
			if err != nil {
				return err
			}
			defer store.Close()

			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			user, err := store.CreateUser(ctx, args[0], email)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(user.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:    %s\n", user.ID)
			fmt.Fprintf(out, "token: %s\n", token)
			return nil
		},
	}

	token := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a fresh access token for an existing player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := configuredTokens(a.cfg)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.AddCommand(add, token)
	return cmd
}

// configuredTokens refuses to issue tokens under a throwaway key, since the
// server would not accept them.
func configuredTokens(cfg *config.Config) (*auth.Tokens, error) {
	if cfg.Auth.Key == "" {
		return nil, errors.New("auth.key must be configured to issue tokens")
	}
	return newTokens(cfg)
}
