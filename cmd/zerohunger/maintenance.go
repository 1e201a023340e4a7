package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zerohunger/internal/adapter/postgres"
	"zerohunger/internal/app"
)

func newMigrateCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	for _, dir := range []struct{ use, short string }{
		{postgres.MigrateUp, "Apply all pending migrations"},
		{postgres.MigrateDown, "Roll back the most recent migration"},
		{postgres.MigrateStatus, "Print migration status"},
	} {
		direction := dir.use
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: dir.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if e.cfg.Store != "postgres" {
					return errors.New("migrations require STORE=postgres")
				}
				st, err := openStore(cmd.Context(), e.cfg)
				if err != nil {
					return err
				}
				defer func() { _ = st.close() }()
				return st.pg.Migrate(cmd.Context(), direction)
			},
		})
	}
	return cmd
}

func newSessionsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			n, err := app.NewSessionManager(st.sessions, e.cfg.SessionTTL).PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			e.log.Info().Int64("deleted", n).Msg("expired sessions pruned")
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
			return nil
		},
	})
	return cmd
}

func newUsersCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User administration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var username, email, password string
	create := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an account with the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()
			if err := st.migrate(cmd.Context()); err != nil {
				return err
			}

			creds := app.NewCredentialStore(st.users, e.cfg.BcryptCost, e.log)
			u, err := creds.CreateAdmin(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "Login name")
	create.Flags().StringVar(&email, "email", "", "Email address")
	create.Flags().StringVar(&password, "password", "", "Initial password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)
	return cmd
}
