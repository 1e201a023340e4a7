// Command zerohunger runs the zero hunger web server and its maintenance tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zerohunger/internal/config"
	"zerohunger/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// env is the configuration and logger shared by all subcommands.
type env struct {
	cfg config.Config
	log zerolog.Logger
}

func newRootCommand() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "zerohunger",
		Short:         "Food donation listings with user accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = telemetry.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.IsDevelopment())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServeCommand(e))
	cmd.AddCommand(newMigrateCommand(e))
	cmd.AddCommand(newSessionsCommand(e))
	cmd.AddCommand(newUsersCommand(e))
	return cmd
}
