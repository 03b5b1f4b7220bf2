package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/migrate"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/logging"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	log := logging.New("crew-tracker-migrate", logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	runner := func() (migrate.Runner, error) { return migrate.New(dsn, log) }

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the crew tracker Postgres schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", dsn, "Postgres DSN (defaults to $DATABASE_URL).")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				r, err := runner()
				if err != nil {
					return err
				}
				return r.Up(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied and pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				r, err := runner()
				if err != nil {
					return err
				}
				return r.Status(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "down [VERSION]",
			Short: "Roll back the latest migration, or down to VERSION",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var target int64
				if len(args) == 1 {
					v, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return err
					}
					target = v
				}
				r, err := runner()
				if err != nil {
					return err
				}
				return r.Down(cmd.Context(), target)
			},
		},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}
}
