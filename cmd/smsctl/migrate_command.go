package main

import (
	"database/sql"
	"embed"
	"fmt"

	"sms-ledger/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v2"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply embedded database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Migrate to the latest version",
				Action: func(c *cli.Context) error {
					return withGoose(func(db *sql.DB) error {
						return goose.Up(db, "migrations")
					})
				},
			},
			{
				Name:  "status",
				Usage: "Print migration status",
				Action: func(c *cli.Context) error {
					return withGoose(func(db *sql.DB) error {
						return goose.Status(db, "migrations")
					})
				},
			},
		},
	}
}

func withGoose(fn func(db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return fn(db)
}
