package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/moltid/authcore/cmd/app/commands"
	"github.com/moltid/authcore/internal/app"
	"github.com/moltid/authcore/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "clean-audit-records",
			Usage: "Delete audit records older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete audit records older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many records would be deleted without deleting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				auditRepo, err := container.AuditRepository()
				if err != nil {
					return err
				}

				return commands.RunCleanAuditRecords(
					ctx,
					auditRepo,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-audit-records",
			Usage: "Verify cryptographic integrity of audit records",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start-date",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:     "end-date",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   10000,
					Usage:   "Maximum number of records to check",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				verifier, err := container.AuditVerifier()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditRecords(
					ctx,
					verifier,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}
