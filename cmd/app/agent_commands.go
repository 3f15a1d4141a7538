package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/moltid/authcore/cmd/app/commands"
	"github.com/moltid/authcore/internal/app"
	"github.com/moltid/authcore/internal/config"
)

func getAgentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-agent",
			Usage: "Generate a keypair and register a new agent",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable agent name",
				},
				&cli.StringFlag{
					Name:    "org",
					Aliases: []string{"o"},
					Usage:   "Organization the agent belongs to",
				},
				&cli.StringFlag{
					Name:    "capabilities",
					Aliases: []string{"c"},
					Usage:   "JSON array of root capabilities (e.g. '[{\"resource\":\"messages/*\",\"actions\":[\"send\"]}]')",
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

				agentUseCase, err := container.AgentUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAgent(
					ctx,
					agentUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("org"),
					cmd.String("capabilities"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "issue-delegation",
			Usage: "Issue and store a signed delegation token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "issuer",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Issuer DID",
				},
				&cli.StringFlag{
					Name:     "issuer-key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Issuer private key in wire form (ed25519:<base64>)",
				},
				&cli.StringFlag{
					Name:     "audience",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Audience DID the token delegates to",
				},
				&cli.StringFlag{
					Name:     "capabilities",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "JSON array of delegated capabilities",
				},
				&cli.StringSliceFlag{
					Name:    "proof",
					Aliases: []string{"p"},
					Usage:   "Parent token IDs proving the issuer's authority (omit for a root token)",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Value: 24 * time.Hour,
					Usage: "How long the token stays valid (e.g. 24h, 30m)",
				},
				&cli.IntFlag{
					Name:  "max-uses",
					Value: 0,
					Usage: "Maximum number of uses (0 for unlimited)",
				},
				&cli.BoolFlag{
					Name:  "allow-delegation",
					Value: false,
					Usage: "Whether the audience may delegate further",
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

				issuer, err := container.DelegationIssuer()
				if err != nil {
					return err
				}

				return commands.RunIssueDelegation(
					ctx,
					issuer,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.IssueDelegationParams{
						Issuer:           cmd.String("issuer"),
						IssuerKey:        cmd.String("issuer-key"),
						Audience:         cmd.String("audience"),
						CapabilitiesJSON: cmd.String("capabilities"),
						ProofChain:       cmd.StringSlice("proof"),
						TTL:              cmd.Duration("ttl"),
						MaxUses:          int64(cmd.Int("max-uses")),
						AllowDelegation:  cmd.Bool("allow-delegation"),
						Format:           cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "revoke",
			Usage: "Record a revocation for a delegation token, key, or consent token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "subject",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Subject ID to revoke (token ID or wire-form public key)",
				},
				&cli.StringFlag{
					Name:     "kind",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Subject kind: 'delegation', 'key', or 'consent'",
				},
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Usage:   "Reason for the revocation",
				},
				&cli.StringFlag{
					Name:     "authority-key",
					Required: true,
					Usage:    "Authority private key in wire form (ed25519:<base64>)",
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

				registry, err := container.RevocationRegistry()
				if err != nil {
					return err
				}

				return commands.RunRevoke(
					ctx,
					registry,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("subject"),
					cmd.String("kind"),
					cmd.String("reason"),
					cmd.String("authority-key"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "register-consent",
			Usage: "Sign and register a consent token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "grantor",
					Aliases:  []string{"g"},
					Required: true,
					Usage:    "Grantor DID",
				},
				&cli.StringFlag{
					Name:     "grantor-key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Grantor private key in wire form (ed25519:<base64>)",
				},
				&cli.StringFlag{
					Name:     "subject-types",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Comma-separated PII types the grantor consents to (e.g. 'email,phone')",
				},
				&cli.StringFlag{
					Name:    "purpose",
					Aliases: []string{"p"},
					Usage:   "Purpose the consent is granted for",
				},
				&cli.StringFlag{
					Name:    "scope",
					Aliases: []string{"s"},
					Usage:   "Resource scope the consent applies to",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Value: 30 * 24 * time.Hour,
					Usage: "How long the consent stays valid (e.g. 720h)",
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

				registrar, err := container.ConsentRegistrar()
				if err != nil {
					return err
				}

				return commands.RunRegisterConsent(
					ctx,
					registrar,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.RegisterConsentParams{
						Grantor:      cmd.String("grantor"),
						GrantorKey:   cmd.String("grantor-key"),
						SubjectTypes: cmd.String("subject-types"),
						Purpose:      cmd.String("purpose"),
						Scope:        cmd.String("scope"),
						TTL:          cmd.Duration("ttl"),
						Format:       cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "create-audit-root-key",
			Usage: "Generate a KMS-wrapped root key for audit record signing",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Required: true,
					Usage:    "KMS key URI (e.g. base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateAuditRootKey(
					ctx,
					slog.Default(),
					commands.DefaultIO().Writer,
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}
