package main

import (
	"fmt"

	"sms-ledger/pkg/auth"
	"sms-ledger/pkg/config"

	"github.com/urfave/cli/v2"
)

// tokenCommand mints a JWT for a forwarding device so it can call the
// ingest endpoint.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a device token for the SMS ingest endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Usage:    "Device identifier embedded in the token",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
			token, err := jwtManager.GenerateToken(c.String("device"))
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			fmt.Println(token)
			return nil
		},
	}
}
