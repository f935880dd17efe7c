package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/Black-And-White-Club/fitleague/config"
	"github.com/Black-And-White-Club/fitleague/pkg/jwt"
)

func main() {
	cliApp := &cli.App{
		Name:  "token",
		Usage: "issue a bearer token for local API testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id the token identifies"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.HTTP.JWTSecret == "" {
				return fmt.Errorf("http.jwt_secret is not configured")
			}

			userID, err := uuid.Parse(c.String("user"))
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			token, err := jwt.NewService(cfg.HTTP.JWTSecret).GenerateToken(userID, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
