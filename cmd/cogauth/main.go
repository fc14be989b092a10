package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/RealImage/cognitoauthz"
	"github.com/RealImage/cognitoauthz/internal/config"
	"github.com/urfave/cli/v3"
)

func main() {
	version := config.BuildRevision + " (" + config.BuildTime.String() + ")"

	cmd := &cli.Command{
		Name:    "cogauth",
		Usage:   "Inspect Cognito key sets, check tokens and mint certificates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   slog.LevelInfo.String(),
				Action: func(_ context.Context, _ *cli.Command, l string) error {
					if err := cognitoauthz.LogLevel.UnmarshalText([]byte(l)); err != nil {
						return err
					}
					hdlr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cognitoauthz.LogLevel})
					logger := slog.New(hdlr)
					slog.SetDefault(logger)
					cognitoauthz.SetLogger(logger)
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			keysCmd,
			verifyCmd,
			mintCmd,
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
