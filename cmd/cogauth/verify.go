package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RealImage/cognitoauthz"
	"github.com/RealImage/cognitoauthz/keysource"
	"github.com/urfave/cli/v3"
)

var verifyCmd = &cli.Command{
	Name:      "verify",
	Usage:     "Authorize a token and print the resulting policy",
	ArgsUsage: "[TOKEN]",
	Flags: []cli.Flag{
		jwksFlag,
		outputFlag,
		&cli.StringFlag{
			Name:     "audience",
			Usage:    "accept tokens issued to app client `ID`",
			Aliases:  []string{"aud"},
			Sources:  cli.EnvVars("AUTHZ_CLIENT_ID"),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "resource",
			Usage:   "method `ARN` placed in the policy",
			Aliases: []string{"r"},
			Value:   "arn:aws:execute-api:*",
		},
		&cli.StringFlag{
			Name:    "principal",
			Usage:   "principal `ID` placed in the policy",
			Sources: cli.EnvVars("AUTHZ_PRINCIPAL_ID"),
			Value:   cognitoauthz.DefaultPrincipalID,
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "the `TOKEN` to verify, read from stdin if empty",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		fetch, err := keysource.Fetcher(jwksURI)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error configuring key set: %s", err), 1)
		}
		keys := cognitoauthz.NewKeySetCache(fetch)
		if err := keys.Load(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("Error fetching key set: %s", err), 1)
		}

		flag := cmd.String("token")
		if flag == "" {
			flag = cmd.Args().First()
		}
		token, err := readToken(flag)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error reading token: %s", err), 1)
		}

		authz := cognitoauthz.NewAuthorizer(keys, cmd.String("audience"),
			cognitoauthz.WithPrincipalID(cmd.String("principal")),
		)
		d := authz.Authorize(ctx, cognitoauthz.Request{
			Token:    token,
			Resource: cmd.String("resource"),
		})

		out, cls, err := getOutputWriter()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error opening output file: %s", err), 1)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d.Policy()); err != nil {
			return err
		}
		if err := cls(); err != nil {
			return err
		}

		if !d.Allowed() {
			return cli.Exit(fmt.Sprintf("Denied (%s): %s", cognitoauthz.Reason(d.Err), d.Err), 2)
		}
		return nil
	},
}
