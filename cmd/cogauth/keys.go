package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/RealImage/cognitoauthz/keysource"
	"github.com/urfave/cli/v3"
)

var keysCmd = &cli.Command{
	Name:  "keys",
	Usage: "Print the signing keys in a key set",
	Flags: []cli.Flag{
		jwksFlag,
		outputFlag,
	},
	Action: func(ctx context.Context, _ *cli.Command) error {
		ks, err := keysource.Fetch(ctx, jwksURI)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error fetching key set: %s", err), 1)
		}

		out, cls, err := getOutputWriter()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error opening output file: %s", err), 1)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KID\tALG\tTYPE")
		for _, kid := range ks.KeyIDs() {
			k, _ := ks.Lookup(kid)
			fmt.Fprintf(tw, "%s\t%s\t%T\n", k.KeyID, k.Algorithm, k.Key)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		return cls()
	},
}
