package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/RealImage/cognitoauthz/tinyca"
	"github.com/urfave/cli/v3"
)

var mintCmd = &cli.Command{
	Name:  "mint",
	Usage: "Create a self-signed CA and a server certificate signed by it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      "out-dir",
			Usage:     "write ca.pem, cert.pem and key.pem to `DIR`",
			Aliases:   []string{"d"},
			TakesFile: true,
			Value:     ".",
		},
		&cli.StringFlag{
			Name:  "cn",
			Usage: "server certificate common `NAME`",
			Value: tinyca.DefaultSubject().CommonName,
		},
		&cli.StringFlag{
			Name:  "ca-cn",
			Usage: "CA certificate common `NAME`",
			Value: tinyca.DefaultSubject().CACommonName,
		},
		&cli.StringSliceFlag{
			Name:  "dns",
			Usage: "server certificate DNS `NAME`s",
		},
		&cli.StringFlag{
			Name:    "not-before",
			Usage:   "certificate valid from `TIMESPEC` (default: \"now\")",
			Aliases: []string{"before"},
		},
		&cli.StringFlag{
			Name:    "not-after",
			Usage:   "certificate valid until `TIMESPEC` (default: nine years after not-before)",
			Aliases: []string{"after"},
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		notBefore, notAfter, err := tinyca.ParseValidity(
			cmd.String("not-before"),
			cmd.String("not-after"),
			tinyca.ServerValidity,
			time.Now(),
		)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error parsing validity: %s", err), 1)
		}

		subject := tinyca.DefaultSubject()
		subject.CommonName = cmd.String("cn")
		subject.CACommonName = cmd.String("ca-cn")
		if dns := cmd.StringSlice("dns"); len(dns) > 0 {
			subject.DNSNames = dns
		}

		ca, err := tinyca.New(subject, 0, notBefore, notBefore.Add(tinyca.CAValidity))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error creating CA: %s", err), 1)
		}
		cert, err := ca.IssueServerCertificate(subject, 0, notBefore, notAfter)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error issuing certificate: %s", err), 1)
		}

		dir := cmd.String("out-dir")
		files := []struct {
			name string
			data []byte
			perm os.FileMode
		}{
			{"ca.pem", ca.CertificatePEM(), 0o644},
			{"cert.pem", cert.CertificatePEM(), 0o644},
			{"key.pem", cert.PrivateKeyPEM(), 0o600},
		}
		for _, f := range files {
			path := filepath.Join(dir, f.name)
			if err := os.WriteFile(path, f.data, f.perm); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %s", path, err), 1)
			}
			slog.DebugContext(ctx, "wrote file", "path", path)
		}
		slog.InfoContext(ctx, "minted certificate",
			"ca", ca.Certificate.Subject.String(),
			"certificate", cert.Subject.String(),
			"not_after", cert.NotAfter,
		)
		return nil
	},
}
