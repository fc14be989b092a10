package main

import (
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// Flags
var (
	jwksURI  string
	jwksFlag = &cli.StringFlag{
		Name:        "jwks",
		Usage:       "read the key set from `URI` (https, s3, arn or file)",
		Aliases:     []string{"k"},
		Sources:     cli.EnvVars("AUTHZ_JWKS_URI"),
		Required:    true,
		Destination: &jwksURI,
	}

	outputFile string
	outputFlag = &cli.StringFlag{
		Name:        "output",
		Usage:       "write output to `FILE`",
		Aliases:     []string{"o"},
		TakesFile:   true,
		Value:       "-",
		Destination: &outputFile,
	}
)

func getOutputWriter() (io.Writer, func() error, error) {
	if outputFile == "" || outputFile == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// readToken reads a token from the token flag, or from stdin if it is empty or "-".
func readToken(flag string) (string, error) {
	if flag != "" && flag != "-" {
		return strings.TrimSpace(flag), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
