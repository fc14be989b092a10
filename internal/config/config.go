// Package config reads process configuration from the environment and sets up logging.
package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/RealImage/cognitoauthz"
	"github.com/RealImage/cognitoauthz/keysource"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by this package.
const EnvPrefix = "AUTHZ"

var (
	BuildRevision string
	BuildTime     time.Time
)

func init() {
	BuildRevision, BuildTime = buildInfo()
}

// buildInfo returns build information embedded inside the binary.
func buildInfo() (rev string, t time.Time) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				rev = s.Value
			} else if s.Key == "vcs.time" {
				if t2, err := time.Parse(time.RFC3339, s.Value); err == nil {
					t = t2
				}
			}
			if rev != "" && !t.IsZero() {
				break
			}
		}
	}
	return
}

// Logging configures the process logger.
type Logging struct {
	LogLevel  slog.Level `envconfig:"LOG_LEVEL"  default:"info"`
	LogSource bool       `envconfig:"LOG_SOURCE" default:"false"`
}

// Authorizer configures the Cognito authorizer Lambda function.
type Authorizer struct {
	Logging

	Region      string `envconfig:"REGION"       required:"true"`
	UserPoolID  string `envconfig:"USER_POOL_ID" required:"true"`
	ClientID    string `envconfig:"CLIENT_ID"    required:"true"`
	JWKSURI     string `envconfig:"JWKS_URI"`
	PrincipalID string `envconfig:"PRINCIPAL_ID" default:"user"`
	TokenHeader string `envconfig:"TOKEN_HEADER" default:"token"`
}

// KeySetURI returns where the user pool's key set is fetched from.
// JWKSURI overrides the user pool's published URL.
func (a Authorizer) KeySetURI() string {
	if a.JWKSURI != "" {
		return a.JWKSURI
	}
	return keysource.CognitoURL(a.Region, a.UserPoolID)
}

// CertGen configures the certificate generator Lambda function.
type CertGen struct {
	Logging
}

// LoadAuthorizer reads the authorizer configuration from the environment.
// It fails if the region, user pool id or client id is missing or empty.
func LoadAuthorizer() (Authorizer, error) {
	var spec Authorizer
	if err := envconfig.Process(EnvPrefix, &spec); err != nil {
		return spec, err
	}
	var errs []error
	if spec.Region == "" {
		errs = append(errs, errors.New("config: region is empty"))
	}
	if spec.UserPoolID == "" {
		errs = append(errs, errors.New("config: user pool id is empty"))
	}
	if spec.ClientID == "" {
		errs = append(errs, errors.New("config: client id is empty"))
	}
	if spec.TokenHeader == "" {
		errs = append(errs, errors.New("config: token header is empty"))
	}
	return spec, errors.Join(errs...)
}

// LoadCertGen reads the certificate generator configuration from the environment.
func LoadCertGen() (CertGen, error) {
	var spec CertGen
	err := envconfig.Process(EnvPrefix, &spec)
	return spec, err
}

// SetupLogging configures JSON logging to stderr at the configured level and
// installs the logger as the slog default and the cognitoauthz logger.
func SetupLogging(l Logging) *slog.Logger {
	return setupLogging(os.Stderr, l)
}

func setupLogging(w io.Writer, l Logging) *slog.Logger {
	cognitoauthz.LogLevel.Set(l.LogLevel)
	opts := &slog.HandlerOptions{AddSource: l.LogSource, Level: cognitoauthz.LogLevel}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)
	cognitoauthz.SetLogger(logger)
	return logger
}
