// Package keysource fetches JSON Web Key Sets from the places they are published.
// Key sets can be fetched over HTTPS, from the local filesystem, AWS S3, or AWS Secrets Manager.
package keysource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/RealImage/cognitoauthz"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const fetchTimeout = time.Minute

// CognitoURL returns the JWKS URL of a Cognito user pool.
func CognitoURL(region, userPoolID string) string {
	return fmt.Sprintf(
		"https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json",
		region,
		userPoolID,
	)
}

type options struct {
	httpClient *http.Client
	s3         S3API
	secrets    SecretsAPI
}

// Option configures where a fetcher gets its clients from.
type Option func(*options)

// WithHTTPClient sets the client used for https:// key sets.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithS3Client sets the client used for S3 key sets.
func WithS3Client(c S3API) Option {
	return func(o *options) {
		o.s3 = c
	}
}

// WithSecretsClient sets the client used for Secrets Manager key sets.
func WithSecretsClient(c SecretsAPI) Option {
	return func(o *options) {
		o.secrets = c
	}
}

// Fetcher returns a KeySetFetcher for uri.
// uri can be an https:// URL, a relative or absolute file path, a file://... uri,
// an s3://bucket/key uri, or an AWS S3 or AWS Secrets Manager ARN.
// Plain http:// URLs are rejected.
// The uri is checked when Fetcher is called; nothing is fetched until the
// returned function is.
func Fetcher(uri string, opts ...Option) (cognitoauthz.KeySetFetcher, error) {
	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.HasPrefix(uri, "arn:") {
		parsed, err := arn.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("error parsing arn: %w", err)
		}
		switch svc := parsed.Service; svc {
		case "s3":
			bucket, key, ok := strings.Cut(parsed.Resource, "/")
			if !ok || bucket == "" || key == "" {
				return nil, fmt.Errorf("s3 arn %s does not name an object", uri)
			}
			return parsedFetcher(uri, func(ctx context.Context) ([]byte, error) {
				return getS3Object(ctx, o.s3, bucket, key)
			}), nil
		case "secretsmanager":
			return parsedFetcher(uri, func(ctx context.Context) ([]byte, error) {
				return getSecret(ctx, o.secrets, uri)
			}), nil
		default:
			return nil, fmt.Errorf("cannot load key set from %s", svc)
		}
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("error parsing key set uri: %w", err)
	}
	switch s := u.Scheme; s {
	case "https":
		return httpsFetcher(uri, o.httpClient), nil
	case "s3":
		bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("s3 uri %s does not name an object", uri)
		}
		return parsedFetcher(uri, func(ctx context.Context) ([]byte, error) {
			return getS3Object(ctx, o.s3, bucket, key)
		}), nil
	case "", "file":
		path := u.Path
		if s == "" {
			path = uri
		}
		return parsedFetcher(uri, func(context.Context) ([]byte, error) {
			return os.ReadFile(path)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported key set uri scheme %q", s)
	}
}

// Fetch fetches and parses the key set at uri.
func Fetch(ctx context.Context, uri string, opts ...Option) (cognitoauthz.KeySet, error) {
	fetch, err := Fetcher(uri, opts...)
	if err != nil {
		return cognitoauthz.KeySet{}, err
	}
	return fetch(ctx)
}

func httpsFetcher(uri string, client *http.Client) cognitoauthz.KeySetFetcher {
	return func(ctx context.Context) (cognitoauthz.KeySet, error) {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		cognitoauthz.Logger().DebugContext(ctx, "fetching key set", "uri", uri)
		set, err := jwk.Fetch(ctx, uri, jwk.WithHTTPClient(client))
		if err != nil {
			return cognitoauthz.KeySet{}, fmt.Errorf("%w, error fetching %s: %w", cognitoauthz.ErrKeySetFetch, uri, err)
		}
		return cognitoauthz.NewKeySet(set)
	}
}

func parsedFetcher(uri string, get func(context.Context) ([]byte, error)) cognitoauthz.KeySetFetcher {
	return func(ctx context.Context) (cognitoauthz.KeySet, error) {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		cognitoauthz.Logger().DebugContext(ctx, "fetching key set", "uri", uri)
		data, err := get(ctx)
		if err != nil {
			return cognitoauthz.KeySet{}, fmt.Errorf("%w, error fetching %s: %w", cognitoauthz.ErrKeySetFetch, uri, err)
		}
		return cognitoauthz.ParseKeySet(data)
	}
}
