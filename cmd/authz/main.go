package main

import (
	"context"
	"log/slog"

	"github.com/RealImage/cognitoauthz"
	"github.com/RealImage/cognitoauthz/internal/config"
	"github.com/RealImage/cognitoauthz/internal/handlers"
	"github.com/RealImage/cognitoauthz/internal/sundry"
	"github.com/RealImage/cognitoauthz/keysource"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	spec, err := config.LoadAuthorizer()
	sundry.OnErrorExit(ctx, err, "error loading configuration")

	config.SetupLogging(spec.Logging)
	slog.InfoContext(ctx, "starting cognito authorizer",
		"revision", config.BuildRevision,
		"build_time", config.BuildTime,
		"user_pool_id", spec.UserPoolID,
		"token_header", spec.TokenHeader,
	)

	uri := spec.KeySetURI()
	fetch, err := keysource.Fetcher(uri)
	sundry.OnErrorExit(ctx, err, "error configuring key set source")

	keys := cognitoauthz.NewKeySetCache(fetch)
	err = keys.Load(ctx)
	sundry.OnErrorExit(ctx, err, "error loading key set from "+uri)

	authz := cognitoauthz.NewAuthorizer(keys, spec.ClientID,
		cognitoauthz.WithPrincipalID(spec.PrincipalID),
	)
	lambda.Start(handlers.Authorizer(authz, spec.TokenHeader))
}
