package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/RealImage/cognitoauthz/internal/config"
	"github.com/RealImage/cognitoauthz/internal/handlers"
	"github.com/RealImage/cognitoauthz/internal/sundry"
	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	spec, err := config.LoadCertGen()
	sundry.OnErrorExit(ctx, err, "error loading configuration")

	config.SetupLogging(spec.Logging)
	slog.InfoContext(ctx, "starting certificate generator",
		"revision", config.BuildRevision,
		"build_time", config.BuildTime,
	)

	lambda.Start(cfn.LambdaWrap(handlers.Certificate(time.Now)))
}
