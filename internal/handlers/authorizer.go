package handlers

import (
	"context"
	"strings"

	"github.com/RealImage/cognitoauthz"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// AuthorizerFunc handles API Gateway REQUEST authorizer events.
type AuthorizerFunc func(
	context.Context,
	events.APIGatewayCustomAuthorizerRequestTypeRequest,
) (events.APIGatewayCustomAuthorizerResponse, error)

// Authorizer returns a Lambda handler that reads a Cognito token from the
// named request header and answers with the policy a decides on.
//
// The handler always returns a nil error. Denied requests get a Deny policy
// so API Gateway responds 403 rather than 500.
func Authorizer(a *cognitoauthz.Authorizer, header string) AuthorizerFunc {
	return func(
		ctx context.Context,
		event events.APIGatewayCustomAuthorizerRequestTypeRequest,
	) (events.APIGatewayCustomAuthorizerResponse, error) {
		token := TokenFromHeaders(event.Headers, header)

		logger := cognitoauthz.Logger()
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			logger = logger.With("request_id", lc.AwsRequestID)
		}
		logger.DebugContext(ctx, "authorizing request",
			"method_arn", event.MethodArn,
			"token_present", token != "",
		)

		d := a.Authorize(ctx, cognitoauthz.Request{
			Token:    token,
			Resource: event.MethodArn,
		})
		return d.Policy(), nil
	}
}

// TokenFromHeaders returns the value of header in headers, with any Bearer
// prefix removed. An exact match on the header name wins over a
// case-insensitive one.
func TokenFromHeaders(headers map[string]string, header string) string {
	v, ok := headers[header]
	if !ok {
		for k, hv := range headers {
			if strings.EqualFold(k, header) {
				v = hv
				break
			}
		}
	}
	v = strings.TrimSpace(v)
	if len(v) > len("Bearer ") && strings.EqualFold(v[:len("Bearer ")], "Bearer ") {
		v = strings.TrimSpace(v[len("Bearer "):])
	}
	return v
}
