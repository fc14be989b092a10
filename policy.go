package cognitoauthz

import "github.com/aws/aws-lambda-go/events"

// Effect is the effect of an IAM policy statement.
type Effect string

// Policy effects.
// EffectNone means no decision was made; it builds a policy with no statement.
const (
	EffectNone  Effect = ""
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"
)

// BuildPolicy returns the authorizer response for principalID.
//
// EffectAllow and EffectDeny produce a policy document with exactly one
// statement granting or denying execute-api:Invoke on resource.
// EffectNone produces a response carrying only the principal; API Gateway
// treats the missing statement as a deny.
func BuildPolicy(principalID, resource string, effect Effect) events.APIGatewayCustomAuthorizerResponse {
	resp := events.APIGatewayCustomAuthorizerResponse{PrincipalID: principalID}
	if effect == EffectNone {
		return resp
	}
	resp.PolicyDocument = events.APIGatewayCustomAuthorizerPolicy{
		Version: policyVersion,
		Statement: []events.IAMPolicyStatement{
			{
				Action:   []string{invokeAction},
				Effect:   string(effect),
				Resource: []string{resource},
			},
		},
	}
	return resp
}
