package cognitoauthz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// DefaultPrincipalID is the principal id placed in every policy unless
// overridden with WithPrincipalID.
const DefaultPrincipalID = "user"

// State is a step of the authorization state machine.
type State int

// States, in the order a successful request passes through them.
// StateRejected absorbs every failure.
const (
	StateReceived State = iota
	StateHeaderParsed
	StateSignatureVerified
	StateClaimsValidated
	StateDecisionBuilt
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateHeaderParsed:
		return "header_parsed"
	case StateSignatureVerified:
		return "signature_verified"
	case StateClaimsValidated:
		return "claims_validated"
	case StateDecisionBuilt:
		return "decision_built"
	case StateRejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Request asks whether Token may invoke Resource.
type Request struct {
	Token string
	// Resource is the ARN of the API method being called.
	Resource string
}

// Decision is the outcome of an authorization request.
type Decision struct {
	PrincipalID string
	Effect      Effect
	Resource    string

	// State is StateDecisionBuilt for allowed requests and StateRejected otherwise.
	State State
	// Err is why the request was rejected, nil if it was allowed.
	Err error
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.State == StateDecisionBuilt && d.Effect == EffectAllow
}

// Policy returns the decision as an API Gateway authorizer response.
func (d Decision) Policy() events.APIGatewayCustomAuthorizerResponse {
	return BuildPolicy(d.PrincipalID, d.Resource, d.Effect)
}

// Authorizer decides whether requests carrying Cognito tokens may invoke API methods.
// An Authorizer holds no per-request state and is safe for concurrent use.
type Authorizer struct {
	verifier    *Verifier
	audience    string
	principalID string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithPrincipalID sets the principal id placed in policies.
func WithPrincipalID(id string) Option {
	return func(a *Authorizer) {
		a.principalID = id
	}
}

// WithClock sets the function used to read the current time when checking expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Authorizer) {
		a.now = now
	}
}

// WithLogger sets the logger used to record decisions.
// By default the package Logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authorizer) {
		a.logger = l
	}
}

// NewAuthorizer returns an Authorizer that verifies tokens with keys and
// accepts only tokens issued to audience.
func NewAuthorizer(keys KeySetProvider, audience string, opts ...Option) *Authorizer {
	a := &Authorizer{
		verifier:    NewVerifier(keys),
		audience:    audience,
		principalID: DefaultPrincipalID,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize decides req.
//
// The token is parsed, its signature verified and its claims validated, in
// that order. Only a request that passes every step is allowed. Any failure,
// including a panic, produces a Deny decision with Err set; Authorize never
// allows by default.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (d Decision) {
	start := time.Now()
	d = Decision{
		PrincipalID: a.principalID,
		Effect:      EffectDeny,
		Resource:    req.Resource,
		State:       StateReceived,
	}

	defer func() {
		if r := recover(); r != nil {
			d = a.reject(d, fmt.Errorf("%w: %v", ErrInternal, r))
		}
		a.record(ctx, d)
		authorizeDuration.UpdateDuration(start)
	}()

	if _, err := ParseHeader(req.Token); err != nil {
		return a.reject(d, err)
	}
	d.State = StateHeaderParsed

	claims, err := a.verifier.Verify(ctx, req.Token)
	if err != nil {
		return a.reject(d, err)
	}
	d.State = StateSignatureVerified

	if err := ValidateClaims(claims, a.audience, a.now()); err != nil {
		return a.reject(d, err)
	}
	d.State = StateClaimsValidated

	d.Effect = EffectAllow
	d.State = StateDecisionBuilt
	return d
}

func (a *Authorizer) reject(d Decision, err error) Decision {
	if !isKnown(err) {
		err = fmt.Errorf("%w: %w", ErrInternal, err)
	}
	d.Effect = EffectDeny
	d.State = StateRejected
	d.Err = err
	return d
}

func (a *Authorizer) record(ctx context.Context, d Decision) {
	l := a.logger
	if l == nil {
		l = Logger()
	}
	decisions(d.Effect).Inc()
	if d.Err == nil {
		l.InfoContext(ctx, "request allowed",
			"principal", d.PrincipalID,
			"resource", d.Resource,
		)
		return
	}
	reason := Reason(d.Err)
	rejections(reason).Inc()
	level := slog.LevelInfo
	if reason == "internal" || reason == "key_set_fetch" {
		level = slog.LevelError
	}
	l.Log(ctx, level, "request denied",
		"principal", d.PrincipalID,
		"resource", d.Resource,
		"reason", reason,
		"error", d.Err,
	)
}
