package cognitoauthz

import (
	"fmt"
	"time"
)

// ValidateClaims checks that claims have not expired at now and were issued
// to audience.
//
// The expiry is checked first: a token without an exp claim, or with one
// before now, fails with ErrExpired whatever its audience. The audience is the
// aud claim when present (Cognito ID tokens) and the client_id claim otherwise
// (Cognito access tokens). It must equal audience exactly, or ValidateClaims
// fails with ErrAudienceMismatch. No other claims are inspected.
func ValidateClaims(claims VerifiedClaims, audience string, now time.Time) error {
	c := claims.claims

	if c.ExpiresAt == nil {
		return fmt.Errorf("%w, no exp claim", ErrExpired)
	}
	if exp := c.ExpiresAt.Time; now.After(exp) {
		return fmt.Errorf("%w at %s", ErrExpired, exp.UTC().Format(time.RFC3339))
	}

	if audience == "" {
		return fmt.Errorf("%w, no audience expected", ErrAudienceMismatch)
	}
	if len(c.Audience) > 0 {
		for _, aud := range c.Audience {
			if aud == audience {
				return nil
			}
		}
		return fmt.Errorf("%w, aud %v", ErrAudienceMismatch, []string(c.Audience))
	}
	if c.ClientID != audience {
		return fmt.Errorf("%w, client_id %q", ErrAudienceMismatch, c.ClientID)
	}
	return nil
}
