package cognitoauthz

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// VerifiedClaims are claims from a token whose signature has been verified.
// The zero value holds no claims and fails validation.
type VerifiedClaims struct {
	claims Claims
}

// Claims returns the verified claims.
func (v VerifiedClaims) Claims() Claims {
	return v.claims
}

// Verifier verifies token signatures against keys from a KeySetProvider.
type Verifier struct {
	keys KeySetProvider
}

// NewVerifier returns a Verifier that resolves signing keys from keys.
func NewVerifier(keys KeySetProvider) *Verifier {
	return &Verifier{keys: keys}
}

// Verify checks the signature of token and returns its claims.
//
// The key is chosen by the token's key id. The signature is checked with the
// algorithm the key set declares for that key; a token whose header names a
// different algorithm is rejected.
//
// Verify returns ErrMalformedToken, ErrKeyIDMissing, ErrUnknownKey or
// ErrBadSignature for bad tokens and ErrKeySetFetch if no key set is available.
func (v *Verifier) Verify(ctx context.Context, token string) (VerifiedClaims, error) {
	t, err := parseToken(token)
	if err != nil {
		return VerifiedClaims{}, err
	}
	if t.header.KeyID == "" {
		return VerifiedClaims{}, ErrKeyIDMissing
	}

	key, ok, err := v.keys.SigningKey(ctx, t.header.KeyID)
	if err != nil {
		return VerifiedClaims{}, err
	}
	if !ok {
		return VerifiedClaims{}, fmt.Errorf("%w, kid %q", ErrUnknownKey, t.header.KeyID)
	}

	alg := key.Algorithm
	if alg == "" {
		alg = t.header.Algorithm
	}
	if alg != t.header.Algorithm {
		return VerifiedClaims{}, fmt.Errorf(
			"%w, token algorithm %s does not match key algorithm %s",
			ErrBadSignature,
			t.header.Algorithm,
			alg,
		)
	}
	if alg == jwt.SigningMethodNone.Alg() {
		return VerifiedClaims{}, fmt.Errorf("%w, unsigned token", ErrBadSignature)
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return VerifiedClaims{}, fmt.Errorf("%w, unsupported algorithm %s", ErrBadSignature, alg)
	}

	if err := method.Verify(t.signedContent, t.signature, key.Key); err != nil {
		return VerifiedClaims{}, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	return VerifiedClaims{claims: t.claims}, nil
}
