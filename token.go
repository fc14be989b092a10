package cognitoauthz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Header is the unverified header of a token.
type Header struct {
	KeyID     string
	Algorithm string
}

// Claims is the unverified payload of a Cognito token.
// Claims must not be trusted until the token's signature has been verified;
// see Verifier.
type Claims struct {
	jwt.RegisteredClaims

	// ClientID is the app client a Cognito access token was issued to.
	// ID tokens carry the client in the aud claim instead.
	ClientID string `json:"client_id,omitempty"`
	// TokenUse is "access" or "id".
	TokenUse string `json:"token_use,omitempty"`
	Username string `json:"cognito:username,omitempty"`
}

var parser = jwt.NewParser()

// rawToken is a token split into its decoded parts, none of them verified.
type rawToken struct {
	header Header
	claims Claims

	// signedContent is the header and claims segments exactly as they appear
	// in the token, joined by a dot.
	signedContent string
	signature     []byte
}

// parseToken decodes the three segments of token. Only the segment count,
// base64url and JSON are checked; alg and kid are left to the verifier.
func parseToken(token string) (*rawToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w, %d segments", ErrMalformedToken, len(parts))
	}

	var header struct {
		KeyID     string `json:"kid"`
		Algorithm string `json:"alg"`
	}
	if err := decodeSegment(parts[0], &header); err != nil {
		return nil, fmt.Errorf("%w, header: %w", ErrMalformedToken, err)
	}
	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, fmt.Errorf("%w, claims: %w", ErrMalformedToken, err)
	}
	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w, signature: %w", ErrMalformedToken, err)
	}

	return &rawToken{
		header:        Header{KeyID: header.KeyID, Algorithm: header.Algorithm},
		claims:        claims,
		signedContent: parts[0] + "." + parts[1],
		signature:     sig,
	}, nil
}

func decodeSegment(seg string, v any) error {
	data, err := parser.DecodeSegment(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ParseHeader decodes the header of token without verifying anything.
// It returns ErrMalformedToken if token is not three base64url segments, the
// first two of them JSON objects.
func ParseHeader(token string) (Header, error) {
	t, err := parseToken(token)
	if err != nil {
		return Header{}, err
	}
	return t.header, nil
}

// ParseClaims decodes the claims of token without verifying anything.
// It returns ErrMalformedToken if token is not three base64url segments, the
// first two of them JSON objects.
func ParseClaims(token string) (Claims, error) {
	t, err := parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	return t.claims, nil
}
