package cognitoauthz

import "errors"

// Errors.
//
// Every error except ErrKeySetFetch is scoped to one request and results in a
// Deny decision. ErrKeySetFetch means the process has no keys to verify with.
var (
	// ErrMalformedToken is returned when a token is not three base64url encoded JSON segments.
	ErrMalformedToken = errors.New("cognitoauthz: malformed token")

	// ErrKeyIDMissing is returned when a token header carries no key id.
	ErrKeyIDMissing = errors.New("cognitoauthz: key id missing")

	// ErrUnknownKey is returned when no key in the key set matches a token's key id.
	ErrUnknownKey = errors.New("cognitoauthz: unknown key")

	// ErrBadSignature is returned when a token's signature does not verify.
	ErrBadSignature = errors.New("cognitoauthz: bad signature")

	// ErrExpired is returned when a token has no expiry or has expired.
	ErrExpired = errors.New("cognitoauthz: token expired")

	// ErrAudienceMismatch is returned when a token was issued to a different client.
	ErrAudienceMismatch = errors.New("cognitoauthz: audience mismatch")

	// ErrKeySetFetch is returned when the key set cannot be fetched or parsed.
	ErrKeySetFetch = errors.New("cognitoauthz: key set fetch failed")

	// ErrInternal is returned for any unexpected failure while authorizing.
	ErrInternal = errors.New("cognitoauthz: internal error")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrMalformedToken, "malformed_token"},
	{ErrKeyIDMissing, "key_id_missing"},
	{ErrUnknownKey, "unknown_key"},
	{ErrBadSignature, "bad_signature"},
	{ErrExpired, "expired"},
	{ErrAudienceMismatch, "audience_mismatch"},
	{ErrKeySetFetch, "key_set_fetch"},
	{ErrInternal, "internal"},
}

// Reason returns a short label for err suitable for logs and metric labels.
// Errors outside the cognitoauthz set are labelled "internal", nil is "".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}

func isKnown(err error) bool {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return true
		}
	}
	return false
}
