package cognitoauthz

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	v := NewVerifier(testKeySet(t))
	claims, err := v.Verify(context.Background(), testToken(t))
	require.NoError(t, err)
	assert.Equal(t, testClientID, claims.Claims().ClientID)
}

func TestVerify_SecondKey(t *testing.T) {
	_, k2 := testKeys(t)
	token := signToken(t, jwt.SigningMethodRS256, k2, testOtherKID, testClaims())
	_, err := NewVerifier(testKeySet(t)).Verify(context.Background(), token)
	require.NoError(t, err)
}

func TestVerify_Failures(t *testing.T) {
	k1, k2 := testKeys(t)
	ec := testECKey(t)
	good := testToken(t)
	parts := strings.Split(good, ".")

	// Same header and signature, claims re-encoded with a different client.
	tampered := testClaims()
	tampered.ClientID = "someone-else"
	tamperedParts := strings.Split(signToken(t, jwt.SigningMethodRS256, k1, testKID, tampered), ".")

	hs256 := signToken(t, jwt.SigningMethodHS256, []byte("secret"), testKID, testClaims())
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims()).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	// Put a kid into the unsigned token's header.
	noneHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","kid":"` + testKID + `","typ":"JWT"}`))
	unsigned = noneHeader + "." + strings.Split(unsigned, ".")[1] + "."

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"malformed", "not.a.token", ErrMalformedToken},
		{"no kid", signToken(t, jwt.SigningMethodRS256, k1, "", testClaims()), ErrKeyIDMissing},
		{"unknown kid", signToken(t, jwt.SigningMethodRS256, k1, "rotated", testClaims()), ErrUnknownKey},
		{"signed by another key", signToken(t, jwt.SigningMethodRS256, k2, testKID, testClaims()), ErrBadSignature},
		{"claims swapped", parts[0] + "." + tamperedParts[1] + "." + parts[2], ErrBadSignature},
		{"signature truncated", parts[0] + "." + parts[1] + "." + parts[2][:20], ErrBadSignature},
		{"signature not base64", parts[0] + "." + parts[1] + ".***", ErrMalformedToken},
		{"algorithm differs from key", hs256, ErrBadSignature},
		{"ecdsa for rsa key", signToken(t, jwt.SigningMethodES256, ec, testKID, testClaims()), ErrBadSignature},
		{"unsigned", unsigned, ErrBadSignature},
	}
	v := NewVerifier(testKeySet(t))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerify_KeyWithoutAlgorithm(t *testing.T) {
	k1, _ := testKeys(t)
	keys := NewStaticKeySet(SigningKey{KeyID: testKID, Key: &k1.PublicKey})
	v := NewVerifier(keys)

	_, err := v.Verify(context.Background(), testToken(t))
	require.NoError(t, err)

	// An HMAC token cannot be verified with an RSA public key.
	hs256 := signToken(t, jwt.SigningMethodHS256, []byte("secret"), testKID, testClaims())
	_, err = v.Verify(context.Background(), hs256)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_ValidSignatureStillVerifiesExpiredToken(t *testing.T) {
	k1, _ := testKeys(t)
	c := testClaims()
	c.ExpiresAt = jwt.NewNumericDate(testNow.AddDate(-1, 0, 0))
	_, err := NewVerifier(testKeySet(t)).
		Verify(context.Background(), signToken(t, jwt.SigningMethodRS256, k1, testKID, c))
	require.NoError(t, err)
}

type failingProvider struct{}

func (failingProvider) SigningKey(context.Context, string) (SigningKey, bool, error) {
	return SigningKey{}, false, errors.Join(ErrKeySetFetch, errors.New("no route to host"))
}

func TestVerify_ProviderError(t *testing.T) {
	_, err := NewVerifier(failingProvider{}).Verify(context.Background(), testToken(t))
	require.ErrorIs(t, err, ErrKeySetFetch)
}

// signWithHeader signs claims with the first test key under a hand-written header.
func signWithHeader(t *testing.T, header string, claims Claims) string {
	t.Helper()
	k1, _ := testKeys(t)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	signed := base64.RawURLEncoding.EncodeToString([]byte(header)) + "." +
		base64.RawURLEncoding.EncodeToString(payload)
	sig, err := jwt.SigningMethodRS256.Sign(signed, k1)
	require.NoError(t, err)
	return signed + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func TestVerify_HeaderAlgorithm(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty header", `{}`, ErrKeyIDMissing},
		{"unknown alg without kid", `{"alg":"RS999"}`, ErrKeyIDMissing},
		{"unknown alg with unknown kid", `{"alg":"RS999","kid":"rotated"}`, ErrUnknownKey},
		{"no alg with unknown kid", `{"kid":"rotated"}`, ErrUnknownKey},
		{"no alg", `{"kid":"` + testKID + `"}`, ErrBadSignature},
		{"unknown alg", `{"alg":"RS999","kid":"` + testKID + `"}`, ErrBadSignature},
		{"alg differs from key", `{"alg":"RS512","kid":"` + testKID + `"}`, ErrBadSignature},
	}
	v := NewVerifier(testKeySet(t))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), signWithHeader(t, tc.header, testClaims()))
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := v.Verify(context.Background(),
		signWithHeader(t, `{"alg":"RS256","kid":"`+testKID+`"}`, testClaims()))
	require.NoError(t, err)
}

func TestVerify_UnknownAlgorithmOnKeyWithoutAlgorithm(t *testing.T) {
	k1, _ := testKeys(t)
	v := NewVerifier(NewStaticKeySet(SigningKey{KeyID: testKID, Key: &k1.PublicKey}))

	_, err := v.Verify(context.Background(),
		signWithHeader(t, `{"alg":"RS999","kid":"`+testKID+`"}`, testClaims()))
	require.ErrorIs(t, err, ErrBadSignature)

	_, err = v.Verify(context.Background(), signWithHeader(t, `{"kid":"`+testKID+`"}`, testClaims()))
	require.ErrorIs(t, err, ErrBadSignature)
}
