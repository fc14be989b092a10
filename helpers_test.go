package cognitoauthz

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testKID      = "test-kid-1"
	testOtherKID = "test-kid-2"
	testClientID = "7d5c1b1f3q0test0client0id"
	testResource = "arn:aws:execute-api:us-east-1:123456789012:abcdef1234/prod/GET/widgets"
)

var (
	testNow = time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)

	testKeysOnce sync.Once
	testKey      *rsa.PrivateKey
	testOtherKey *rsa.PrivateKey
)

// testKeys returns two RSA keys shared by every test in the package.
func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		if testKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if testOtherKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
	})
	return testKey, testOtherKey
}

// testKeySet returns a KeySet holding the public halves of testKeys.
func testKeySet(t *testing.T) KeySet {
	t.Helper()
	k1, k2 := testKeys(t)
	return NewStaticKeySet(
		SigningKey{KeyID: testKID, Algorithm: "RS256", Key: &k1.PublicKey},
		SigningKey{KeyID: testOtherKID, Algorithm: "RS256", Key: &k2.PublicKey},
	)
}

// testJWKS returns a JSON Web Key Set document for the public halves of testKeys.
func testJWKS(t *testing.T) []byte {
	t.Helper()
	k1, k2 := testKeys(t)
	set := jwk.NewSet()
	for kid, key := range map[string]*rsa.PrivateKey{testKID: k1, testOtherKID: k2} {
		pub, err := jwk.FromRaw(&key.PublicKey)
		require.NoError(t, err)
		require.NoError(t, pub.Set(jwk.KeyIDKey, kid))
		require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))
		require.NoError(t, pub.Set(jwk.KeyUsageKey, jwk.ForSignature))
		require.NoError(t, set.AddKey(pub))
	}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	return data
}

// testClaims returns access token claims valid at testNow for testClientID.
func testClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "4f0e7c62-1b2a-4e0b-9c6b-6b7d1c2a3e4f",
			Issuer:    "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_TESTPOOL",
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-5 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		ClientID: testClientID,
		TokenUse: "access",
		Username: "heimdall",
	}
}

// signToken signs claims with key and places kid in the header unless it is empty.
func signToken(t *testing.T, method jwt.SigningMethod, key any, kid string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

// testToken returns a valid RS256 token signed by the first test key.
func testToken(t *testing.T) string {
	t.Helper()
	k1, _ := testKeys(t)
	return signToken(t, jwt.SigningMethodRS256, k1, testKID, testClaims())
}

func testECKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return k
}
