package keysource

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/RealImage/cognitoauthz"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKID = "keysource-test-kid"

func testJWKS(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, testKID))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	data, err := json.Marshal(set)
	require.NoError(t, err)
	return data
}

func requireTestKey(t *testing.T, ks cognitoauthz.KeySet) {
	t.Helper()
	assert.Equal(t, []string{testKID}, ks.KeyIDs())
	k, ok := ks.Lookup(testKID)
	require.True(t, ok)
	assert.Equal(t, "RS256", k.Algorithm)
	assert.IsType(t, &rsa.PublicKey{}, k.Key)
}

func TestCognitoURL(t *testing.T) {
	assert.Equal(t,
		"https://cognito-idp.us-east-1.amazonaws.com/us-east-1_AbCdEf123/.well-known/jwks.json",
		CognitoURL("us-east-1", "us-east-1_AbCdEf123"),
	)
}

func TestFetch_HTTPS(t *testing.T) {
	jwks := testJWKS(t)
	var requests int
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/us-east-1_pool/.well-known/jwks.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	}))
	defer srv.Close()

	fetch, err := Fetcher(srv.URL+"/us-east-1_pool/.well-known/jwks.json", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	cache := cognitoauthz.NewKeySetCache(fetch)
	ks, err := cache.KeySet(context.Background())
	require.NoError(t, err)
	requireTestKey(t, ks)

	_, ok, err := cache.SigningKey(context.Background(), testKID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, requests)
}

func TestFetch_HTTPSErrors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"User pool does not exist"}`, http.StatusNotFound)
		},
		"not json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>hello</html>"))
		},
		"no keys": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"keys":[]}`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewTLSServer(h)
			defer srv.Close()
			_, err := Fetch(context.Background(), srv.URL, WithHTTPClient(srv.Client()))
			require.ErrorIs(t, err, cognitoauthz.ErrKeySetFetch)
		})
	}
}

func TestFetch_UntrustedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer srv.Close()

	// The default client does not trust the test server's certificate.
	_, err := Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, cognitoauthz.ErrKeySetFetch)
}

func TestFetch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, testJWKS(t), 0o600))

	for _, uri := range []string{path, "file://" + path} {
		ks, err := Fetch(context.Background(), uri)
		require.NoError(t, err, uri)
		requireTestKey(t, ks)
	}

	_, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, cognitoauthz.ErrKeySetFetch)
}

type fakeS3 struct {
	bucket, key string
	body        []byte
}

func (f *fakeS3) GetObject(
	_ context.Context,
	in *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	if f.body == nil {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestFetch_S3(t *testing.T) {
	jwks := testJWKS(t)
	for _, uri := range []string{
		"s3://auth-config/pools/us-east-1_pool/jwks.json",
		"arn:aws:s3:::auth-config/pools/us-east-1_pool/jwks.json",
	} {
		t.Run(uri, func(t *testing.T) {
			client := &fakeS3{body: jwks}
			ks, err := Fetch(context.Background(), uri, WithS3Client(client))
			require.NoError(t, err)
			requireTestKey(t, ks)
			assert.Equal(t, "auth-config", client.bucket)
			assert.Equal(t, "pools/us-east-1_pool/jwks.json", client.key)
		})
	}

	_, err := Fetch(context.Background(), "s3://auth-config/jwks.json", WithS3Client(&fakeS3{}))
	require.ErrorIs(t, err, cognitoauthz.ErrKeySetFetch)
}

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
}

func (f fakeSecrets) GetSecretValue(
	_ context.Context,
	_ *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	return f.out, nil
}

func TestFetch_SecretsManager(t *testing.T) {
	const uri = "arn:aws:secretsmanager:us-east-1:123456789012:secret:cognito-jwks-AbCdEf"
	jwks := testJWKS(t)

	ks, err := Fetch(context.Background(), uri,
		WithSecretsClient(fakeSecrets{&secretsmanager.GetSecretValueOutput{SecretString: aws.String(string(jwks))}}))
	require.NoError(t, err)
	requireTestKey(t, ks)

	ks, err = Fetch(context.Background(), uri,
		WithSecretsClient(fakeSecrets{&secretsmanager.GetSecretValueOutput{SecretBinary: jwks}}))
	require.NoError(t, err)
	requireTestKey(t, ks)

	_, err = Fetch(context.Background(), uri,
		WithSecretsClient(fakeSecrets{&secretsmanager.GetSecretValueOutput{}}))
	require.ErrorIs(t, err, cognitoauthz.ErrKeySetFetch)
}

func TestFetcher_BadURIs(t *testing.T) {
	for _, uri := range []string{
		"http://cognito-idp.us-east-1.amazonaws.com/pool/.well-known/jwks.json",
		"ftp://example.com/jwks.json",
		"s3://bucket-only",
		"arn:aws:s3:::bucket-only",
		"arn:aws:dynamodb:us-east-1:123456789012:table/keys",
		"arn:nonsense",
		"::not a uri",
	} {
		_, err := Fetcher(uri)
		assert.Error(t, err, uri)
	}
}
