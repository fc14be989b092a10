package cognitoauthz

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// SigningKey is a public key published by an identity provider.
// SigningKeys are immutable once fetched.
type SigningKey struct {
	// KeyID identifies the key within its key set.
	KeyID string
	// Algorithm is the JWS algorithm the key is used with, for example RS256.
	// It may be empty if the key set did not declare one.
	Algorithm string
	// Key is the raw public key, for example *rsa.PublicKey or *ecdsa.PublicKey.
	Key crypto.PublicKey
}

// KeySetProvider looks up signing keys by key id.
//
// A provider that fetches its keys remotely does so at most once per process.
// SigningKey returns false with a nil error when no key matches kid; callers
// must reject the token. A non-nil error wraps ErrKeySetFetch and means the
// provider has no keys at all.
type KeySetProvider interface {
	SigningKey(ctx context.Context, kid string) (SigningKey, bool, error)
}

// KeySetFetcher fetches a key set from wherever an identity provider publishes it.
type KeySetFetcher func(ctx context.Context) (KeySet, error)

// KeySet is an ordered, immutable snapshot of signing keys.
// A KeySet is itself a KeySetProvider and never returns an error.
type KeySet struct {
	keys []SigningKey
}

// NewStaticKeySet returns a KeySet holding keys in order.
func NewStaticKeySet(keys ...SigningKey) KeySet {
	return KeySet{keys: append([]SigningKey(nil), keys...)}
}

// ParseKeySet parses a JSON Web Key Set document.
func ParseKeySet(data []byte) (KeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return KeySet{}, fmt.Errorf("%w, error parsing jwks: %w", ErrKeySetFetch, err)
	}
	return NewKeySet(set)
}

// NewKeySet converts a parsed jwk.Set into a KeySet.
// Symmetric keys, encryption keys and keys without an id are skipped.
// A key set with duplicate key ids or no usable keys is rejected.
func NewKeySet(set jwk.Set) (KeySet, error) {
	seen := make(map[string]bool, set.Len())
	keys := make([]SigningKey, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		k, ok := set.Key(i)
		if !ok {
			continue
		}
		kid := k.KeyID()
		if kid == "" || k.KeyType() == jwa.OctetSeq || k.KeyUsage() == string(jwk.ForEncryption) {
			continue
		}
		if seen[kid] {
			return KeySet{}, fmt.Errorf("%w, duplicate key id %q", ErrKeySetFetch, kid)
		}
		seen[kid] = true

		raw, err := jwk.PublicRawKeyOf(k)
		if err != nil {
			return KeySet{}, fmt.Errorf("%w, key %q: %w", ErrKeySetFetch, kid, err)
		}
		var alg string
		if a := k.Algorithm(); a != nil {
			alg = a.String()
		}
		keys = append(keys, SigningKey{KeyID: kid, Algorithm: alg, Key: raw})
	}
	if len(keys) == 0 {
		return KeySet{}, fmt.Errorf("%w, no signing keys found", ErrKeySetFetch)
	}
	return KeySet{keys: keys}, nil
}

// Lookup returns the key whose id is kid.
func (ks KeySet) Lookup(kid string) (SigningKey, bool) {
	for _, k := range ks.keys {
		if k.KeyID == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// Len returns the number of keys in the set.
func (ks KeySet) Len() int {
	return len(ks.keys)
}

// KeyIDs returns the key ids in the set, in order.
func (ks KeySet) KeyIDs() []string {
	ids := make([]string, len(ks.keys))
	for i, k := range ks.keys {
		ids[i] = k.KeyID
	}
	return ids
}

// SigningKey implements KeySetProvider.
func (ks KeySet) SigningKey(_ context.Context, kid string) (SigningKey, bool, error) {
	k, ok := ks.Lookup(kid)
	return k, ok, nil
}

// KeySetCache is a KeySetProvider that fetches its key set once, on first use
// or on an explicit call to Load, and keeps it for the life of the process.
//
// The key set is never refreshed. If the identity provider rotates its keys,
// tokens signed with new keys fail with ErrUnknownKey until the process is replaced.
// A failed fetch is not retried; every later lookup returns the same error.
type KeySetCache struct {
	fetch KeySetFetcher

	once sync.Once
	keys KeySet
	err  error
}

// NewKeySetCache returns a KeySetCache that populates itself with fetch.
func NewKeySetCache(fetch KeySetFetcher) *KeySetCache {
	return &KeySetCache{fetch: fetch}
}

// Load fetches the key set if it has not been fetched yet.
// It returns the outcome of the one and only fetch.
func (c *KeySetCache) Load(ctx context.Context) error {
	c.once.Do(func() {
		c.keys, c.err = c.fetch(ctx)
		if c.err != nil {
			keySetFetches("error").Inc()
			if !errors.Is(c.err, ErrKeySetFetch) {
				c.err = fmt.Errorf("%w: %w", ErrKeySetFetch, c.err)
			}
			return
		}
		keySetFetches("ok").Inc()
		Logger().InfoContext(ctx, "key set loaded", "keys", c.keys.KeyIDs())
	})
	return c.err
}

// KeySet returns the cached key set, fetching it first if necessary.
func (c *KeySetCache) KeySet(ctx context.Context) (KeySet, error) {
	if err := c.Load(ctx); err != nil {
		return KeySet{}, err
	}
	return c.keys, nil
}

// SigningKey implements KeySetProvider.
// Lookups after the first fetch are in-memory scans.
func (c *KeySetCache) SigningKey(ctx context.Context, kid string) (SigningKey, bool, error) {
	ks, err := c.KeySet(ctx)
	if err != nil {
		return SigningKey{}, false, err
	}
	k, ok := ks.Lookup(kid)
	return k, ok, nil
}
