package connresolve

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sync/singleflight"

	"github.com/r3e-network/datalake-ingestion/internal/secretstore"
)

type cacheEntry struct {
	nonce   []byte
	sealed  []byte
	expires time.Time
}

// secretCache is a process-wide, concurrency-safe cache with an absolute
// TTL and single-flighted fetches per key. Cached plaintext is sealed with
// chacha20poly1305 under a process-lifetime key so a heap dump doesn't
// trivially reveal resolved secrets.
type secretCache struct {
	ttl   time.Duration
	aead  cipher.AEAD
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newSecretCache(ttl time.Duration) *secretCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	var key [chacha20poly1305.KeySize]byte
	_, _ = rand.Read(key[:])
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		// KeySize is fixed and correct; this can only fail on a corrupt key.
		panic(fmt.Sprintf("connresolve: aead init: %v", err))
	}
	return &secretCache{
		ttl:     ttl,
		aead:    aead,
		entries: map[string]cacheEntry{},
	}
}

func (c *secretCache) get(ctx context.Context, path string, client secretstore.Client) (string, error) {
	if v, ok := c.lookup(path); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		if v, ok := c.lookup(path); ok {
			return v, nil
		}
		value, err := client.GetSecret(ctx, path)
		if err != nil {
			return "", err
		}
		c.store(path, value)
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *secretCache) lookup(path string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return "", false
	}
	plain, err := c.aead.Open(nil, entry.nonce, entry.sealed, nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

func (c *secretCache) store(path, value string) {
	nonce := make([]byte, c.aead.NonceSize())
	_, _ = rand.Read(nonce)
	sealed := c.aead.Seal(nil, nonce, []byte(value), nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{
		nonce:   nonce,
		sealed:  sealed,
		expires: time.Now().Add(c.ttl),
	}
}
