package vision

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// CacheStore is the slice of the storage layer the cache needs. A miss is
// reported as an empty response with nil error.
type CacheStore interface {
	GetVisionCache(hash string) (string, error)
	SetVisionCache(hash, response string) error
}

// CachedClient wraps a Client with response caching so repeated analyses of
// the same photo do not burn tokens. Keys cover provider, prompt and image
// bytes since the response depends on all three.
type CachedClient struct {
	inner Client
	store CacheStore
}

func NewCachedClient(inner Client, store CacheStore) *CachedClient {
	return &CachedClient{inner: inner, store: store}
}

func (c *CachedClient) Name() string {
	return c.inner.Name()
}

// cacheKey creates a SHA256 hash over all call inputs.
// Includes a length prefix per part to prevent boundary collisions.
func cacheKey(provider, prompt string, imageJPEG []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(provider), []byte(prompt), imageJPEG} {
		binary.Write(h, binary.LittleEndian, int64(len(part)))
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Invoke implements Client with caching. Cache failures never fail the
// call; the worst case is an extra model invocation.
func (c *CachedClient) Invoke(ctx context.Context, imageJPEG []byte, prompt string) (string, error) {
	hash := cacheKey(c.inner.Name(), prompt, imageJPEG)

	if c.store != nil {
		cached, err := c.store.GetVisionCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check vision cache")
		} else if cached != "" {
			log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
			return cached, nil
		}
	}

	text, err := c.inner.Invoke(ctx, imageJPEG, prompt)
	if err != nil {
		return "", err
	}

	if c.store != nil && text != "" {
		if err := c.store.SetVisionCache(hash, text); err != nil {
			log.Warn().Err(err).Msg("failed to cache vision response")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached vision response")
		}
	}

	return text, nil
}
