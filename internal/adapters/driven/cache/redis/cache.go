// Package redis provides an EmbeddingCache shared across processes through Redis.
package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "recall:emb:"

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// Cache stores vectors as little-endian float32 strings with an expiry.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// New connects to addr and verifies the server answers.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached vector. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, false, nil
	}
	return decode(data), true, nil
}

// Set stores vector under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, vector []float32) error {
	if err := c.client.Set(ctx, keyPrefix+key, encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
