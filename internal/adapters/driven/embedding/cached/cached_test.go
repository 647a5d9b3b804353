package cached

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/logger"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text)), 1}, nil
}
func (s *stubProvider) Name() string    { return "stub" }
func (s *stubProvider) Dimensions() int { return 2 }

type mapCache struct {
	data   map[string][]float32
	getErr error
	setErr error
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]float32)} }

func (c *mapCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v []float32) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = v
	return nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &stubProvider{}
	cache := newMapCache()
	s := New(inner, cache)
	ctx := context.Background()

	first, err := s.Embed(ctx, "hello")
	require.NoError(t, err)
	second, err := s.Embed(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, cache.data, 1)
}

func TestKey_DependsOnProviderAndText(t *testing.T) {
	s := New(&stubProvider{}, newMapCache())

	assert.Equal(t, s.Key("a"), s.Key("a"))
	assert.NotEqual(t, s.Key("a"), s.Key("b"))
	assert.Contains(t, s.Key("a"), "stub:2:")
}

func TestEmbed_CacheErrorsAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	inner := &stubProvider{}

	vec, err := New(inner, cache).Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)
	assert.Contains(t, buf.String(), "cache read failed")
	assert.Contains(t, buf.String(), "cache write failed")
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	cache := newMapCache()
	_, err := New(&stubProvider{err: errors.New("boom")}, cache).Embed(context.Background(), "x")

	assert.Error(t, err)
	assert.Empty(t, cache.data)
}
