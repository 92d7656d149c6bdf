package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:abc", "1", 0))
	v, err := c.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "intake:1", "{}", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "intake:1")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "intake:1")
	assert.False(t, ok)
}

func TestDelAndExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)
	_ = c.Del(ctx, "k")
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock:generate:1", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock:generate:1", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail")

	_ = c.Del(ctx, "lock:generate:1")
	ok, _ = c.SetNX(ctx, "lock:generate:1", "3", time.Minute)
	assert.True(t, ok)
}

func TestSetNX_ExpiredKeyIsFree(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_, _ = c.SetNX(ctx, "lock", "1", 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	ok, _ := c.SetNX(ctx, "lock", "2", time.Minute)
	assert.True(t, ok)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Expire(ctx, "nope", time.Second), ErrNotFound)

	_ = c.Set(ctx, "k", "v", 0)
	require.NoError(t, c.Expire(ctx, "k", 5*time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncr(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = c.Incr(ctx, "count")
	assert.Equal(t, int64(2), n)

	_ = c.Set(ctx, "bad", "x", 0)
	_, err = c.Incr(ctx, "bad")
	assert.Error(t, err)
}

func TestSetOps(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SAdd(ctx, "sse:online", "1", "2", "2"))
	n, _ := c.SCard(ctx, "sse:online")
	assert.Equal(t, int64(2), n)

	ok, _ := c.SIsMember(ctx, "sse:online", "1")
	assert.True(t, ok)

	require.NoError(t, c.SRem(ctx, "sse:online", "1", "2"))
	n, _ = c.SCard(ctx, "sse:online")
	assert.Equal(t, int64(0), n)
}

func TestCloseTwice(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	c.Close()
	assert.NotPanics(t, c.Close)
}
