package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalFallback(t *testing.T) {
	c, err := cache.NewCache(config.CacheConfig{})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "missing")
	assert.True(t, cache.IsNotFound(err))
}

func TestNewPubSub_LocalRelay(t *testing.T) {
	ps, err := cache.NewPubSub(config.CacheConfig{LocalPubSubBuf: 4})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "quest:9")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "quest:9", `{"event":"on_quest_complete"}`))
	select {
	case msg := <-ch:
		assert.Equal(t, "quest:9", msg.Channel)
		assert.JSONEq(t, `{"event":"on_quest_complete"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message relayed")
	}
}

func TestNewPubSub_CancelWithFullConsumer(t *testing.T) {
	ps, err := cache.NewPubSub(config.CacheConfig{LocalPubSubBuf: 512})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "quest:1")
	require.NoError(t, err)

	// Fill the relay buffer and leave the relay blocked on the next send.
	for i := 0; i < 300; i++ {
		require.NoError(t, ps.Publish(ctx, "quest:1", "x"))
	}
	cancel()
	cancel()

	// The relay gives up on its pending send and closes the channel.
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}
