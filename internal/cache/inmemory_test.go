package cache

import (
	"context"
	"testing"
	"time"

	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCacheAdd(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(&config.Configuration{})
	key := GenerateKey(PrefixEntitlementEvent, "evt_1")

	assert.Equal(t, "entitlement_event:v1::evt_1", key)
	assert.True(t, c.Add(ctx, key, true, 0))
	assert.False(t, c.Add(ctx, key, true, 0))

	c.Delete(ctx, key)
	assert.True(t, c.Add(ctx, key, true, 0))
}

func TestInMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(nil)

	c.Set(ctx, "k", "v", 20*time.Millisecond)
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.True(t, c.Add(ctx, "k", "v2", time.Minute))
}

func TestInMemoryCacheFlush(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(nil)
	c.Set(ctx, "a", 1, 0)
	c.Flush(ctx)
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}
