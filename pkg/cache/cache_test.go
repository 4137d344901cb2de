package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func TestMemoryRoundTripAndCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	in := page{Items: []string{"p1", "p2"}, Total: 2}
	require.NoError(t, c.Set(ctx, "catalog:dresses", in, time.Minute))
	in.Items[0] = "mutated"

	var out page
	require.True(t, c.Get(ctx, "catalog:dresses", &out))
	assert.Equal(t, page{Items: []string{"p1", "p2"}, Total: 2}, out)

	require.NoError(t, c.Del(ctx, "catalog:dresses"))
	assert.False(t, c.Get(ctx, "catalog:dresses", &out))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	var v int
	assert.True(t, c.Get(ctx, "k", &v))

	now = now.Add(2 * time.Second)
	assert.False(t, c.Get(ctx, "k", &v))
}

func TestNop(t *testing.T) {
	var c Store = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", 1, 0))
	var v int
	assert.False(t, c.Get(context.Background(), "k", &v))
}
