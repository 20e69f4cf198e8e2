package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/geocoder89/civicchain/internal/cache"
	"github.com/stretchr/testify/require"
)

func TestSetGetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.New[string](time.Minute).WithClock(func() time.Time { return now })

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestDelete(t *testing.T) {
	c := cache.New[int](time.Minute)

	c.Set("k", 1)
	c.Delete("k")

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestSetSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.New[bool](time.Minute).WithClock(func() time.Time { return now })

	for i := 0; i < 300; i++ {
		c.Set(fmt.Sprintf("proof-%d", i), true)
	}
	require.Equal(t, 300, c.Len())

	now = now.Add(2 * time.Minute)
	c.Set("fresh", true)

	require.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	require.True(t, ok)
}
