package refcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countryLoader(calls map[string]int) Loader[string, int64] {
	known := map[string]int64{"RU": 1, "BY": 2}
	return func(_ context.Context, code string) (int64, bool, error) {
		calls[code]++
		if code == "ERR" {
			return 0, false, errors.New("db down")
		}
		id, ok := known[code]
		return id, ok, nil
	}
}

func TestCache_HitIsMemoized(t *testing.T) {
	calls := map[string]int{}
	c := New(countryLoader(calls))
	ctx := context.Background()

	for range 3 {
		id, ok, err := c.Get(ctx, "RU")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1), id)
	}
	assert.Equal(t, 1, calls["RU"])
	assert.Equal(t, 1, c.Loads())
}

func TestCache_MissIsMemoized(t *testing.T) {
	calls := map[string]int{}
	c := New(countryLoader(calls))
	ctx := context.Background()

	for range 2 {
		id, ok, err := c.Get(ctx, "XX")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, id)
	}
	assert.Equal(t, 1, calls["XX"])
	assert.Equal(t, 1, c.Len())
}

func TestCache_ErrorIsNotMemoized(t *testing.T) {
	calls := map[string]int{}
	c := New(countryLoader(calls))
	ctx := context.Background()

	_, _, err := c.Get(ctx, "ERR")
	require.Error(t, err)
	_, _, err = c.Get(ctx, "ERR")
	require.Error(t, err)

	assert.Equal(t, 2, calls["ERR"])
	assert.Equal(t, 0, c.Len())
}

func TestCache_DistinctKeys(t *testing.T) {
	calls := map[string]int{}
	c := New(countryLoader(calls))
	ctx := context.Background()

	_, _, _ = c.Get(ctx, "RU")
	_, _, _ = c.Get(ctx, "BY")
	_, _, _ = c.Get(ctx, "RU")

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Loads())
}

func TestCache_MissZeroesValue(t *testing.T) {
	c := New(func(context.Context, string) (string, bool, error) {
		return "stale", false, nil
	})
	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", v)
}
