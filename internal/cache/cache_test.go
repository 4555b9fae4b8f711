package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countingLoader(value interface{}) (Loader, *int) {
	calls := new(int)
	return func() (interface{}, error) {
		*calls++
		return value, nil
	}, calls
}

func TestGet_ReadThrough(t *testing.T) {
	c := New(NewMemoryStore(time.Hour), time.Hour, zap.NewNop())
	loader, calls := countingLoader("v1")

	for i := 0; i < 3; i++ {
		v, err := c.Get("products", 0, loader)
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
	}
	assert.Equal(t, 1, *calls, "loader invoked once, then served from cache")
}

func TestGet_TTLExpiry(t *testing.T) {
	c := New(NewMemoryStore(time.Hour), time.Hour, zap.NewNop())
	loader, calls := countingLoader("v1")

	_, err := c.Get("products", 20*time.Millisecond, loader)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	_, err = c.Get("products", 20*time.Millisecond, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "expired entry reloads")
}

func TestInvalidate_NextReadReflectsNewValue(t *testing.T) {
	c := New(NewMemoryStore(time.Hour), time.Hour, zap.NewNop())

	value := "old"
	loader := func() (interface{}, error) { return value, nil }

	v, err := c.Get("products", 0, loader)
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	value = "new"
	c.Invalidate("products")

	v, err = c.Get("products", 0, loader)
	require.NoError(t, err)
	assert.Equal(t, "new", v, "never a stale read after invalidate")
}

func TestGet_LoaderErrorPropagatesAndIsNotCached(t *testing.T) {
	c := New(NewMemoryStore(time.Hour), time.Hour, zap.NewNop())

	boom := errors.New("db down")
	_, err := c.Get("products", 0, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	loader, calls := countingLoader("v1")
	v, err := c.Get("products", 0, loader)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, *calls)
}

// brokenStore fails every operation, as an unavailable backend would.
type brokenStore struct{}

func (brokenStore) Get(string) (interface{}, bool, error) {
	return nil, false, errors.New("backend unavailable")
}
func (brokenStore) Set(string, interface{}, time.Duration) error {
	return errors.New("backend unavailable")
}
func (brokenStore) Delete(string) error { return errors.New("backend unavailable") }

func TestGet_BackendOutageFallsBackToLoader(t *testing.T) {
	c := New(brokenStore{}, time.Hour, zap.NewNop())
	loader, calls := countingLoader("v1")

	for i := 0; i < 2; i++ {
		v, err := c.Get("products", 0, loader)
		require.NoError(t, err, "cache outage must never surface")
		assert.Equal(t, "v1", v)
	}
	assert.Equal(t, 2, *calls)

	c.Invalidate("products") // logged, swallowed
}
