package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcached/zcached-go/internal/store"
)

func TestGetMissThenHit(t *testing.T) {
	s := store.New()

	_, ok, err := s.Get("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Insert("abc", "123"))

	v, ok, err := s.Get("abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "123", v)
}

func TestSetThenDeleteThenGet(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Insert("abc", "ghi"))
	require.NoError(t, s.Remove("abc"))

	_, ok, err := s.Get("abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAbsentKeyIsNoop(t *testing.T) {
	s := store.New()
	assert.NoError(t, s.Remove("nope"))
}

func TestClearRemovesEverything(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Insert("a", "1"))
	require.NoError(t, s.Insert("b", "2"))
	require.NoError(t, s.Clear())

	for _, k := range []string{"a", "b"} {
		_, ok, err := s.Get(k)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestCloseMakesStoreUnavailable(t *testing.T) {
	s := store.New()
	s.Close()

	_, _, err := s.Get("a")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorIs(t, s.Insert("a", "b"), store.ErrUnavailable)
	assert.ErrorIs(t, s.Remove("a"), store.ErrUnavailable)
	assert.ErrorIs(t, s.Clear(), store.ErrUnavailable)
}

func TestConcurrentAccessDisjointKeys(t *testing.T) {
	s := store.NewWithCapacity(2000)
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(2)
	for _, prefix := range []string{"a", "b"} {
		prefix := prefix
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				key := prefix + string(rune('0'+i%10))
				require.NoError(t, s.Insert(key, key))
			}
		}()
	}
	wg.Wait()

	v, ok, err := s.Get("a0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a0", v)
}
