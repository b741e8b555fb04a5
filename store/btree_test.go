package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMemStore() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeCacheSuite(t *testing.T) {
	suite := NewTestSuite(makeMemStore)

	t.Run("get and set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("iterator", suite.Iterator)
}

// TestBTreeCacheDiscard ensures that nothing written to a discarded cache
// reaches the parent, while a written one is fully applied.
func TestBTreeCacheDiscard(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("escrow"), []byte("empty")))

	failed := base.CacheWrap()
	require.NoError(t, failed.Set([]byte("escrow"), []byte("funded")))
	require.NoError(t, failed.Set([]byte("wallet"), []byte("debited")))
	failed.Discard()

	val, err := base.Get([]byte("escrow"))
	require.NoError(t, err)
	assert.Equal(t, []byte("empty"), val)
	has, err := base.Has([]byte("wallet"))
	require.NoError(t, err)
	assert.False(t, has)

	ok := base.CacheWrap()
	require.NoError(t, ok.Set([]byte("escrow"), []byte("funded")))
	require.NoError(t, ok.Delete([]byte("missing")))
	require.NoError(t, ok.Write())

	val, err = base.Get([]byte("escrow"))
	require.NoError(t, err)
	assert.Equal(t, []byte("funded"), val)
}

// TestBTreeCacheNested ensures that a nested cache is only visible in the
// outer cache until the outer one is written as well.
func TestBTreeCacheNested(t *testing.T) {
	base := MemStore()
	outer := base.CacheWrap()
	inner := outer.CacheWrap()

	require.NoError(t, inner.Set([]byte("a"), []byte("1")))
	require.NoError(t, inner.Write())

	val, err := outer.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	val, err = base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, outer.Write())
	val, err = base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
}

func TestNonAtomicBatchShowOps(t *testing.T) {
	b := NewNonAtomicBatch(EmptyKVStore{})
	require.NoError(t, b.Set([]byte("k"), []byte("v")))
	require.NoError(t, b.Delete([]byte("k")))
	assert.Equal(t, []Op{SetOp([]byte("k"), []byte("v")), DelOp([]byte("k"))}, b.ShowOps())
	require.NoError(t, b.Write())
	assert.Empty(t, b.ShowOps())
}
