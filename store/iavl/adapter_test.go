package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/swapkeep/store"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

type Model = store.Model
type Op = store.Op

func makeCommitStore(t testing.TB) (CommitStore, string, func()) {
	t.Helper()
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	if err != nil {
		t.Fatalf("cannot create temporary directory: %s", err)
	}
	commit, err := NewCommitStore(tmpDir, "base")
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("cannot create commit store: %s", err)
	}
	cleanup := func() {
		commit.Close()
		os.RemoveAll(tmpDir)
	}
	return commit, tmpDir, cleanup
}

func TestAdapterSuite(t *testing.T) {
	suite := store.NewTestSuite(func() (store.CacheableKVStore, func()) {
		commit, _, cleanup := makeCommitStore(t)
		return commit.Adapter(), cleanup
	})

	t.Run("get and set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("iterator", suite.Iterator)
}

// TestCommitOverwrite checks that we commit properly
// and can add/overwrite/query in the next adapter
func TestCommitOverwrite(t *testing.T) {
	k1, k2, k3 := []byte("alice"), []byte("bob"), []byte("carol")
	v1, v2, v3 := []byte("100IOV"), []byte("50IOV"), []byte("nft")

	commit, _, cleanup := makeCommitStore(t)
	defer cleanup()
	// only one to trigger a cleanup
	commit.numHistory = 1

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	if len(id.Hash) != 0 {
		t.Fatal("hash is not empty")
	}

	parent := commit.CacheWrap()
	assert.Nil(t, parent.Set(k1, v1))
	assert.Nil(t, parent.Set(k2, v2))
	assert.Nil(t, parent.Write())

	// nothing is visible as committed before the commit
	got, err := commit.Get(k1)
	assert.Nil(t, err)
	assert.Nil(t, got)

	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)
	if len(id.Hash) == 0 {
		t.Fatal("hash is empty")
	}
	got, err = commit.Get(k1)
	assert.Nil(t, err)
	assert.Equal(t, v1, got)

	// child and side cache wraps work in parallel
	child := commit.CacheWrap()
	side := commit.CacheWrap()
	assert.Nil(t, child.Set(k1, v3))
	assert.Nil(t, child.Delete(k2))
	assert.Nil(t, child.Set(k3, v3))

	assertGetHas(t, side, k1, v1, true)
	assertGetHas(t, side, k2, v2, true)
	assertGetHas(t, side, k3, nil, false)

	assert.Nil(t, child.Write())
	assertGetHas(t, side, k1, v3, true)
	assertGetHas(t, side, k2, nil, false)
	assertGetHas(t, side, k3, v3, true)

	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id.Version)
}

// TestCommitStorePersistence ensures that committed state is available after
// the database is reopened and uncommitted state is lost.
func TestCommitStorePersistence(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "iavl-persist-")
	assert.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	commit, err := NewCommitStore(tmpDir, "swap")
	assert.Nil(t, err)

	db := commit.AutoCommit()
	cache := db.CacheWrap()
	assert.Nil(t, cache.Set([]byte("escrow"), []byte("funded")))
	assert.Nil(t, cache.Write())

	// Written directly to the tree, never committed.
	assert.Nil(t, commit.Adapter().Set([]byte("pending"), []byte("lost")))

	want, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), want.Version)
	commit.Close()

	reopened, err := NewCommitStore(tmpDir, "swap")
	assert.Nil(t, err)
	defer reopened.Close()

	got, err := reopened.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, want.Version, got.Version)

	val, err := reopened.Get([]byte("escrow"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("funded"), val)

	assertGetHas(t, reopened.Adapter(), []byte("pending"), nil, false)
}

// TestAutoCommitDiscard ensures that a discarded cache does not create a new
// version.
func TestAutoCommitDiscard(t *testing.T) {
	commit := NewMemCommitStore()
	db := commit.AutoCommit()

	cache := db.CacheWrap()
	assert.Nil(t, cache.Set([]byte("a"), []byte("b")))
	cache.Discard()

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	assertGetHas(t, db, []byte("a"), nil, false)
}

func assertGetHas(t testing.TB, kv store.ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}
