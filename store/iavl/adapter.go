package iavl

import (
	"os"
	"path/filepath"

	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultHistorySize is how many committed versions are kept before the
// oldest ones are pruned.
const DefaultHistorySize = 20

const cacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
	db   dbm.DB
	// numHistory is how many versions we keep, 0 keeps all of them
	numHistory int64
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing. The latest
// committed version is loaded.
func NewCommitStore(path, name string) (CommitStore, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	var db dbm.DB
	err = safeDB(func() {
		db = dbm.NewDB(name, dbm.GoLevelDBBackend, path)
	})
	if err != nil {
		return CommitStore{}, err
	}
	return NewCommitStoreFromDB(db)
}

// NewMemCommitStore creates a store that keeps all versions in memory.
func NewMemCommitStore() CommitStore {
	s, err := NewCommitStoreFromDB(dbm.NewMemDB())
	if err != nil {
		// An empty memory database cannot fail to load.
		panic(err)
	}
	return s
}

// NewCommitStoreFromDB creates a store on top of given database and loads
// the latest committed version.
func NewCommitStoreFromDB(db dbm.DB) (CommitStore, error) {
	s := CommitStore{
		tree:       iavl.NewMutableTree(db, cacheSize),
		db:         db,
		numHistory: DefaultHistorySize,
	}
	if err := s.LoadLatestVersion(); err != nil {
		return CommitStore{}, err
	}
	return s, nil
}

// safeDB converts a panic of the database backend into an error.
func safeDB(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrDatabase, "%v", r)
		}
	}()
	fn()
	return nil
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}

	// Release an old version of history.
	if s.numHistory > 0 && s.numHistory < version {
		toRelease := version - s.numHistory
		if s.tree.VersionExists(toRelease) {
			if err := s.tree.DeleteVersion(toRelease); err != nil {
				return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
			}
		}
	}

	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// Close releases the underlying database.
func (s CommitStore) Close() {
	s.db.Close()
}

// Adapter returns a wrapped version of the tree.
//
// Data written here is stored in the tip of the version tree,
// and will be written to disk on Commit. There is no way
// to rollback writes here, without throwing away the CommitStore
// and re-loading from disk.
func (s CommitStore) Adapter() store.CacheableKVStore {
	return adapter{tree: s.tree}
}

// AutoCommit returns a store that commits a new version every time one of
// its cache wraps is written.
func (s CommitStore) AutoCommit() store.CacheableKVStore {
	return adapter{tree: s.tree, commit: &s}
}

// CacheWrap wraps the Adapter with a cache, so it may be written
// or discarded as needed.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// adapter converts the working iavl.Tree to match these interfaces
type adapter struct {
	tree   *iavl.MutableTree
	commit *CommitStore
}

var _ store.CacheableKVStore = adapter{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (a adapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

// Has checks if a key exists. Panics on nil key.
func (a adapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

// Set adds a new value
func (a adapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

// Delete removes from the tree
func (a adapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops atomically
func (a adapter) NewBatch() store.Batch {
	b := store.NewNonAtomicBatch(a)
	if a.commit == nil {
		return b
	}
	return &commitBatch{NonAtomicBatch: b, commit: a.commit}
}

// CacheWrap wraps us once again, with btree
func (a adapter) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(a, a.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
// Start must be less than end, or the Iterator is invalid.
func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
// Start must be less than end, or the Iterator is invalid.
func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, false), nil
}

func (a adapter) collect(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	add := func(key []byte, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	}
	a.tree.IterateRange(start, end, ascending, add)
	return store.NewSliceIterator(res)
}

// commitBatch saves a new tree version once all operations are applied.
type commitBatch struct {
	*store.NonAtomicBatch
	commit *CommitStore
}

func (b *commitBatch) Write() error {
	if err := b.NonAtomicBatch.Write(); err != nil {
		return err
	}
	_, err := b.commit.Commit()
	return err
}
