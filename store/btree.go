package store

import (
	"bytes"

	"github.com/google/btree"
)

// btreeDegree is the degree of every cache layer btree.
const btreeDegree = 2

// BTreeCacheable gives any KVStore a cache layer kept in a btree.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap starts a cache layer whose writes reach the store through a
// batch created for it.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns an in-memory store with nothing behind it. Nothing is
// persisted.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// BTreeCacheWrap keeps pending changes in a btree and reads through to the
// store below for keys it has not seen.
type BTreeCacheWrap struct {
	pending *btree.BTree
	free    *btree.FreeList
	parent  ReadOnlyKVStore
	batch   Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap creates a cache layer over parent. All changes are
// recorded in batch as well, so that Write can flush them. A nil free list
// allocates a new one.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		pending: btree.NewWithFreeList(btreeDegree, free),
		free:    free,
		parent:  parent,
		batch:   batch,
	}
}

// CacheWrap nests another cache layer that shares the free list of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch applying its operations to this cache layer.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes the pending changes to the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all pending changes.
func (b BTreeCacheWrap) Discard() {
	b.pending.Clear(true)
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.pending.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.pending.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

// lookup returns the pending change for key, if any.
func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	found := b.pending.Get(entry{key: key})
	if found == nil {
		return entry{}, false
	}
	return found.(entry), true
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := b.lookup(key); ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return b.parent.Get(key)
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if e, ok := b.lookup(key); ok {
		return !e.deleted, nil
	}
	return b.parent.Has(key)
}

// Iterator merges pending changes with the parent content in ascending key
// order.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, false)
}

// ReverseIterator is Iterator in descending key order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	return b.iterate(start, end, true)
}

func (b BTreeCacheWrap) iterate(start, end []byte, reverse bool) (Iterator, error) {
	var (
		below Iterator
		err   error
	)
	if reverse {
		below, err = b.parent.ReverseIterator(start, end)
	} else {
		below, err = b.parent.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	return newItemIter(collectRange(b.pending, start, end, reverse), below, reverse), nil
}

// entry is a pending change of a single key. A deleted entry hides any
// value the parent holds for that key.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = entry{}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
