package store

import "github.com/iov-one/swapkeep"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = swapkeep.ReadOnlyKVStore
	SetDeleter       = swapkeep.SetDeleter
	KVStore          = swapkeep.KVStore
	Batch            = swapkeep.Batch
	Iterator         = swapkeep.Iterator
	CacheableKVStore = swapkeep.CacheableKVStore
	KVCacheWrap      = swapkeep.KVCacheWrap
	CommitKVStore    = swapkeep.CommitKVStore
	CommitID         = swapkeep.CommitID
)

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
