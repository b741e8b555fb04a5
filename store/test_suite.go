package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. Only the constructor differs between the btree cache and
// the iavl adapter tests.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh, empty store and a function releasing
// it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that cached writes are visible in the cache only, until the
// cache is written. A discarded cache leaves no trace.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	record, held := []byte("swap:round"), []byte("fungible")
	s.AssertGetHas(t, base, record, nil, false)
	assert.Nil(t, base.Set(record, held))
	s.AssertGetHas(t, base, record, held, true)

	deposit := base.CacheWrap()
	s.AssertGetHas(t, deposit, record, held, true)

	wallet, balance := []byte("cash:alice"), []byte("4000 IOV")
	assert.Nil(t, deposit.Set(wallet, balance))
	s.AssertGetHas(t, deposit, wallet, balance, true)
	s.AssertGetHas(t, base, wallet, nil, false)

	assert.Nil(t, deposit.Write())
	s.AssertGetHas(t, base, record, held, true)
	s.AssertGetHas(t, base, wallet, balance, true)

	token := []byte("nft:asset-1")
	failed := base.CacheWrap()
	assert.Nil(t, failed.Set(token, []byte("escrow")))
	failed.Discard()
	s.AssertGetHas(t, base, token, nil, false)

	withdraw := base.CacheWrap()
	assert.Nil(t, withdraw.Delete(record))
	assert.Nil(t, withdraw.Write())
	s.AssertGetHas(t, base, record, nil, false)
	s.AssertGetHas(t, base, wallet, balance, true)
}

// CacheConflicts checks that a cache can overwrite and delete values of its
// parent without modifying it.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 32)

	parent, cleanup := s.makeBase()
	defer cleanup()
	assert.Nil(t, SetOp(ks[1], vs[1]).Apply(parent))
	assert.Nil(t, SetOp(ks[2], vs[2]).Apply(parent))

	child := parent.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[3]), SetOp(ks[3], vs[0]), DelOp(ks[2])} {
		assert.Nil(t, op.Apply(child))
	}

	before := []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)}
	after := []Model{Pair(ks[1], vs[3]), Pair(ks[2], nil), Pair(ks[3], vs[0])}
	for _, q := range before {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
	for _, q := range after {
		s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
	}

	assert.Nil(t, child.Write())
	for _, q := range after {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
}

// Iterator checks ranges in both directions over random content split
// between a parent and its cache, including deletes and overwrites.
func (s *TestSuite) Iterator(t *testing.T) {
	const size = 40

	cached := randModels(size, 8, 24)
	stored := randModels(size, 8, 24)
	both := sortModels(append(append([]Model{}, cached...), stored...))
	onlyCached := sortModels(cached)

	ms := randModels(4, 12, 24)
	a, b, c := ms[0], ms[1], ms[2]
	a2 := Model{Key: a.Key, Value: ms[3].Value}
	shadowed := sortModels([]Model{a2, b, c})

	cases := map[string]struct {
		pre     []Op
		child   []Op
		queries []rangeQuery
	}{
		"cache over empty parent": {
			child: append(makeSetOps(cached...), makeDelOps(randModels(5, 8, 1)...)...),
			queries: []rangeQuery{
				{nil, nil, false, onlyCached},
				{onlyCached[7].Key, nil, false, onlyCached[7:]},
				{nil, onlyCached[30].Key, false, onlyCached[:30]},
				{onlyCached[5].Key, onlyCached[25].Key, true, reverse(onlyCached[5:25])},
			},
		},
		"cache and parent are merged": {
			pre:   makeSetOps(stored...),
			child: makeSetOps(cached...),
			queries: []rangeQuery{
				{nil, nil, false, both},
				{both[12].Key, both[60].Key, false, both[12:60]},
				{nil, nil, true, reverse(both)},
				{both[40].Key, nil, true, reverse(both[40:])},
			},
		},
		"cache shadows parent values": {
			pre:   makeSetOps(a, b),
			child: makeSetOps(a2, c),
			queries: []rangeQuery{
				{nil, nil, false, shadowed},
				{nil, nil, true, reverse(shadowed)},
			},
		},
		"deleted in cache": {
			pre:   makeSetOps(a, b, c),
			child: makeDelOps(a, b),
			queries: []rangeQuery{
				{nil, nil, false, []Model{c}},
				{nil, c.Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.pre {
				assert.Nil(t, op.Apply(base))
			}
			child := base.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}
			for _, q := range tc.queries {
				q.check(t, child)
			}
		})
	}
}

// AssertGetHas checks both the value and the presence of a key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (q rangeQuery) check(t testing.TB, kv ReadOnlyKVStore) {
	t.Helper()
	var (
		it  Iterator
		err error
	)
	if q.reverse {
		it, err = kv.ReverseIterator(q.start, q.end)
	} else {
		it, err = kv.Iterator(q.start, q.end)
	}
	assert.Nil(t, err)

	for i, want := range q.expected {
		key, value, err := it.Next()
		assert.Nil(t, err)
		if !bytes.Equal(want.Key, key) {
			t.Fatalf("item %d: want key %X, got %X", i, want.Key, key)
		}
		assert.Equal(t, want.Value, value)
	}
	if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want ErrIteratorDone, got %+v", err)
	}
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = make([]byte, size)
		_, _ = rand.Read(res[i])
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	keys := randKeys(count, keySize)
	values := randKeys(count, valueSize)
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(keys[i], values[i])
	}
	return models
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
