package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/swapkeep/errors"
)

// collectRange returns all pending entries within [start, end) in iteration
// order. A nil start or end is unbounded. The entries are copied out so that
// the btree can be modified while the iterator is in use.
func collectRange(bt *btree.BTree, start, end []byte, reverse bool) []entry {
	var items []entry
	collect := func(item btree.Item) bool {
		items = append(items, item.(entry))
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(entry{key: end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(entry{key: start}, collect)
	default:
		bt.AscendRange(entry{key: start}, entry{key: end}, collect)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// itemIter combines the pending entries of a cache layer with the iterator
// of the store below it. Deleted entries hide the parent value of the same
// key and set entries overwrite it.
type itemIter struct {
	items   []entry
	idx     int
	reverse bool

	parent Iterator
	// peeked is the next parent entry that was read but not returned yet.
	peeked     *Model
	parentDone bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(items []entry, parent Iterator, reverse bool) *itemIter {
	return &itemIter{
		items:   items,
		reverse: reverse,
		parent:  parent,
	}
}

// Next returns the next key-value pair in the iteration order, or
// ErrIteratorDone when both sources are exhausted.
func (i *itemIter) Next() (key, value []byte, err error) {
	for {
		if err := i.peekParent(); err != nil {
			return nil, nil, err
		}

		if i.idx >= len(i.items) {
			if i.peeked == nil {
				return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache done")
			}
			m := i.peeked
			i.peeked = nil
			return m.Key, m.Value, nil
		}

		item := i.items[i.idx]
		if i.peeked != nil {
			switch cmp := i.compare(item.key, i.peeked.Key); {
			case cmp > 0:
				// Parent entry comes first.
				m := i.peeked
				i.peeked = nil
				return m.Key, m.Value, nil
			case cmp == 0:
				// Cache entry shadows the parent one.
				i.peeked = nil
			}
		}

		i.idx++
		if item.deleted {
			continue
		}
		return item.key, item.value, nil
	}
}

// compare returns a negative value if a comes before b in the iteration
// order.
func (i *itemIter) compare(a, b []byte) int {
	cmp := bytes.Compare(a, b)
	if i.reverse {
		return -cmp
	}
	return cmp
}

func (i *itemIter) peekParent() error {
	if i.parentDone || i.peeked != nil {
		return nil
	}
	key, value, err := i.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		i.parentDone = true
		return nil
	case err != nil:
		return err
	}
	i.peeked = &Model{Key: key, Value: value}
	return nil
}

// Release releases the Iterator and the parent one.
func (i *itemIter) Release() {
	i.parent.Release()
	i.items = nil
	i.peeked = nil
	i.parentDone = true
}
