// pkg/masstree/iterator.go
package masstree

import "bytes"

// Iterator walks a tree's keys in ascending lexicographic order. Each
// step re-derives its position with a fresh lock-free descent rather than
// caching a leaf pointer across calls, so a concurrent split or delete
// between two Next calls is simply invisible — there is nothing stale to
// walk off of (spec.md §4.5 "ordered range iteration under heavy
// concurrency").
type Iterator struct {
	tree      *Tree
	lastKey   []byte
	started   bool
	key       []byte
	value     any
	exhausted bool
}

// IterFrom returns an iterator positioned to yield the smallest key >=
// start (or every key, if start is nil), in ascending order.
func IterFrom(t *Tree, start []byte) *Iterator {
	return &Iterator{tree: t, lastKey: start}
}

// Next advances the iterator and reports whether a further key was found.
func (it *Iterator) Next() bool {
	if it.exhausted {
		return false
	}
	inclusive := !it.started
	after := it.lastKey
	if after == nil {
		after = []byte{}
	}
	it.started = true

	key, value, ok := successorAt(treeRootSlot(&it.tree.root), after, 0, inclusive, nil)
	if !ok {
		it.exhausted = true
		return false
	}
	it.key, it.value = key, value
	it.lastKey = key
	return true
}

func (it *Iterator) Key() []byte  { return it.key }
func (it *Iterator) Value() any   { return it.value }

// successorAt finds the smallest key within root's layer whose full
// representation is >= after (inclusive) or > after (otherwise), given
// that the bytes consumed so far already matched after's prefix through
// depth layers. prefix holds those already-matched leading bytes, to be
// prepended to whatever key materializes.
func successorAt(root rootSlot, after []byte, depth int, inclusive bool, prefix []byte) (key []byte, value any, ok bool) {
	sliceVal, length, _ := keySliceAt(after, depth)
	leaf := findLeaf(root, sliceVal, length)
	first := true
	for leaf != nil {
		perm := leaf.loadPermutation()
		nkeys, order := decodePermutation(perm)
		for i := 0; i < nkeys; i++ {
			s := order[i]
			var cmp int
			if first {
				cmp = compareSlice(leaf.sliceVal[s], leaf.info[s].length(), sliceVal, length)
			} else {
				cmp = 1 // every entry in a later leaf is past the search bound
			}
			if cmp < 0 {
				continue
			}
			if cmp == 0 {
				if leaf.info[s].tag() == tagLayer {
					if child := leaf.layerRootAt(s); child != nil && !isDeLayer(stableVersion(&child.version)) {
						childPrefix := append(append([]byte{}, prefix...), sliceBytes(leaf.sliceVal[s], leaf.info[s].length())...)
						if k, v, found := successorAt(layerRootSlot(leaf, s), after, depth+1, inclusive, childPrefix); found {
							return k, v, true
						}
					}
					continue
				}
				if !inclusive {
					continue
				}
			}
			// An emptied sub-layer awaiting its strip yields nothing;
			// move on to the next entry.
			if k, v, found := materialize(leaf, s, prefix); found {
				return k, v, true
			}
		}
		leaf = leaf.loadNext()
		first = false
	}
	return nil, nil, false
}

// materialize builds the full key for physical slot s of leaf, descending
// to the leftmost entry of a child layer when the slot anchors one.
func materialize(leaf *leafNode, s int, prefix []byte) ([]byte, any, bool) {
	keyBytes := append(append([]byte{}, prefix...), sliceBytes(leaf.sliceVal[s], leaf.info[s].length())...)
	if leaf.info[s].tag() == tagValue {
		return keyBytes, leaf.valueAt(s), true
	}
	child := leaf.layerRootAt(s)
	if child == nil {
		return nil, nil, false
	}
	return leftmost(layerRootSlot(leaf, s), keyBytes)
}

// leftmost descends to the smallest key reachable from root's layer.
func leftmost(root rootSlot, prefix []byte) ([]byte, any, bool) {
	n := root.load()
	for n != nil {
		v := stableVersion(&n.version)
		if isBorder(v) {
			leaf := n.asLeaf()
			sv, sl, ok := leaf.smallestSlice()
			if !ok {
				return nil, nil, false
			}
			slot, _, found := leaf.findValue(sv, sl)
			if !found {
				return nil, nil, false
			}
			return materialize(leaf, slot, prefix)
		}
		n = n.asInternal().loadChild(0)
	}
	return nil, nil, false
}

// sliceBytes renders the first length bytes of a big-endian slice word —
// the inverse of keySliceAt.
func sliceBytes(value uint64, length int) []byte {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(value)
		value >>= 8
	}
	return bytes.Clone(buf[:length])
}
