// pkg/masstree/trie.go
package masstree

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"masstree/internal/arena"
)

// MaxHeight is original_source/index/masstree/src/masstree.c's
// max_height()==23, exported for sizing caller-side path scratch buffers.
// Put does not limit key length, so a key longer than MaxHeight*8 bytes
// spans more than MaxHeight trie layers (one per 8 key bytes).
const MaxHeight = 23

// Stats counts structural events across the tree's lifetime. Purely
// informational; nothing in the core reads them back.
type Stats struct {
	Splits      uint64
	LayerBirths uint64
	Retirements uint64
}

// Tree is a trie of lock-coupled B+ trees mapping variable-length byte
// string keys to opaque values. The zero value is not usable; construct
// with Create. A Tree's retirement list is its own — it is never shared
// with any other Tree (spec.md §7).
type Tree struct {
	root    unsafe.Pointer // *base, atomic: layer 0's root, nil when empty
	retired unsafe.Pointer // *base, atomic: CAS-linked retirement list head

	Stats Stats

	cfg          Config
	retiredSince uint64 // atomic: nodes pushed to the retirement list since the last GCPrepare

	arena    *arena.Arena
	blockIDs sync.Map // *base -> uint, arena block id for a live node
}

// Create returns a new, empty tree with no block-occupancy accounting,
// using DefaultConfig.
func Create() *Tree {
	return &Tree{cfg: DefaultConfig()}
}

// CreateWithConfig returns a new, empty tree tuned by cfg.
func CreateWithConfig(cfg Config) *Tree {
	return &Tree{cfg: cfg}
}

// CreateWithArena returns a new, empty tree whose node allocations and
// retirements are tracked against a (shared only if the caller chooses)
// block-occupancy arena (spec.md §6 Allocator hook).
func CreateWithArena(a *arena.Arena) *Tree {
	return &Tree{cfg: DefaultConfig(), arena: a}
}

// CreateWithArenaAndConfig combines CreateWithArena and CreateWithConfig.
func CreateWithArenaAndConfig(a *arena.Arena, cfg Config) *Tree {
	return &Tree{cfg: cfg, arena: a}
}

// Config returns the configuration this tree was created with.
func (t *Tree) Config() Config { return t.cfg }

// NeedsGC reports whether the retirement list has grown past this tree's
// RetireBatchHint since the last GCPrepare — advisory only, per Config's
// doc comment: nothing in this package forces a caller to act on it.
func (t *Tree) NeedsGC() bool {
	hint := t.cfg.RetireBatchHint
	if hint <= 0 {
		return false
	}
	return atomic.LoadUint64(&t.retiredSince) >= uint64(hint)
}

// trackAlloc records a freshly allocated node against the tree's arena,
// if it has one. Accounting is advisory only: Go objects are always
// allocated regardless of what the arena reports, since this package
// never performs manual memory management (see DESIGN.md).
func (t *Tree) trackAlloc(n *base) {
	if t.arena == nil {
		return
	}
	if id, err := t.arena.Acquire(); err == nil {
		t.blockIDs.Store(n, id)
	}
}

// trackRelease releases a retired node's arena block, if tracked.
func (t *Tree) trackRelease(n *base) {
	if t.arena == nil {
		return
	}
	if id, ok := t.blockIDs.LoadAndDelete(n); ok {
		t.arena.Release(id.(uint))
	}
}

// isEmpty reports whether the tree currently holds zero keys. Internal
// nodes always carry at least one separator, so the only empty shapes are
// a nil root or a lone, keyless leaf root.
func (t *Tree) isEmpty() bool {
	r := loadPointer(&t.root)
	if r == nil {
		return true
	}
	b := (*base)(r)
	v := stableVersion(&b.version)
	if !isBorder(v) {
		return false
	}
	return b.asLeaf().keyCount() == 0
}

// Destroy releases a tree's resources. It refuses to do so while the tree
// still holds keys (spec.md §6 Open Question, resolved: the original
// silently leaked on this path; this port reports ErrTreeNotEmpty instead
// of discarding live data).
func Destroy(t *Tree) error {
	if !t.isEmpty() {
		return ErrTreeNotEmpty
	}
	return nil
}

// Get performs a lock-free point lookup, descending through trie layers
// as needed and re-driving from the top whenever it crosses a degenerate
// (DE_LAYER) sub-layer that needs fixing up first (spec.md §4.5, §4.6).
func Get(t *Tree, key []byte) (value any, ok bool) {
	if key == nil {
		return nil, false
	}
	root := treeRootSlot(&t.root)
	for depth := 0; ; {
		sliceVal, length, _ := keySliceAt(key, depth)
		leaf, v0 := findLeafStable(root, sliceVal, length)
		if leaf == nil {
			return nil, false
		}

		slot, tag, found := leaf.findValue(sliceVal, length)

		// spec.md §4.5 step 3: a split can commit in the window between
		// find_leaf returning and find-value scanning it, moving the
		// target into a new right sibling that find-value never sees.
		// Re-load the leaf's version; anything beyond the lock bit
		// changing means we must walk right and retry find-value before
		// trusting the result.
		if v1 := stableVersion(&leaf.version); v1&^vLocked != v0&^vLocked {
			leaf = walkRightFrom(leaf, sliceVal, length)
			if leaf == nil {
				return nil, false
			}
			slot, tag, found = leaf.findValue(sliceVal, length)
		}

		if !found {
			return nil, false
		}
		if tag == tagValue {
			return leaf.valueAt(slot), true
		}
		child := leaf.layerRootAt(slot)
		if child == nil {
			return nil, false
		}
		if isDeLayer(stableVersion(&child.version)) {
			t.stripDegenerateLayer(root, sliceVal, length)
			root, depth = treeRootSlot(&t.root), 0
			continue
		}
		root, depth = layerRootSlot(leaf, slot), depth+1
	}
}

// Put inserts or overwrites the value for key, creating trie layers on
// demand whenever a key's slice fully occupies an 8-byte chunk and keeps
// going (spec.md §4.2, §4.4).
func Put(t *Tree, key []byte, value any) error {
	if key == nil {
		return ErrInvalidKey
	}
	if value == nil {
		return ErrInvalidValue
	}
	t.putAt(treeRootSlot(&t.root), key, 0, value)
	return nil
}

func (t *Tree) putAt(root rootSlot, key []byte, depth int, value any) {
	sliceVal, length, more := keySliceAt(key, depth)
	if !more {
		t.insertIntoLayer(root, sliceVal, length, tagValue, value)
		return
	}
	child := t.ensureLayerEntry(root, sliceVal)
	t.putAt(child, key, depth+1, value)
}

// insertIntoLayer is the Put-facing entry point into a single layer's
// upsert logic.
func (t *Tree) insertIntoLayer(root rootSlot, sliceVal uint64, length int, tag sliceTag, value any) {
	t.upsertIntoLayer(root, sliceVal, length, tag, value)
}

// ensureLayerEntry guarantees a tagLayer entry for sliceVal exists in
// root's layer (creating an empty sub-layer the first time it's needed —
// spec.md §4.4 layer birth) and returns a rootSlot for that sub-layer,
// fixing up any degenerate sub-layer it encounters along the way.
func (t *Tree) ensureLayerEntry(root rootSlot, sliceVal uint64) rootSlot {
	for {
		leaf, slot := t.upsertIntoLayer(root, sliceVal, 8, tagLayer, (*base)(nil))
		child := leaf.layerRootAt(slot)
		if child != nil && isDeLayer(stableVersion(&child.version)) {
			t.stripDegenerateLayer(root, sliceVal, 8)
			continue
		}
		if child == nil {
			atomic.AddUint64(&t.Stats.LayerBirths, 1)
		}
		return layerRootSlot(leaf, slot)
	}
}

// Del removes key, collapsing emptied leaves and degenerate layers as it
// unwinds (spec.md §4.6).
func Del(t *Tree, key []byte) (existed bool, err error) {
	if key == nil {
		return false, ErrInvalidKey
	}
	return t.delAt(treeRootSlot(&t.root), key, 0), nil
}

func (t *Tree) delAt(root rootSlot, key []byte, depth int) bool {
	sliceVal, length, more := keySliceAt(key, depth)
	if !more {
		return t.removeFromLayer(root, sliceVal, length)
	}

	leaf := findLeafLocked(root, sliceVal, 8)
	if leaf == nil {
		return false
	}
	slot, tag, found := leaf.findValue(sliceVal, 8)
	if !found || tag != tagLayer {
		unlockVersion(&leaf.version)
		return false
	}
	child := leaf.layerRootAt(slot)
	unlockVersion(&leaf.version)
	if child == nil {
		return false
	}
	if isDeLayer(stableVersion(&child.version)) {
		t.stripDegenerateLayer(root, sliceVal, 8)
		return t.delAt(root, key, depth)
	}
	return t.delAt(layerRootSlot(leaf, slot), key, depth+1)
}

// stripDegenerateLayer removes a DE_LAYER-flagged, fully emptied
// sub-layer's anchoring entry from its owning leaf and retires the
// degenerate root node, collapsing the owner further if that empties it
// too (spec.md §4.6).
func (t *Tree) stripDegenerateLayer(root rootSlot, sliceVal uint64, length int) {
	leaf := findLeafLocked(root, sliceVal, length)
	if leaf == nil {
		return
	}
	slot, tag, found := leaf.findValue(sliceVal, length)
	if !found || tag != tagLayer {
		unlockVersion(&leaf.version)
		return
	}
	child := leaf.layerRootAt(slot)
	if child == nil || !isDeLayer(stableVersion(&child.version)) {
		unlockVersion(&leaf.version)
		return
	}

	ok, emptied := leaf.removeLocked(sliceVal, length)
	if !ok {
		unlockVersion(&leaf.version)
		return
	}
	if emptied {
		t.collapseEmptyLeaf(root, leaf)
	} else {
		unlockVersion(&leaf.version)
	}

	lockVersion(&child.version)
	t.retireLocked(child)
}
