// pkg/kvadapter/adapter.go
package kvadapter

import (
	"encoding/binary"

	"masstree/internal/arena"
	"masstree/pkg/masstree"
)

// Context wraps a *masstree.Tree the way cowTreeWrapper wraps a
// *PersistentCowBTree: a thin adapter, not a second implementation.
type Context struct {
	tree *masstree.Tree
}

// ThreadContext is a per-goroutine handle onto a shared Context. The core
// is already safe for concurrent callers, so this carries no state of its
// own beyond the Context it was created from; it exists only to match the
// boundary glue's named shape, for benchmarking harnesses that expect a
// distinct create/destroy pair per worker.
type ThreadContext struct {
	ctx *Context
}

// KVCreateContext creates a fresh, empty tree. A limit of 0 uses the
// arena's default block budget.
func KVCreateContext(blockLimit uint) *Context {
	return &Context{tree: masstree.CreateWithArena(arena.New(blockLimit))}
}

// KVThreadCreateContext returns a per-goroutine handle onto ctx.
func KVThreadCreateContext(ctx *Context) *ThreadContext {
	return &ThreadContext{ctx: ctx}
}

// KVThreadDestroyContext releases tc. It does not touch the underlying
// tree, which may still be shared with other thread contexts.
func KVThreadDestroyContext(tc *ThreadContext) {
	tc.ctx = nil
}

// KVDestroyContext tears down ctx's tree, failing if it still holds keys.
func KVDestroyContext(ctx *Context) error {
	return masstree.Destroy(ctx.tree)
}

// Stats returns ctx's tree's structural counters.
func (ctx *Context) Stats() masstree.Stats {
	return ctx.tree.Stats
}

// KVPut inserts or overwrites the value stored under the big-endian
// canonicalisation of key.
func (tc *ThreadContext) KVPut(key uint64, value any) error {
	return masstree.Put(tc.ctx.tree, keyBytes(key), value)
}

// KVGet returns the value stored under key, if any.
func (tc *ThreadContext) KVGet(key uint64) (value any, ok bool) {
	return masstree.Get(tc.ctx.tree, keyBytes(key))
}

// KVDel removes key, reporting whether it was present.
func (tc *ThreadContext) KVDel(key uint64) (existed bool, err error) {
	return masstree.Del(tc.ctx.tree, keyBytes(key))
}

// KVScan returns up to limit key/value pairs in ascending key order
// starting at (and including) start. A limit of 0 returns every remaining
// entry.
func (tc *ThreadContext) KVScan(start uint64, limit int) ([]uint64, []any) {
	it := masstree.IterFrom(tc.ctx.tree, keyBytes(start))
	var keys []uint64
	var values []any
	for (limit <= 0 || len(keys) < limit) && it.Next() {
		keys = append(keys, binary.BigEndian.Uint64(it.Key()))
		values = append(values, it.Value())
	}
	return keys, values
}

// keyBytes canonicalises a uint64 key into the big-endian byte order the
// core compares slices in (spec.md §6: "convert 8-byte big-endian integer
// keys via byte-swap into canonical slice order").
func keyBytes(key uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, key)
	return b
}
