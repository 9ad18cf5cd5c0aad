// pkg/masstree/retire.go
package masstree

import (
	"sync/atomic"
	"unsafe"
)

// GCHandle is a batch of retired nodes detached by GCPrepare, ready to be
// released by GCRun once the caller can attest no reader anywhere still
// holds a pointer into it. Reclamation here is host-driven rather than
// reader-epoch-tracked: unlike an EpochManager that samples active reader
// epochs itself, this package leaves quiescence detection entirely to the
// caller (spec.md §7).
type GCHandle struct {
	tree *Tree
	head *base
	done bool
}

// retireLocked marks an already-locked, now-unreachable node DELETED,
// releases its lock — no further mutation of a DELETED node is ever
// valid — and pushes it onto the owning tree's retirement list.
func (t *Tree) retireLocked(n *base) {
	v := loadVersion(&n.version)
	storeVersionUnlockedDeleted(&n.version, v)
	t.pushRetired(n)
	t.trackRelease(n)
	atomic.AddUint64(&t.Stats.Retirements, 1)
	atomic.AddUint64(&t.retiredSince, 1)
}

func storeVersionUnlockedDeleted(v *uint32, cur uint32) {
	atomic.StoreUint32(v, (cur|vDeleted)&^vLocked)
}

// pushRetired CAS-links n onto the head of the tree's retirement list.
// The list is per-tree, never process-global, so unrelated trees never
// contend on it (spec.md §7).
func (t *Tree) pushRetired(n *base) {
	for {
		head := loadPointer(&t.retired)
		storePointer(&n.retireNext, head)
		if casPointer(&t.retired, head, unsafe.Pointer(n)) {
			return
		}
	}
}

// GCPrepare atomically detaches the tree's entire current retirement list
// and returns it as an opaque handle. Detaching the list head is
// independent of any individual node's own lock.
func (t *Tree) GCPrepare() *GCHandle {
	for {
		head := loadPointer(&t.retired)
		if casPointer(&t.retired, head, nil) {
			atomic.StoreUint64(&t.retiredSince, 0)
			if head == nil {
				return &GCHandle{tree: t}
			}
			return &GCHandle{tree: t, head: (*base)(head)}
		}
	}
}

// GCRun releases every node in handle, which must have been prepared by t.
// The runtime garbage collector does the actual reclamation once the nodes
// become unreachable; this just breaks the retirement list's links so that
// happens. Matches spec.md §6's external gc_run(tree, handle) signature so
// the tree identity can actually be checked, rather than merely stored:
// a nil handle, a handle prepared by a different tree, or a handle already
// run is rejected with ErrNotQuiescent.
func GCRun(t *Tree, handle *GCHandle) error {
	if handle == nil || handle.tree != t || handle.done {
		return ErrNotQuiescent
	}
	n := handle.head
	for n != nil {
		next := loadPointer(&n.retireNext)
		storePointer(&n.retireNext, nil)
		n = (*base)(next)
	}
	handle.head = nil
	handle.done = true
	return nil
}
