// pkg/masstree/node.go
package masstree

import "unsafe"

// base is embedded as the first field of both leafNode and internalNode so
// that a pointer obtained via unsafe.Pointer traversal (children, siblings,
// retirement links) can be reinterpreted as *base, have its version word
// inspected for IS_BORDER, and only then be cast to the concrete leaf or
// internal type. This mirrors the original's node_base/border_node/
// internode layering (original_source/index/masstree/src/masstree.c) and
// the teacher's habit of storing heterogeneous child pointers as
// unsafe.Pointer and deciding how to interpret them at the call site
// (pkg/cowbtree/node.go's children []unsafe.Pointer).
type base struct {
	version uint32 // atomic; see version.go

	parent     unsafe.Pointer // *base, unowned back-reference
	retireNext unsafe.Pointer // *base, retirement-list link only
}

func (b *base) asLeaf() *leafNode {
	return (*leafNode)(unsafe.Pointer(b))
}

func (b *base) asInternal() *internalNode {
	return (*internalNode)(unsafe.Pointer(b))
}

func basePtr(p unsafe.Pointer) *base {
	return (*base)(p)
}

// loadParent returns the current parent, or nil if this is a root.
func (b *base) loadParent() *base {
	p := loadPointer(&b.parent)
	if p == nil {
		return nil
	}
	return (*base)(p)
}

func (b *base) storeParent(p *base) {
	storePointer(&b.parent, unsafe.Pointer(p))
}

// walkToRoot follows parent links until a node with IS_ROOT set is found.
// Used to correct a stale root pointer discovered during descent (spec.md
// §4.5 step 1, §4.6 LAYER-entry root fix-up).
func walkToRoot(n *base) *base {
	cur := n
	for {
		v := stableVersion(&cur.version)
		if isRoot(v) {
			return cur
		}
		p := cur.loadParent()
		if p == nil {
			return cur
		}
		cur = p
	}
}
