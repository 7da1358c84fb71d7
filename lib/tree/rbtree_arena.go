package tree

import (
	"math"

	"github.com/benz9527/xtree/lib/infra"
)

// nilRef is the reserved offset of the nil node.
// The zero value node stored at offset 0 is black and has no children,
// so it is read as a NIL leaf everywhere. It must never be written.
const nilRef uint32 = 0

type rbNode[K infra.Unsigned] struct {
	key    K
	parent uint32 // back-reference only, never owns
	left   uint32
	right  uint32
	color  RBColor
}

// rbArena owns every node of a red-black tree.
// Nodes are addressed by offset, so the parent link carries no
// ownership and the nodes are released together with the arena.
type rbArena[K infra.Unsigned] struct {
	nodes []rbNode[K]
}

func newRBArena[K infra.Unsigned](capacity int) *rbArena[K] {
	return &rbArena[K]{
		nodes: make([]rbNode[K], 1 /* non-zero offset */, capacity+1),
	}
}

// The returned offset is stable, but a node pointer returned by at()
// is invalidated by the next allocation.
func (arena *rbArena[K]) allocate(key K, color RBColor) uint32 {
	if uint64(len(arena.nodes)) >= math.MaxUint32 {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] arena offset overflow")
	}
	arena.nodes = append(arena.nodes, rbNode[K]{
		key:   key,
		color: color,
	})
	return uint32(len(arena.nodes) - 1)
}

func (arena *rbArena[K]) at(ref uint32) *rbNode[K] {
	return &arena.nodes[ref]
}

func (arena *rbArena[K]) size() int64 {
	return int64(len(arena.nodes) - 1)
}

func (arena *rbArena[K]) isRed(ref uint32) bool {
	return ref != nilRef && arena.nodes[ref].color == Red
}

func (arena *rbArena[K]) isBlack(ref uint32) bool {
	return !arena.isRed(ref)
}

func (arena *rbArena[K]) paint(ref uint32, color RBColor) {
	if ref == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] paint the nil leaf")
	}
	arena.nodes[ref].color = color
}

func (arena *rbArena[K]) linkLeft(parent, child uint32) {
	arena.nodes[parent].left = child
	if child != nilRef {
		arena.nodes[child].parent = parent
	}
}

func (arena *rbArena[K]) linkRight(parent, child uint32) {
	arena.nodes[parent].right = child
	if child != nilRef {
		arena.nodes[child].parent = parent
	}
}

func (arena *rbArena[K]) release() {
	clear(arena.nodes)
	arena.nodes = arena.nodes[:1]
}

// rbNodeView is a read-only handle to a node in the arena.
type rbNodeView[K infra.Unsigned] struct {
	arena *rbArena[K]
	ref   uint32
}

func (arena *rbArena[K]) view(ref uint32) RBNode[K] {
	if ref == nilRef {
		return nil
	}
	return rbNodeView[K]{arena: arena, ref: ref}
}

func (v rbNodeView[K]) Key() K {
	return v.arena.nodes[v.ref].key
}

func (v rbNodeView[K]) Color() RBColor {
	return v.arena.nodes[v.ref].color
}

func (v rbNodeView[K]) Left() RBNode[K] {
	return v.arena.view(v.arena.nodes[v.ref].left)
}

func (v rbNodeView[K]) Right() RBNode[K] {
	return v.arena.view(v.arena.nodes[v.ref].right)
}

func (v rbNodeView[K]) Parent() RBNode[K] {
	return v.arena.view(v.arena.nodes[v.ref].parent)
}
