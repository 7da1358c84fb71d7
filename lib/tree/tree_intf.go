package tree

import (
	"io"
	"iter"

	"github.com/benz9527/xtree/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=Kind -linecomment
type Kind uint8

const (
	RedBlack Kind = iota // rb
	AVL                  // avl
)

//go:generate stringer -type=RebalanceEvent
type RebalanceEvent uint8

const (
	EventRotateLeft RebalanceEvent = iota
	EventRotateRight
	EventRecolor
)

type RBNode[K infra.Unsigned] interface {
	Key() K
	Color() RBColor
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

type AVLNode[K infra.Unsigned] interface {
	Key() K
	// Height is the cached height, a leaf is 1.
	Height() int64
	// BalanceFactor is height(left) - height(right).
	BalanceFactor() int64
	Left() AVLNode[K]
	Right() AVLNode[K]
}

// BalancedTree is the capability surface shared by the red-black
// and the AVL engines.
// The trees are not safe for concurrent use. The owner has to
// guarantee exclusive access for the duration of each call.
type BalancedTree[K infra.Unsigned] interface {
	Kind() Kind
	Len() int64
	// Insert returns ErrDuplicateKey and leaves the tree untouched
	// if the key is present.
	Insert(key K) error
	Contains(key K) bool
	// Remove is not supported by either engine.
	Remove(key K) error
	// LeafCount counts the nodes without children.
	LeafCount() int64
	// Height is 0 for an empty tree and 1 for a single node.
	Height() int64
	IsEmpty() bool
	// InOrder returns a lazy ascending sequence of keys. The sequence
	// can be ranged over again and again, until the tree is mutated.
	InOrder() iter.Seq[K]
	// Render writes the tree structure, one line per node.
	Render(w io.Writer) error
	Release()
}

type RBTree[K infra.Unsigned] interface {
	BalancedTree[K]
	Root() RBNode[K]
	Foreach(action func(idx int64, color RBColor, key K) bool)
}

type AVLTree[K infra.Unsigned] interface {
	BalancedTree[K]
	Root() AVLNode[K]
}
