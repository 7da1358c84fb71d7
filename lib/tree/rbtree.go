package tree

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/benz9527/xtree/lib/infra"
)

// rbFix names the rotation pattern a frame asks its caller frame
// (the parent of the red-red chain) to apply.
// "<direction of the red-red chain>_<direction of the fix>"
type rbFix uint8

const (
	rbFixNone rbFix = iota
	// right_R: the chain is left-left, rotate right.
	rbFixRightR
	// right_L: the chain is right-left, rotate right then left.
	rbFixRightL
	// left_L: the chain is right-right, rotate left.
	rbFixLeftL
	// left_R: the chain is left-right, rotate left then right.
	rbFixLeftR
)

type rbTree[K infra.Unsigned] struct {
	arena *rbArena[K]
	root  uint32
	opts  treeOptions
}

var _ RBTree[uint32] = (*rbTree[uint32])(nil)

func (tree *rbTree[K]) Kind() Kind {
	return RedBlack
}

func (tree *rbTree[K]) Len() int64 {
	return tree.arena.size()
}

func (tree *rbTree[K]) IsEmpty() bool {
	return tree.root == nilRef
}

func (tree *rbTree[K]) Root() RBNode[K] {
	return tree.arena.view(tree.root)
}

func (tree *rbTree[K]) search(key K) uint32 {
	for aux := tree.root; aux != nilRef; {
		node := tree.arena.at(aux)
		res := infra.UnsignedCompare(key, node.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = node.right
		} else {
			aux = node.left
		}
	}
	return nilRef
}

func (tree *rbTree[K]) Contains(key K) bool {
	return tree.search(key) != nilRef
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

The new subtree root S inherits X's parent link, but X's parent
still points to X. The caller re-attaches S.
*/
func (tree *rbTree[K]) leftRotate(x uint32) uint32 {
	a := tree.arena
	s := a.at(x).right
	if x == nilRef || s == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	a.linkRight(x, a.at(s).left)
	a.at(s).parent = a.at(x).parent
	a.linkLeft(s, x)
	tree.opts.notify(EventRotateLeft)
	return s
}

/*
			 |                         |
			 X                         L
			/ \     rightRotate(X)    / \
	       L   S    ============>    Ld  X
		  / \                           / \
		Ld   Lc                        Lc  S
*/
func (tree *rbTree[K]) rightRotate(x uint32) uint32 {
	a := tree.arena
	l := a.at(x).left
	if x == nilRef || l == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	a.linkLeft(x, a.at(l).right)
	a.at(l).parent = a.at(x).parent
	a.linkRight(l, x)
	tree.opts.notify(EventRotateRight)
	return l
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
// i2: Duplicate key, rejected before the descent.
// i3: Otherwise, recursive descent and rebalance on the way back up.
func (tree *rbTree[K]) Insert(key K) error {
	if /* i1 */ tree.root == nilRef {
		tree.root = tree.arena.allocate(key, Black)
		return nil
	}

	if /* i2 */ tree.search(key) != nilRef {
		return ErrDuplicateKey
	}

	/* i3 */
	root, fix := tree.insert(tree.root, key)
	if fix != rbFixNone {
		// impossible run to here, the root frame never asks for a fix.
		panic( /* debug assertion */ "[rbtree] unconsumed fix above the root")
	}
	tree.root = root
	node := tree.arena.at(root)
	node.parent = nilRef
	node.color = Black
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

Each frame returns its (maybe new) subtree root and the fix that its
caller frame has to apply. A frame detects a red-red conflict between
itself and the child it just re-attached, then it looks at its own
sibling through the parent link.

im1: The sibling U is red, recolor and propagate.
Paint X and U into black, and P into red unless P is the root.
The grandpa frame may detect a new red-red conflict.

	    [P]             <P>
	    / \             / \
	  <X> <U>  ====>  [X] [U]
	  /               /
	<C>             <C>

im2: The sibling U is black (or NIL), ask the parent frame to rotate.

	    [P]                 <X>               [X]
	    / \    rotate(P)    / \    repaint    / \
	  <X> [U]  ========>  <C> [P]  ======>  <C> <P>
	  /                         \                 \
	<C>                         [U]               [U]

If C is the opposite direction to X, X is rotated first (the
right_L and left_R patterns).
*/
func (tree *rbTree[K]) insert(x uint32, key K) (uint32, rbFix) {
	a := tree.arena
	if x == nilRef {
		return a.allocate(key, Red), rbFixNone
	}

	var (
		conflicted bool
		pending    rbFix
		child      uint32
	)
	if infra.UnsignedCompare(key, a.at(x).key) > 0 {
		child, pending = tree.insert(a.at(x).right, key)
		a.linkRight(x, child)
	} else {
		child, pending = tree.insert(a.at(x).left, key)
		a.linkLeft(x, child)
	}
	if x != tree.root {
		conflicted = a.isRed(x) && a.isRed(child)
	}

	x = tree.applyFix(x, pending)

	if conflicted {
		return x, tree.resolveConflict(x)
	}
	return x, rbFixNone
}

// The priority is right_R, right_L, left_L, left_R.
// Exactly one fix is consumed.
func (tree *rbTree[K]) applyFix(x uint32, fix rbFix) uint32 {
	a := tree.arena
	switch fix {
	case rbFixRightR:
		x = tree.rightRotate(x)
		a.paint(x, Black)
		a.paint(a.at(x).right, Red)
	case rbFixRightL:
		a.linkRight(x, tree.rightRotate(a.at(x).right))
		x = tree.leftRotate(x)
		a.paint(x, Black)
		a.paint(a.at(x).left, Red)
	case rbFixLeftL:
		x = tree.leftRotate(x)
		a.paint(x, Black)
		a.paint(a.at(x).left, Red)
	case rbFixLeftR:
		a.linkLeft(x, tree.leftRotate(a.at(x).left))
		x = tree.rightRotate(x)
		a.paint(x, Black)
		a.paint(a.at(x).right, Red)
	case rbFixNone:
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown fix")
	}
	return x
}

// x is red and has a red child, x is not the root.
func (tree *rbTree[K]) resolveConflict(x uint32) rbFix {
	a := tree.arena
	p := a.at(x).parent
	if p == nilRef {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] red-red conflict without parent")
	}

	var sibling uint32
	if /* right child */ a.at(p).right == x {
		if sibling = a.at(p).left; /* im2 */ a.isBlack(sibling) {
			if a.isRed(a.at(x).left) {
				return rbFixRightL
			} else if a.isRed(a.at(x).right) {
				return rbFixLeftL
			}
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] red-red conflict without red child")
		}
	} else /* left child */ {
		if sibling = a.at(p).right; /* im2 */ a.isBlack(sibling) {
			if a.isRed(a.at(x).left) {
				return rbFixRightR
			} else if a.isRed(a.at(x).right) {
				return rbFixLeftR
			}
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] red-red conflict without red child")
		}
	}

	/* im1 */
	a.paint(sibling, Black)
	a.paint(x, Black)
	if p != tree.root {
		a.paint(p, Red)
	}
	tree.opts.notify(EventRecolor)
	return rbFixNone
}

func (tree *rbTree[K]) Remove(key K) error {
	return ErrUnsupportedOperation
}

func (tree *rbTree[K]) LeafCount() int64 {
	return tree.leafCount(tree.root)
}

func (tree *rbTree[K]) leafCount(x uint32) int64 {
	if x == nilRef {
		return 0
	}
	node := tree.arena.at(x)
	if node.left == nilRef && node.right == nilRef {
		return 1
	}
	return tree.leafCount(node.left) + tree.leafCount(node.right)
}

func (tree *rbTree[K]) Height() int64 {
	return tree.height(tree.root)
}

func (tree *rbTree[K]) height(x uint32) int64 {
	if x == nilRef {
		return 0
	}
	node := tree.arena.at(x)
	return max(tree.height(node.left), tree.height(node.right)) + 1
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	a := tree.arena
	aux := tree.root
	if aux == nilRef {
		return
	}

	stack := make([]uint32, 0, 32)
	defer func() {
		clear(stack)
	}()

	for ; aux != nilRef; aux = a.at(aux).left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		node := a.at(aux)
		if !action(idx, node.color, node.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = node.right; aux != nilRef; aux = a.at(aux).left {
			stack = append(stack, aux)
		}
	}
}

func (tree *rbTree[K]) InOrder() iter.Seq[K] {
	return func(yield func(K) bool) {
		tree.Foreach(func(_ int64, _ RBColor, key K) bool {
			return yield(key)
		})
	}
}

// Render prints the right subtree above the node above the left
// subtree. Each depth is indented by 5 spaces.
func (tree *rbTree[K]) Render(w io.Writer) error {
	return tree.render(w, tree.root, 0)
}

func (tree *rbTree[K]) render(w io.Writer, x uint32, depth int) error {
	if x == nilRef {
		return nil
	}
	node := tree.arena.at(x)
	if err := tree.render(w, node.right, depth+1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s[%s] %d\n", strings.Repeat(" ", depth*5), node.color, node.key); err != nil {
		return err
	}
	return tree.render(w, node.left, depth+1)
}

func (tree *rbTree[K]) Release() {
	tree.arena.release()
	tree.root = nilRef
}

func NewRBTree[K infra.Unsigned](opts ...TreeOption) RBTree[K] {
	return &rbTree[K]{
		arena: newRBArena[K](32),
		root:  nilRef,
		opts:  applyTreeOptions(opts...),
	}
}
