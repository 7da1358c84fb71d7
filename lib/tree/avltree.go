package tree

import (
	"fmt"
	"io"
	"iter"

	"github.com/benz9527/xtree/lib/infra"
)

type avlNode[K infra.Unsigned] struct {
	left, right *avlNode[K]
	key         K
	height      int64
}

func (node *avlNode[K]) Key() K {
	return node.key
}

func (node *avlNode[K]) Height() int64 {
	return node.height
}

func (node *avlNode[K]) BalanceFactor() int64 {
	return avlHeight(node.left) - avlHeight(node.right)
}

// A nil child is returned as a nil interface.
func (node *avlNode[K]) Left() AVLNode[K] {
	if node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[K]) Right() AVLNode[K] {
	if node.right == nil {
		return nil
	}
	return node.right
}

func avlHeight[K infra.Unsigned](node *avlNode[K]) int64 {
	if node == nil {
		return 0
	}
	return node.height
}

func (node *avlNode[K]) fixHeight() {
	node.height = max(avlHeight(node.left), avlHeight(node.right)) + 1
}

type avlTree[K infra.Unsigned] struct {
	root  *avlNode[K]
	count int64
	opts  treeOptions
}

var _ AVLTree[uint32] = (*avlTree[uint32])(nil)

func (tree *avlTree[K]) Kind() Kind {
	return AVL
}

func (tree *avlTree[K]) Len() int64 {
	return tree.count
}

func (tree *avlTree[K]) IsEmpty() bool {
	return tree.root == nil
}

func (tree *avlTree[K]) Root() AVLNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *avlTree[K]) Contains(key K) bool {
	for aux := tree.root; aux != nil; {
		res := infra.UnsignedCompare(key, aux.key)
		if res == 0 {
			return true
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return false
}

func (tree *avlTree[K]) Insert(key K) error {
	if tree.Contains(key) {
		return ErrDuplicateKey
	}
	tree.root = tree.insert(tree.root, key)
	tree.count++
	return nil
}

func (tree *avlTree[K]) insert(node *avlNode[K], key K) *avlNode[K] {
	if node == nil {
		return &avlNode[K]{key: key, height: 1}
	}
	if infra.UnsignedCompare(key, node.key) > 0 {
		node.right = tree.insert(node.right, key)
	} else {
		node.left = tree.insert(node.left, key)
	}
	return tree.balance(node)
}

/*
	   |                        |
	   X                        R
	  / \    leftRotate(X)     / \
	 L   R   ============>    X   Rr
	    / \                  / \
	  Rl   Rr               L   Rl
*/
func (tree *avlTree[K]) leftRotate(x *avlNode[K]) *avlNode[K] {
	r := x.right
	x.right = r.left
	r.left = x
	x.fixHeight()
	r.fixHeight()
	tree.opts.notify(EventRotateLeft)
	return r
}

/*
	     |                         |
	     X                         L
	    / \    rightRotate(X)     / \
	   L   R   =============>   Ll   X
	  / \                           / \
	Ll   Lr                       Lr   R
*/
func (tree *avlTree[K]) rightRotate(x *avlNode[K]) *avlNode[K] {
	l := x.left
	x.left = l.right
	l.right = x
	x.fixHeight()
	l.fixHeight()
	tree.opts.notify(EventRotateRight)
	return l
}

// The balance factor of node is in [-2, 2] after a single insertion
// into one of its subtrees.
func (tree *avlTree[K]) balance(node *avlNode[K]) *avlNode[K] {
	node.fixHeight()
	switch bf := node.BalanceFactor(); {
	case bf > 1:
		if node.left.BalanceFactor() < 0 {
			node.left = tree.leftRotate(node.left)
		}
		return tree.rightRotate(node)
	case bf < -1:
		if node.right.BalanceFactor() > 0 {
			node.right = tree.rightRotate(node.right)
		}
		return tree.leftRotate(node)
	default:
	}
	return node
}

func (tree *avlTree[K]) Remove(key K) error {
	return ErrUnsupportedOperation
}

func (tree *avlTree[K]) LeafCount() int64 {
	return avlLeafCount(tree.root)
}

func avlLeafCount[K infra.Unsigned](node *avlNode[K]) int64 {
	if node == nil {
		return 0
	}
	if node.left == nil && node.right == nil {
		return 1
	}
	return avlLeafCount(node.left) + avlLeafCount(node.right)
}

func (tree *avlTree[K]) Height() int64 {
	return avlHeight(tree.root)
}

func (tree *avlTree[K]) InOrder() iter.Seq[K] {
	return func(yield func(K) bool) {
		stack := make([]*avlNode[K], 0, tree.Height()+1)
		defer func() {
			clear(stack)
		}()

		for aux := tree.root; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
		for size := len(stack); size > 0; size = len(stack) {
			aux := stack[size-1]
			if !yield(aux.key) {
				return
			}
			stack = stack[:size-1]
			for aux = aux.right; aux != nil; aux = aux.left {
				stack = append(stack, aux)
			}
		}
	}
}

// Render prints the tree in preorder. The root and every right child
// hang from "└── ", every left child hangs from "├── ".
//
//	└── 20
//	    ├── 10
//	    └── 30
func (tree *avlTree[K]) Render(w io.Writer) error {
	return avlRender(w, tree.root, "", false)
}

func avlRender[K infra.Unsigned](w io.Writer, node *avlNode[K], prefix string, isLeft bool) error {
	if node == nil {
		return nil
	}
	branch, indent := "└── ", "    "
	if isLeft {
		branch, indent = "├── ", "│   "
	}
	if _, err := fmt.Fprintf(w, "%s%s%d\n", prefix, branch, node.key); err != nil {
		return err
	}
	if err := avlRender(w, node.left, prefix+indent, true); err != nil {
		return err
	}
	return avlRender(w, node.right, prefix+indent, false)
}

func (tree *avlTree[K]) Release() {
	tree.root = nil
	tree.count = 0
}

func NewAVLTree[K infra.Unsigned](opts ...TreeOption) AVLTree[K] {
	return &avlTree[K]{
		opts: applyTreeOptions(opts...),
	}
}
