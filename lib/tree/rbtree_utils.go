package tree

import (
	"errors"

	"github.com/benz9527/xtree/lib/infra"
)

func isBlack[K infra.Unsigned](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K infra.Unsigned](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K infra.Unsigned](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil && aux.Key() != to.Key(); aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootColorValidate[K infra.Unsigned](tree RBTree[K]) error {
	if root := tree.Root(); root != nil && (root.Color() != Black || root.Parent() != nil) {
		return errors.New("rbtree root violation")
	}
	return nil
}

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K infra.Unsigned](tree RBTree[K]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	stack := make([]RBNode[K], 0, 32)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; isRed[K](aux) {
			if isRed[K](aux.Parent()) || isRed[K](aux.Left()) || isRed[K](aux.Right()) {
				return errors.New("rbtree red violation")
			}
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// ParentLinkValidate walks down from the root, every child has to point
// back to the node holding it.
func ParentLinkValidate[K infra.Unsigned](tree RBTree[K]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil {
		return errors.New("rbtree parent link violation")
	}

	stack := make([]RBNode[K], 0, 32)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, root)

	var count int64
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		count++
		for _, child := range [2]RBNode[K]{aux.Left(), aux.Right()} {
			if child == nil {
				continue
			}
			if child.Parent() != aux {
				return errors.New("rbtree parent link violation")
			}
			stack = append(stack, child)
		}
	}
	if count != tree.Len() {
		return errors.New("rbtree size violation")
	}
	return nil
}

// BFS traversal to load all nodes with at least one nil child.
func bfsLeaves[K infra.Unsigned](tree RBTree[K]) []RBNode[K] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K], 0, tree.Len()>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.Unsigned](tree RBTree[K]) error {
	leaves := bfsLeaves[K](tree)
	if leaves == nil {
		return nil
	}

	root := tree.Root()
	blackDepth := blackDepthTo[K](leaves[0], root)
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo[K](leaves[i], root) != blackDepth {
			return errors.New("rbtree black violation")
		}
	}
	return nil
}

// OrderValidate checks that the keys come out strictly ascending and
// that the sequence length matches the tree size.
func OrderValidate[K infra.Unsigned](tree BalancedTree[K]) error {
	var (
		prev  K
		count int64
	)
	for key := range tree.InOrder() {
		if count > 0 && prev >= key {
			return errors.New("tree order violation")
		}
		prev = key
		count++
	}
	if count != tree.Len() {
		return errors.New("tree size violation")
	}
	return nil
}
