package tree

import (
	"errors"

	"github.com/benz9527/xtree/lib/infra"
)

// avltree rule validation utilities.

func avlNodeHeight[K infra.Unsigned](node AVLNode[K]) int64 {
	if node == nil {
		return 0
	}
	return max(avlNodeHeight(node.Left()), avlNodeHeight(node.Right())) + 1
}

// BalanceViolationValidate checks |height(left) - height(right)| <= 1
// for every node, with the heights recomputed from the structure.
func BalanceViolationValidate[K infra.Unsigned](tree AVLTree[K]) error {
	var walk func(node AVLNode[K]) (int64, error)
	walk = func(node AVLNode[K]) (int64, error) {
		if node == nil {
			return 0, nil
		}
		lh, err := walk(node.Left())
		if err != nil {
			return 0, err
		}
		rh, err := walk(node.Right())
		if err != nil {
			return 0, err
		}
		if bf := lh - rh; bf > 1 || bf < -1 {
			return 0, errors.New("avltree balance violation")
		}
		return max(lh, rh) + 1, nil
	}
	_, err := walk(tree.Root())
	return err
}

// HeightCacheValidate compares every cached height against the
// height recomputed from the structure.
func HeightCacheValidate[K infra.Unsigned](tree AVLTree[K]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}

	stack := make([]AVLNode[K], 0, 32)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, root)
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		if aux.Height() != avlNodeHeight(aux) {
			return errors.New("avltree height cache violation")
		}
		if l := aux.Left(); l != nil {
			stack = append(stack, l)
		}
		if r := aux.Right(); r != nil {
			stack = append(stack, r)
		}
	}
	return nil
}
