package tree

import (
	"strings"

	"github.com/benz9527/xtree/lib/infra"
)

type treeOptions struct {
	observer func(RebalanceEvent)
}

func (opts *treeOptions) notify(event RebalanceEvent) {
	if opts.observer != nil {
		opts.observer(event)
	}
}

type TreeOption func(*treeOptions)

// WithRebalanceObserver registers fn to be called synchronously on
// every rotation and every recoloring done by the engine.
func WithRebalanceObserver(fn func(RebalanceEvent)) TreeOption {
	return func(opts *treeOptions) {
		opts.observer = fn
	}
}

func applyTreeOptions(opts ...TreeOption) treeOptions {
	res := treeOptions{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(&res)
	}
	return res
}

func ParseKind(kind string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case RedBlack.String():
		return RedBlack, nil
	case AVL.String():
		return AVL, nil
	default:
	}
	return 0, ErrUnknownTreeKind
}

func New[K infra.Unsigned](kind Kind, opts ...TreeOption) (BalancedTree[K], error) {
	switch kind {
	case RedBlack:
		return NewRBTree[K](opts...), nil
	case AVL:
		return NewAVLTree[K](opts...), nil
	default:
	}
	return nil, ErrUnknownTreeKind
}
