package compare

import (
	"context"
	"sync"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

type Config struct {
	// Count of distinct keys inserted into every engine.
	Count int
	// Sequential inserts 0..Count-1 in ascending order instead of a
	// shuffled permutation.
	Sequential bool
	Kinds      []tree.Kind
	Logger     xlog.XLogger
	// Stats is optional, indexed by engine kind.
	Stats map[tree.Kind]*observability.TreeStats
}

type Report struct {
	Kind      tree.Kind
	Size      int64
	Height    int64
	Leaves    int64
	Rotations int64
	Recolors  int64
	Elapsed   time.Duration
}

func Keys(count int, sequential bool) []uint32 {
	keys := lo.Map(lo.Range(count), func(i int, _ int) uint32 {
		return uint32(i)
	})
	if sequential {
		return keys
	}
	return lo.Shuffle(keys)
}

// Run builds one tree per engine from the same keys. Every build task
// owns its tree, the reports come back in the order of cfg.Kinds.
func Run(ctx context.Context, cfg Config) ([]Report, error) {
	if cfg.Count <= 0 {
		return nil, infra.NewErrorStack("compare count must be positive")
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []tree.Kind{tree.RedBlack, tree.AVL}
	}
	if cfg.Logger == nil {
		cfg.Logger = xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelError), xlog.WithXLoggerStdErrWriter())
	}

	keys := Keys(cfg.Count, cfg.Sequential)
	pool, err := antsv2.NewPool(len(cfg.Kinds), antsv2.WithLogger(xlog.NewAntsXLogger(cfg.Logger)))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "compare pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		reports = make([]Report, len(cfg.Kinds))
		errs    = make([]error, len(cfg.Kinds))
	)
	for i, kind := range cfg.Kinds {
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			reports[i], errs[i] = build(ctx, kind, keys, cfg.Stats[kind])
		}); err != nil {
			wg.Done()
			errs[i] = infra.WrapErrorStackWithMessage(err, "submit "+kind.String())
		}
	}
	wg.Wait()

	if err = multierr.Combine(errs...); err != nil {
		cfg.Logger.ErrorStackContext(ctx, infra.WrapErrorStack(err), "compare failed")
		return nil, err
	}
	for _, r := range reports {
		cfg.Logger.InfoContext(ctx, "tree built",
			zap.String("engine", r.Kind.String()),
			zap.Int64("size", r.Size),
			zap.Int64("height", r.Height),
			zap.Int64("rotations", r.Rotations),
			zap.Int64("recolors", r.Recolors),
			zap.Duration("elapsed", r.Elapsed),
		)
	}
	return reports, nil
}

func build(ctx context.Context, kind tree.Kind, keys []uint32, stats *observability.TreeStats) (Report, error) {
	report := Report{Kind: kind}
	statsObserver := stats.Observer()
	t, err := tree.New[uint32](kind, tree.WithRebalanceObserver(func(event tree.RebalanceEvent) {
		switch event {
		case tree.EventRecolor:
			report.Recolors++
		default:
			report.Rotations++
		}
		statsObserver(event)
	}))
	if err != nil {
		return report, infra.WrapErrorStack(err)
	}
	defer t.Release()

	start := time.Now()
	for i, key := range keys {
		if i&0x3ff == 0 {
			if err = ctx.Err(); err != nil {
				return report, infra.WrapErrorStackWithMessage(err, "build "+kind.String())
			}
		}
		err = t.Insert(key)
		stats.RecordInsert(ctx, err)
		if err != nil {
			return report, infra.WrapErrorStackWithMessage(err, "build "+kind.String())
		}
	}
	report.Elapsed = time.Since(start)
	report.Size = t.Len()
	report.Height = t.Height()
	report.Leaves = t.LeafCount()

	if err = validate(t); err != nil {
		return report, infra.WrapErrorStackWithMessage(err, "validate "+kind.String())
	}
	return report, nil
}

func validate(t tree.BalancedTree[uint32]) error {
	errs := []error{tree.OrderValidate[uint32](t)}
	switch x := t.(type) {
	case tree.RBTree[uint32]:
		errs = append(errs,
			tree.RootColorValidate[uint32](x),
			tree.RedViolationValidate[uint32](x),
			tree.BlackViolationValidate[uint32](x),
			tree.ParentLinkValidate[uint32](x),
		)
	case tree.AVLTree[uint32]:
		errs = append(errs,
			tree.BalanceViolationValidate[uint32](x),
			tree.HeightCacheValidate[uint32](x),
		)
	default:
	}
	return multierr.Combine(errs...)
}
