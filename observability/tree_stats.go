package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

const treeMeterName = "xtree/tree"

// TreeStats counts the inserts and the rebalance work of one engine.
// The counters are safe for concurrent use, the trees are not.
type TreeStats struct {
	kind       tree.Kind
	attrs      metric.MeasurementOption
	inserts    metric.Int64Counter
	duplicates metric.Int64Counter
	rotations  metric.Int64Counter
	recolors   metric.Int64Counter
}

type statsOptions struct {
	mp metric.MeterProvider
}

type StatsOption func(*statsOptions)

// WithMeterProvider defaults to the otel global provider.
func WithMeterProvider(mp metric.MeterProvider) StatsOption {
	return func(opts *statsOptions) {
		opts.mp = mp
	}
}

func NewTreeStats(kind tree.Kind, opts ...StatsOption) (*TreeStats, error) {
	o := &statsOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.mp == nil {
		o.mp = otel.GetMeterProvider()
	}

	meter := o.mp.Meter(treeMeterName)
	stats := &TreeStats{
		kind:  kind,
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("engine", kind.String()))),
	}
	var err error
	if stats.inserts, err = meter.Int64Counter(
		"xtree.tree.inserts",
		metric.WithDescription("The keys inserted into the tree."),
	); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create inserts counter")
	}
	if stats.duplicates, err = meter.Int64Counter(
		"xtree.tree.duplicates",
		metric.WithDescription("The inserts rejected as duplicate keys."),
	); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create duplicates counter")
	}
	if stats.rotations, err = meter.Int64Counter(
		"xtree.tree.rotations",
		metric.WithDescription("The single rotations done by the rebalancing."),
	); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create rotations counter")
	}
	if stats.recolors, err = meter.Int64Counter(
		"xtree.tree.recolors",
		metric.WithDescription("The red-black recolor and propagate steps."),
	); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create recolors counter")
	}
	return stats, nil
}

func (stats *TreeStats) Kind() tree.Kind {
	return stats.kind
}

// RecordInsert counts the outcome of a single Insert call.
func (stats *TreeStats) RecordInsert(ctx context.Context, err error) {
	if stats == nil {
		return
	}
	switch {
	case err == nil:
		stats.inserts.Add(ctx, 1, stats.attrs)
	case errors.Is(err, tree.ErrDuplicateKey):
		stats.duplicates.Add(ctx, 1, stats.attrs)
	default:
	}
}

// Observer is plugged into tree.WithRebalanceObserver.
func (stats *TreeStats) Observer() func(tree.RebalanceEvent) {
	return func(event tree.RebalanceEvent) {
		if stats == nil {
			return
		}
		switch event {
		case tree.EventRotateLeft, tree.EventRotateRight:
			stats.rotations.Add(context.Background(), 1, stats.attrs)
		case tree.EventRecolor:
			stats.recolors.Add(context.Background(), 1, stats.attrs)
		default:
		}
	}
}
