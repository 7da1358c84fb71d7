package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/benz9527/xtree/internal/compare"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
)

type compareConfig struct {
	Count      int
	Sequential bool
	Engines    []string
}

func newCompareCmd(config *baseConfiguration) *cobra.Command {
	cc := &compareConfig{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Builds every engine from the same keys and compares the trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, config, cc)
		},
	}
	cmd.Flags().IntVarP(&cc.Count, "count", "n", 10000, "number of distinct keys")
	cmd.Flags().BoolVar(&cc.Sequential, "sequential", false, "insert the keys in ascending order")
	cmd.Flags().StringSliceVar(&cc.Engines, "engines", []string{tree.RedBlack.String(), tree.AVL.String()}, "engines to compare")
	return cmd
}

func runCompare(cmd *cobra.Command, config *baseConfiguration, cc *compareConfig) error {
	kinds := make([]tree.Kind, 0, len(cc.Engines))
	for _, engine := range lo.Uniq(cc.Engines) {
		kind, err := tree.ParseKind(engine)
		if err != nil {
			return infra.WrapErrorStackWithMessage(err, "engine "+engine)
		}
		kinds = append(kinds, kind)
	}

	stats := make(map[tree.Kind]*observability.TreeStats, len(kinds))
	for _, kind := range kinds {
		s, err := observability.NewTreeStats(kind, observability.WithMeterProvider(config.meters))
		if err != nil {
			return infra.WrapErrorStack(err)
		}
		stats[kind] = s
	}

	reports, err := compare.Run(cmd.Context(), compare.Config{
		Count:      cc.Count,
		Sequential: cc.Sequential,
		Kinds:      kinds,
		Logger:     config.logger,
		Stats:      stats,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ENGINE\tSIZE\tHEIGHT\tLEAVES\tROTATIONS\tRECOLORS\tELAPSED")
	for _, r := range reports {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Kind, r.Size, r.Height, r.Leaves, r.Rotations, r.Recolors, r.Elapsed)
	}
	return w.Flush()
}
