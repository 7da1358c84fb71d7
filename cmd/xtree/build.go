package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/google/safeopen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
)

type buildConfig struct {
	Engine string
	Dir    string
	File   string
}

func newBuildCmd(config *baseConfiguration) *cobra.Command {
	bc := &buildConfig{}
	cmd := &cobra.Command{
		Use:   "build [keys...]",
		Short: "Builds a tree from the given keys and prints its structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, config, bc, args)
		},
	}
	cmd.Flags().StringVarP(&bc.Engine, "engine", "e", tree.RedBlack.String(), "tree engine, one of: rb, avl")
	cmd.Flags().StringVar(&bc.Dir, "dir", ".", "directory the keys file is opened beneath")
	cmd.Flags().StringVarP(&bc.File, "file", "f", "", "whitespace separated keys file, relative to --dir")
	return cmd
}

func runBuild(cmd *cobra.Command, config *baseConfiguration, bc *buildConfig, args []string) error {
	ctx := cmd.Context()
	kind, err := tree.ParseKind(bc.Engine)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "engine "+bc.Engine)
	}
	keys, err := parseKeys(args)
	if err != nil {
		return err
	}
	if bc.File != "" {
		fileKeys, err := readKeysFile(bc.Dir, bc.File)
		if err != nil {
			return err
		}
		keys = append(fileKeys, keys...)
	}

	stats, err := observability.NewTreeStats(kind, observability.WithMeterProvider(config.meters))
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	t, err := tree.New[uint32](kind, tree.WithRebalanceObserver(stats.Observer()))
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	defer t.Release()

	out := cmd.OutOrStdout()
	for _, key := range keys {
		err = t.Insert(key)
		stats.RecordInsert(ctx, err)
		if errors.Is(err, tree.ErrDuplicateKey) {
			if _, err = fmt.Fprintf(out, "duplicate key: %d\n", key); err != nil {
				return infra.WrapErrorStack(err)
			}
			continue
		} else if err != nil {
			return infra.WrapErrorStackWithMessage(err, fmt.Sprintf("insert %d", key))
		}
	}
	config.logger.DebugContext(ctx, "tree built",
		zap.String("engine", kind.String()),
		zap.Int("keys", len(keys)),
		zap.Int64("size", t.Len()),
	)

	if t.IsEmpty() {
		_, err = fmt.Fprintln(out, "the tree is empty")
		return err
	}
	if _, err = fmt.Fprintln(out, "printing tree with its structure..."); err != nil {
		return infra.WrapErrorStack(err)
	}
	if err = t.Render(out); err != nil {
		return infra.WrapErrorStack(err)
	}
	_, err = fmt.Fprintf(out, "tree height: %d\nnumber of leaves: %d\n", t.Height(), t.LeafCount())
	return err
}

func parseKeys(tokens []string) ([]uint32, error) {
	keys := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		key, err := infra.ParseUnsigned[uint32](tok)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "invalid key "+tok)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// readKeysFile refuses paths escaping dir.
func readKeysFile(dir, name string) ([]uint32, error) {
	f, err := safeopen.OpenBeneath(dir, name)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "open keys file")
	}
	defer func() {
		_ = f.Close()
	}()
	return scanKeys(f)
}

func scanKeys(r io.Reader) ([]uint32, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "read keys file")
	}
	return parseKeys(tokens)
}
