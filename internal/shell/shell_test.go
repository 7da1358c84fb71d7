package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

func testLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelError),
		xlog.WithXLoggerStdErrWriter(),
	)
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

func TestShell_Transcript(t *testing.T) {
	in := lines(
		"rb",
		"1", "10", "20", "30", "30", "abc", "done",
		"3", "4", "5", "6", "7",
		"2",
		"x", "9",
		"done",
		"avl",
		"7",
		"1", "30", "20", "10", "20", "done",
		"7",
		"done",
		"xyz",
		"done",
	)
	out := &bytes.Buffer{}
	sh := New(strings.NewReader(in), out, WithPrompt(false), WithLogger(testLogger()))
	require.NoError(t, sh.Run(context.Background()))

	expected := lines(
		"------------------------",
		"------------------------",
		"Red Black Tree",
		"---",
		"this node already exists!",
		"invalid input",
		"---",
		"---",
		"number of leaves: 2",
		"---",
		"---",
		"tree height: 2",
		"---",
		"---",
		"printing inorder traversal...",
		"10",
		"20",
		"30",
		"---",
		"---",
		"the tree is not empty",
		"---",
		"---",
		"printing tree with its structure...",
		"     [Red] 30",
		"[Black] 20",
		"     [Red] 10",
		"---",
		"---",
		"unfortunately, this feature has not been added yet",
		"---",
		"invalid input.",
		"invalid input.",
		"------------------------",
		"------------------------",
		"AVL Tree",
		"---",
		"cannot print tree with its structure",
		"",
		"---",
		"---",
		"this node already exists!",
		"---",
		"---",
		"printing tree with its structure...",
		"└── 20",
		"    ├── 10",
		"    └── 30",
		"---",
		"------------------------",
		"------------------------",
		"invalid input",
		"------------------------",
		"------------------------",
		"exited",
	)
	require.Equal(t, expected, out.String())
}

func TestShell_Prompts(t *testing.T) {
	out := &bytes.Buffer{}
	sh := New(strings.NewReader(lines("avl", "6", "1", "done", "done", "done")), out, WithLogger(testLogger()))
	require.NoError(t, sh.Run(context.Background()))

	res := out.String()
	require.True(t, strings.HasPrefix(res, lines(
		"------------------------",
		"Enter tree type (rb or avl): [done to exit]",
		"------------------------",
		"AVL Tree",
		"Enter command: [done to exit]",
		"1 - insert node",
	)))
	require.Contains(t, res, lines(
		"7 - print tree",
		"choose command:",
		"---",
		"the tree is empty",
		"---",
	))
	require.Contains(t, res, lines(
		"choose command:",
		"---",
		"insert node value: [done to exit]",
		"---",
	))
	require.True(t, strings.HasSuffix(res, "exited\n"))
}

func TestShell_EndOfInput(t *testing.T) {
	testcases := []string{
		"",
		lines("rb"),
		lines("rb", "1", "42"),
		lines("avl", "2"),
	}
	for _, in := range testcases {
		sh := New(strings.NewReader(in), &bytes.Buffer{}, WithPrompt(false), WithLogger(testLogger()))
		require.NoError(t, sh.Run(context.Background()))
	}
}

func TestShell_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sh := New(strings.NewReader(lines("rb", "done")), &bytes.Buffer{}, WithLogger(testLogger()))
	require.ErrorIs(t, sh.Run(ctx), context.Canceled)
}

func TestShell_DeleteReadsNoKey(t *testing.T) {
	for _, kind := range []string{"rb", "avl"} {
		t.Run(kind, func(tt *testing.T) {
			out := &bytes.Buffer{}
			in := lines(kind, "1", "5", "done", "2", "3", "done", "done")
			sh := New(strings.NewReader(in), out, WithPrompt(false), WithLogger(testLogger()))
			require.NoError(tt, sh.Run(context.Background()))
			require.Contains(tt, out.String(), lines(
				"---",
				"unfortunately, this feature has not been added yet",
				"---",
				"---",
				"number of leaves: 1",
				"---",
			))
			require.NotContains(tt, out.String(), "invalid input")
			require.True(tt, strings.HasSuffix(out.String(), "exited\n"))
		})
	}
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestShell_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() {
		_ = pw.Close()
	}()

	out := &syncBuffer{}
	sh := New(pr, out, WithPrompt(false), WithLogger(testLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() {
		errC <- sh.Run(ctx)
	}()

	_, err := pw.Write([]byte(lines("rb", "1", "7")))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Red Black Tree\n---\n")
	}, time.Second, 5*time.Millisecond)

	// The shell now waits for the next key, no more input is written.
	cancel()
	select {
	case err = <-errC:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("shell did not stop on cancel")
	}
}

var errBrokenPipe = errors.New("broken pipe")

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errBrokenPipe
}

func TestShell_BrokenOutput(t *testing.T) {
	sh := New(strings.NewReader(lines("rb", "done")), brokenWriter{}, WithLogger(testLogger()))
	require.ErrorIs(t, sh.Run(context.Background()), errBrokenPipe)
}

func TestShell_TreeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rbStats, err := observability.NewTreeStats(tree.RedBlack, observability.WithMeterProvider(mp))
	require.NoError(t, err)
	avlStats, err := observability.NewTreeStats(tree.AVL, observability.WithMeterProvider(mp))
	require.NoError(t, err)

	in := lines("rb", "1", "1", "2", "3", "3", "done", "done", "done")
	sh := New(strings.NewReader(in), &bytes.Buffer{},
		WithPrompt(false),
		WithLogger(testLogger()),
		WithTreeStats(rbStats, avlStats, nil),
	)
	require.NoError(t, sh.Run(context.Background()))

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					values[m.Name] += dp.Value
				}
			}
		}
	}
	require.Equal(t, int64(3), values["xtree.tree.inserts"])
	require.Equal(t, int64(1), values["xtree.tree.duplicates"])
	require.Equal(t, int64(1), values["xtree.tree.rotations"])
}
