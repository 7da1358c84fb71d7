package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const (
	kindSeparator = "------------------------"
	cmdSeparator  = "---"
	cmdDone       = "done"
)

var menu = []string{
	"Enter command: [done to exit]",
	"1 - insert node",
	"2 - delete node",
	"3 - number of leaves",
	"4 - tree height",
	"5 - in-order traversal",
	"6 - tree empty / not empty",
	"7 - print tree",
}

type options struct {
	prompt bool
	logger xlog.XLogger
	stats  map[tree.Kind]*observability.TreeStats
}

type Option func(*options)

// WithPrompt prints the menus and the input prompts, on by default.
func WithPrompt(prompt bool) Option {
	return func(opts *options) {
		opts.prompt = prompt
	}
}

func WithLogger(logger xlog.XLogger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithTreeStats records the inserts and the rebalancing of the trees
// built by the shell, by engine kind.
func WithTreeStats(stats ...*observability.TreeStats) Option {
	return func(opts *options) {
		for _, s := range stats {
			if s != nil {
				opts.stats[s.Kind()] = s
			}
		}
	}
}

// Shell is the interactive loop. It selects an engine, then runs the
// numbered commands over a fresh tree until "done".
type Shell struct {
	scanner *bufio.Scanner
	// Fed by a single reader goroutine, closed at the end of input.
	lines   chan string
	scanErr error
	reader  sync.Once
	out     io.Writer
	outErr  error
	opts    options
}

func New(in io.Reader, out io.Writer, opts ...Option) *Shell {
	o := options{
		prompt: true,
		stats:  make(map[tree.Kind]*observability.TreeStats, 2),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelError), xlog.WithXLoggerStdErrWriter())
	}
	return &Shell{
		scanner: bufio.NewScanner(in),
		lines:   make(chan string),
		out:     out,
		opts:    o,
	}
}

func (sh *Shell) println(a ...any) {
	if sh.outErr != nil {
		return
	}
	_, sh.outErr = fmt.Fprintln(sh.out, a...)
}

func (sh *Shell) prompt(lines ...string) {
	if !sh.opts.prompt {
		return
	}
	for _, line := range lines {
		sh.println(line)
	}
}

// scan owns the scanner, a pending line waits here until the next read.
func (sh *Shell) scan() {
	defer close(sh.lines)
	for sh.scanner.Scan() {
		sh.lines <- sh.scanner.Text()
	}
	sh.scanErr = sh.scanner.Err()
}

// readLine returns io.EOF at the end of input and ctx.Err() as soon as
// the context is done, even while no line is available.
func (sh *Shell) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sh.outErr != nil {
		return "", infra.WrapErrorStackWithMessage(sh.outErr, "shell output")
	}
	sh.reader.Do(func() {
		go sh.scan()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-sh.lines:
		if !ok {
			if sh.scanErr != nil {
				return "", infra.WrapErrorStackWithMessage(sh.scanErr, "shell input")
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// Run returns nil after "done" or at the end of input.
func (sh *Shell) Run(ctx context.Context) error {
	err := sh.run(ctx)
	if errors.Is(err, io.EOF) {
		sh.opts.logger.DebugContext(ctx, "shell input closed")
		return nil
	}
	if err != nil {
		sh.opts.logger.ErrorStackContext(ctx, err, "shell stopped")
	}
	return err
}

func (sh *Shell) run(ctx context.Context) error {
	for {
		sh.println(kindSeparator)
		sh.prompt("Enter tree type (rb or avl): [done to exit]")
		input, err := sh.readLine(ctx)
		if err != nil {
			return err
		}
		sh.println(kindSeparator)

		switch input {
		case tree.RedBlack.String():
			sh.println("Red Black Tree")
			err = sh.session(ctx, tree.RedBlack)
		case tree.AVL.String():
			sh.println("AVL Tree")
			err = sh.session(ctx, tree.AVL)
		case cmdDone:
			sh.println("exited")
			return sh.outErr
		default:
			sh.println("invalid input")
		}
		if err != nil {
			return err
		}
	}
}

func (sh *Shell) session(ctx context.Context, kind tree.Kind) error {
	stats := sh.opts.stats[kind]
	t, err := tree.New[uint32](kind, tree.WithRebalanceObserver(stats.Observer()))
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	defer t.Release()

	engine := zap.String("engine", kind.String())
	sh.opts.logger.DebugContext(ctx, "tree session started", engine)
	for {
		sh.prompt(menu...)
		sh.prompt("choose command:")
		cmd, err := sh.readLine(ctx)
		if err != nil {
			return err
		}
		sh.opts.logger.DebugContext(ctx, "tree command", engine, zap.String("cmd", cmd))

		switch cmd {
		case "1":
			sh.println(cmdSeparator)
			if err = sh.insertLoop(ctx, t, stats); err != nil {
				return err
			}
			sh.println(cmdSeparator)
		case "2":
			sh.println(cmdSeparator)
			sh.delete(ctx, t)
			sh.println(cmdSeparator)
		case "3":
			sh.println(cmdSeparator)
			sh.println(fmt.Sprintf("number of leaves: %d", t.LeafCount()))
			sh.println(cmdSeparator)
		case "4":
			sh.println(cmdSeparator)
			sh.println(fmt.Sprintf("tree height: %d", t.Height()))
			sh.println(cmdSeparator)
		case "5":
			sh.println(cmdSeparator)
			sh.println("printing inorder traversal...")
			for key := range t.InOrder() {
				sh.println(key)
			}
			sh.println(cmdSeparator)
		case "6":
			sh.println(cmdSeparator)
			if t.IsEmpty() {
				sh.println("the tree is empty")
			} else {
				sh.println("the tree is not empty")
			}
			sh.println(cmdSeparator)
		case "7":
			sh.println(cmdSeparator)
			if t.IsEmpty() {
				sh.println("cannot print tree with its structure\n")
			} else {
				sh.println("printing tree with its structure...")
				if sh.outErr == nil {
					sh.outErr = t.Render(sh.out)
				}
			}
			sh.println(cmdSeparator)
		case cmdDone:
			sh.opts.logger.DebugContext(ctx, "tree session finished", engine, zap.Int64("size", t.Len()))
			return nil
		default:
			sh.println("invalid input.")
		}
	}
}

func (sh *Shell) insertLoop(ctx context.Context, t tree.BalancedTree[uint32], stats *observability.TreeStats) error {
	for {
		sh.prompt("insert node value: [done to exit]")
		input, err := sh.readLine(ctx)
		if err != nil {
			return err
		}
		if input == cmdDone {
			return nil
		}
		key, err := infra.ParseUnsigned[uint32](input)
		if err != nil {
			sh.println("invalid input")
			continue
		}
		err = t.Insert(key)
		stats.RecordInsert(ctx, err)
		switch {
		case err == nil:
		case errors.Is(err, tree.ErrDuplicateKey):
			sh.println("this node already exists!")
		default:
			sh.opts.logger.ErrorStackContext(ctx, infra.WrapErrorStack(err), "tree insert failed",
				zap.String("engine", t.Kind().String()),
				zap.Uint32("key", key),
			)
		}
	}
}

// delete takes no key, removal is not supported by either engine.
func (sh *Shell) delete(ctx context.Context, t tree.BalancedTree[uint32]) {
	if err := t.Remove(0); errors.Is(err, tree.ErrUnsupportedOperation) {
		sh.println("unfortunately, this feature has not been added yet")
	} else if err != nil {
		sh.opts.logger.ErrorContext(ctx, err, "tree remove failed", zap.String("engine", t.Kind().String()))
	}
}
