package xlog

import (
	"context"
	"encoding/json"
	"errors"
	randv2 "math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())

	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.InfoLevel, getLogLevelOrDefault(" info "))
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault("warn"))
	require.Equal(t, zapcore.ErrorLevel, getLogLevelOrDefault("Error"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("verbose"))
}

func TestParseLogEncoder(t *testing.T) {
	enc, err := ParseLogEncoder("JSON")
	require.NoError(t, err)
	require.Equal(t, JSON, enc)
	enc, err = ParseLogEncoder("text")
	require.NoError(t, err)
	require.Equal(t, PlainText, enc)
	_, err = ParseLogEncoder("yaml")
	require.Error(t, err)
}

type testBanner struct{}

func (b testBanner) JSON() string {
	return "{\"app\":\"xtree\"}"
}

func (b testBanner) PlainText() string {
	return `
__  _______ ____  _____ _____
\ \/ /_   _|  _ \| ____| ____|
 \  /  | | | |_) |  _| |  _|
 /  \  | | |  _ <| |___| |___
/_/\_\ |_| |_| \_\_____|_____|
`
}

type testMemOutWriter struct {
	lock sync.Mutex
	data []byte
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *testMemOutWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return string(w.data)
}

func (w *testMemOutWriter) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = make([]byte, 0, 4096)
}

// Lines decodes the JSON encoded entries.
func (w *testMemOutWriter) Lines(t *testing.T) []map[string]any {
	res := make([]map[string]any, 0, 8)
	for _, line := range strings.Split(strings.TrimSpace(w.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		res = append(res, m)
	}
	return res
}

func newTestMemLogger(t *testing.T, opts ...XLoggerOption) (XLogger, *testMemOutWriter) {
	w := &testMemOutWriter{data: make([]byte, 0, 4096)}
	setOutWriterByType(testMemAsOut, zapcore.AddSync(w))
	t.Cleanup(func() {
		setOutWriterByType(testMemAsOut, zapcore.AddSync(&testMemOutWriter{}))
	})
	opts = append([]XLoggerOption{withXLoggerWriter(testMemAsOut)}, opts...)
	return NewXLogger(opts...), w
}

func TestLoggerPrintBanner(t *testing.T) {
	logger, w := newTestMemLogger(t, WithXLoggerEncoder(JSON))
	printBanner = sync.Once{}
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"xtree\\\"}\"}\n", w.String())
	w.Reset()

	// Once per process.
	logger.Banner(testBanner{})
	require.Empty(t, w.String())

	logger, w = newTestMemLogger(t, WithXLoggerEncoder(PlainText))
	printBanner = sync.Once{}
	logger.Banner(testBanner{})
	require.Equal(t, testBanner{}.PlainText()+"\n", w.String())
}

func TestXLogger_ContextFields(t *testing.T) {
	logger, w := newTestMemLogger(t,
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerContextFieldExtract("runId", "run"),
		WithXLoggerContextFieldExtract("session"),
		WithXLoggerContextFieldExtract("secret", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract(""),
	)

	ctx := ContextWithField(context.TODO(), "runId", 42)
	ctx = ContextWithField(ctx, "secret", "hidden")
	logger.InfoContext(ctx, "info message")
	logger.DebugContext(ctx, "debug message", zap.String("k", "v"))
	logger.WarnContext(context.Background(), "warn message")

	lines := w.Lines(t)
	require.Len(t, lines, 3)
	require.Equal(t, "info message", lines[0]["msg"])
	require.Equal(t, float64(42), lines[0]["run"])
	require.Equal(t, "nil", lines[0]["session"])
	require.NotContains(t, lines[0], "secret")
	require.Equal(t, "v", lines[1]["k"])
	require.Equal(t, "DEBUG", lines[1]["lvl"])
	require.Equal(t, "nil", lines[2]["run"])
}

func TestXLogger_ErrorStack(t *testing.T) {
	logger, w := newTestMemLogger(t, WithXLoggerLevel(LogLevelDebug))

	es := infra.AppendErrorStack(infra.NewErrorStack("outer"), errors.New("inner"))
	logger.ErrorStack(es, "error stack message", zap.Int("n", 1))
	logger.ErrorStack(errors.New("plain"), "plain error message")
	logger.Error(es, "error message")
	logger.ErrorContext(context.TODO(), nil, "nil error message")
	logger.ErrorStackf(es, "error %s", "formatted")

	lines := w.Lines(t)
	require.Len(t, lines, 5)
	require.Equal(t, "outer; inner", lines[0]["error"])
	require.Equal(t, []any{"outer", "inner"}, lines[0]["errors"])
	require.NotEmpty(t, lines[0]["errorStack"])
	require.Equal(t, float64(1), lines[0]["n"])
	require.Equal(t, "plain", lines[1]["error"])
	require.Equal(t, "outer; inner", lines[2]["error"])
	require.NotContains(t, lines[2], "errorStack")
	require.NotContains(t, lines[3], "error")
	require.Equal(t, "error formatted", lines[4]["msg"])
	require.NotEmpty(t, lines[4]["errorStack"])
}

func TestXLogger_DynamicLevel(t *testing.T) {
	logger, w := newTestMemLogger(t, WithXLoggerLevelText("info"))
	require.Equal(t, zapcore.InfoLevel.String(), logger.Level())

	logger.Debug("unprintable debug message 1")
	logger.Info("printable info message 1")
	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, zapcore.WarnLevel.String(), logger.Level())
	logger.Logf(zapcore.InfoLevel, "unprintable info message %d", 2)
	logger.Logf(zapcore.WarnLevel, "printable warn message %d", 3)
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.Debug("printable debug message 4")
	require.NoError(t, logger.Sync())

	msgs := make([]string, 0, 3)
	for _, line := range w.Lines(t) {
		msgs = append(msgs, line["msg"].(string))
	}
	require.Equal(t, []string{
		"printable info message 1",
		"printable warn message 3",
		"printable debug message 4",
	}, msgs)
}

func TestXLogger_BadOptions(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(withXLoggerWriter(_writerMax))
	})
	require.NotPanics(t, func() {
		NewXLogger(nil, WithXLoggerStdErrWriter(), WithXLoggerLevelEncoder(nil), WithXLoggerTimeEncoder(nil))
	})
}

func TestXLogger_Zap_DataRace(t *testing.T) {
	logger, _ := newTestMemLogger(t)
	lvls := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	n := int32(len(lvls))
	var wg sync.WaitGroup
	total := 10
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rng := randv2.Int32N(n)
				if i*total+j == 666 {
					logger.IncreaseLogLevel(lvls[rng])
				}
				logger.Logf(lvls[rng], "message i: %d; j: %d", i, j)
			}
		}(i)
	}
	wg.Wait()
	_ = logger.Sync()
}

func BenchmarkXLogger_Zap(b *testing.B) {
	logger := NewXLogger(WithXLoggerLevel(LogLevelInfo))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("message")
	}
	b.ReportAllocs()
}
