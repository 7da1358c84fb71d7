package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var initPC, initLine = caller()

func caller() (Frame, int) {
	var PCs [3]uintptr
	n := runtime.Callers(2, PCs[:])
	frames := runtime.CallersFrames(PCs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC), frame.Line
}

func TestFrameFormat(t *testing.T) {
	line := strconv.Itoa(initLine)
	testcases := []struct {
		Frame
		format string
		prefix string
		suffix string
	}{
		{initPC, "%s", "err_stack_test.go", "err_stack_test.go"},
		{initPC, "%+s", "github.com/benz9527/xtree/lib/infra.init\n\t", "lib/infra/err_stack_test.go"},
		{initPC, "%n", "init", "init"},
		{initPC, "%d", line, line},
		{initPC, "%v", "err_stack_test.go:" + line, "err_stack_test.go:" + line},
		{initPC, "%+v", "github.com/benz9527/xtree/lib/infra.init\n\t", "lib/infra/err_stack_test.go:" + line},
		{Frame(0), "%s", "unknownFile", "unknownFile"},
		{Frame(0), "%n", "unknownFunc", "unknownFunc"},
		{Frame(0), "%d", "0", "0"},
	}

	for _, tc := range testcases {
		frameRes := fmt.Sprintf(tc.format, tc.Frame)
		require.Truef(t, strings.HasPrefix(frameRes, tc.prefix), "format %q got %q", tc.format, frameRes)
		require.Truef(t, strings.HasSuffix(frameRes, tc.suffix), "format %q got %q", tc.format, frameRes)
	}
}

func TestFrameMarshalText(t *testing.T) {
	_bytes, err := initPC.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(_bytes), "github.com/benz9527/xtree/lib/infra.init "))
	require.True(t, strings.HasSuffix(string(_bytes), "err_stack_test.go:"+strconv.Itoa(initLine)))

	_bytes, err = Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(_bytes))
}

func TestFrameMarshalJSON(t *testing.T) {
	_bytes, err := json.Marshal(initPC)
	require.NoError(t, err)
	res := map[string]string{}
	require.NoError(t, json.Unmarshal(_bytes, &res))
	require.Equal(t, "github.com/benz9527/xtree/lib/infra.init", res["func"])
	require.True(t, strings.HasSuffix(res["fileAndLine"], "err_stack_test.go:"+strconv.Itoa(initLine)))

	_bytes, err = json.Marshal(Frame(0))
	require.NoError(t, err)
	require.Equal(t, "{\"frame\":\"unknownFrame\"}", string(_bytes))
}

var errTestSentinel = errors.New("sentinel")

func TestErrorStack_Wrap(t *testing.T) {
	require.Nil(t, WrapErrorStack(nil))
	require.Nil(t, WrapErrorStackWithMessage(nil, "ignored"))

	es := WrapErrorStack(errTestSentinel)
	require.Error(t, es)
	require.Equal(t, "sentinel", es.Error())
	require.ErrorIs(t, es, errTestSentinel)
	require.NotEmpty(t, es.Frames())
	found := false
	for _, frame := range es.Frames() {
		if fmt.Sprintf("%n", frame) == "TestErrorStack_Wrap" {
			found = true
			break
		}
	}
	require.True(t, found)

	// Wrapping twice keeps the first frames.
	require.Same(t, es, WrapErrorStack(es))

	es = WrapErrorStackWithMessage(errTestSentinel, "load keys")
	require.Equal(t, "load keys: sentinel", es.Error())
	require.ErrorIs(t, es, errTestSentinel)
}

func TestErrorStack_Append(t *testing.T) {
	err1, err2 := errors.New("error 1"), errors.New("error 2")
	require.Nil(t, AppendErrorStack(nil))
	require.Nil(t, AppendErrorStack(nil, nil, nil))

	es := AppendErrorStack(nil, err1, nil, err2)
	require.ErrorIs(t, es, err1)
	require.ErrorIs(t, es, err2)
	require.Len(t, es.Unwrap(), 2)

	es = NewErrorStack("compare failed")
	require.Equal(t, "compare failed", es.Error())
	es = AppendErrorStack(es, err1)
	require.ErrorIs(t, es, err1)
	require.Len(t, es.Unwrap(), 2)
	require.Equal(t, "compare failed; error 1", es.Error())
}

func TestErrorStack_MarshalLogObject(t *testing.T) {
	es := AppendErrorStack(NewErrorStack("outer"), errTestSentinel)
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "outer; sentinel", enc.Fields["error"])
	errs, ok := enc.Fields["errors"].([]any)
	require.True(t, ok)
	require.Equal(t, []any{"outer", "sentinel"}, errs)
	frames, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, frames)
}
