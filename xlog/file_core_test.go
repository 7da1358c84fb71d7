package xlog

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readLogFile(t *testing.T, path string) []map[string]any {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	res := make([]map[string]any, 0, 4)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		res = append(res, m)
	}
	return res
}

func TestXLogger_FileCopy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, console := newTestMemLogger(t,
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerFile(&FileCoreConfig{FilePath: dir, Filename: "xtree.log"}),
	)
	logger.Debug("dropped")
	logger.Info("tree built", zap.Int("size", 3))
	NewAntsXLogger(logger).Printf("worker %d exits", 1)
	require.NoError(t, logger.Close())
	// Idempotent.
	require.NoError(t, logger.Close())

	require.Len(t, console.Lines(t), 2)
	lines := readLogFile(t, filepath.Join(dir, "xtree.log"))
	require.Len(t, lines, 2)
	require.Equal(t, "tree built", lines[0]["msg"])
	require.Equal(t, float64(3), lines[0]["size"])
	require.Equal(t, "INFO", lines[0]["lvl"])
	require.Contains(t, lines[0], "callAt")
	require.Equal(t, "worker 1 exits", lines[1]["msg"])
	require.Equal(t, "Ants", lines[1]["component"])
	require.NotContains(t, lines[1], "callAt")
}

func TestXLogger_FileAppends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		logger, _ := newTestMemLogger(t, WithXLoggerFile(&FileCoreConfig{FilePath: dir, Filename: "append.log"}))
		logger.Warn("restart")
		require.NoError(t, logger.Close())
	}
	require.Len(t, readLogFile(t, filepath.Join(dir, "append.log")), 2)
}

func TestXLogger_FileErrors(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerFile(nil))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerFile(&FileCoreConfig{FilePath: t.TempDir()}))
	})

	_, _, err := newFileCore(nil, zap.NewAtomicLevel(), JSON, nil, nil)
	require.Error(t, err)

	log := &singleLog{filePath: t.TempDir(), filename: "../escape.log"}
	_, err = log.Write([]byte("x"))
	require.Error(t, err)

	require.NoError(t, log.Close())
	_, err = log.Write([]byte("x"))
	require.True(t, errors.Is(err, io.ErrClosedPipe))
}
