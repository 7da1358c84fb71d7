package xlog

import (
	"io"
	"os"
	"sync"

	"github.com/google/safeopen"

	"github.com/benz9527/xtree/lib/infra"
)

var _ io.WriteCloser = (*singleLog)(nil)

// singleLog appends to one file, opened beneath filePath on the first
// write. It is not thread-safe, the file core locks it.
type singleLog struct {
	filePath    string
	filename    string
	mkdirOnce   sync.Once
	currentFile *os.File
	closed      bool
}

func (log *singleLog) Write(p []byte) (n int, err error) {
	if log.closed {
		return 0, io.ErrClosedPipe
	}
	if log.currentFile == nil {
		if err = log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	return log.currentFile.Write(p)
}

func (log *singleLog) Sync() error {
	if log.currentFile == nil {
		return nil
	}
	return log.currentFile.Sync()
}

func (log *singleLog) Close() error {
	log.closed = true
	if log.currentFile == nil {
		return nil
	}
	err := log.currentFile.Close()
	log.currentFile = nil
	return err
}

func (log *singleLog) openOrCreate() error {
	if err := log.mkdir(); err != nil {
		return err
	}
	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "unable to open log file "+log.filename)
	}
	log.currentFile = f
	return nil
}

func (log *singleLog) mkdir() error {
	var err error
	log.mkdirOnce.Do(func() {
		if log.filePath == "" {
			log.filePath = os.TempDir()
			return
		}
		err = os.MkdirAll(log.filePath, 0o755)
	})
	return infra.WrapErrorStack(err)
}
