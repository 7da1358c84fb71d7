package xlog

import (
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

var _ xLogCore = (*fileCore)(nil)

type fileCore struct {
	core *commonCore
}

func (fc *fileCore) timeEncoder() zapcore.TimeEncoder   { return fc.core.tsEnc }
func (fc *fileCore) levelEncoder() zapcore.LevelEncoder { return fc.core.lvlEnc }
func (fc *fileCore) writeSyncer() zapcore.WriteSyncer   { return fc.core.ws }
func (fc *fileCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return fc.core.enc
}
func (fc *fileCore) Enabled(lvl zapcore.Level) bool       { return fc.core.Enabled(lvl) }
func (fc *fileCore) With(fields []zap.Field) zapcore.Core { return fc.core.With(fields) }
func (fc *fileCore) Sync() error                          { return fc.core.Sync() }
func (fc *fileCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if fc.Enabled(ent.Level) {
		return ce.AddCore(ent, fc)
	}
	return ce
}

func (fc *fileCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return fc.core.Write(ent, fields)
}

type FileCoreConfig struct {
	// Directory of the log file, the OS temp dir when empty.
	FilePath string `json:"filePath" yaml:"filePath"`
	// Relative to FilePath, it must not escape it.
	Filename string `json:"filename" yaml:"filename"`
}

// fileSyncer serializes the writes of every core sharing the file.
type fileSyncer struct {
	mu  sync.Mutex
	out *singleLog
}

func (syncer *fileSyncer) Write(p []byte) (int, error) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.out.Write(p)
}

func (syncer *fileSyncer) Sync() error {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.out.Sync()
}

func (syncer *fileSyncer) Close() error {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return multierr.Append(syncer.out.Sync(), syncer.out.Close())
}

func newFileCore(
	cfg *FileCoreConfig,
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) (xLogCore, io.Closer, error) {
	if cfg == nil || cfg.Filename == "" {
		return nil, nil, infra.NewErrorStack("[XLogger] log filename is empty")
	}
	syncer := &fileSyncer{
		out: &singleLog{
			filePath: cfg.FilePath,
			filename: cfg.Filename,
		},
	}
	fc := &fileCore{
		core: &commonCore{
			lvlEnabler: lvlEnabler,
			lvlEnc:     lvlEnc,
			tsEnc:      tsEnc,
			ws:         syncer,
			enc:        getEncoderByType(encoder),
		},
	}
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   fc.core.lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    fc.core.tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   "fn",
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	fc.core.core = zapcore.NewCore(fc.core.enc(config), fc.core.ws, fc.core.lvlEnabler)
	return fc, syncer, nil
}
