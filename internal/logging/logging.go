// Package logging builds the zap loggers used by the atl commands: a console
// logger on stderr and, for commands that change infrastructure, a
// timestamped debug log file per run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultDir is the log directory relative to the project root.
const DefaultDir = "logs"

// fileTimeLayout is the timestamp embedded in log file names.
const fileTimeLayout = "20060102_150405"

// NewConsole returns a logger writing human-readable lines to w. The level is
// info, or debug when verbose is set.
func NewConsole(w io.Writer, verbose bool) *zap.SugaredLogger {
	return zap.New(consoleCore(w, verbose)).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func consoleCore(w io.Writer, verbose bool) zapcore.Core {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	cfg.CallerKey = zapcore.OmitKey
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
}

func fileCore(w io.Writer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zapcore.DebugLevel)
}

// Session is a logger backed by both the console and a per-run log file.
type Session struct {
	Log  *zap.SugaredLogger
	Path string

	file *os.File
}

// SessionOptions configures Open.
type SessionOptions struct {
	Dir     string
	Tool    string
	Console io.Writer
	Verbose bool

	// Cleanup applies DefaultPolicy to Dir before the new file is created.
	Cleanup bool

	// Now overrides the clock for file naming.
	Now func() time.Time
}

// Open creates <Dir>/<Tool>-YYYYMMDD_HHMMSS.log and returns a Session that
// logs debug and above to it, and info and above (debug when verbose) to
// the console.
func Open(opts SessionOptions) (*Session, error) {
	if opts.Tool == "" {
		return nil, fmt.Errorf("logging: tool name is required")
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: failed to create %s: %w", opts.Dir, err)
	}

	var cleanupErr error
	if opts.Cleanup {
		_, cleanupErr = NewCleaner(opts.Dir).Cleanup(DefaultPolicy)
	}

	path := filepath.Join(opts.Dir, fmt.Sprintf("%s-%s.log", opts.Tool, now().Format(fileTimeLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: failed to open %s: %w", path, err)
	}

	core := zapcore.NewTee(consoleCore(opts.Console, opts.Verbose), fileCore(f))
	log := zap.New(core).Named(opts.Tool).Sugar()
	if cleanupErr != nil {
		log.Debugw("log cleanup failed", "dir", opts.Dir, "error", cleanupErr)
	}
	log.Debugw("log file opened", "path", path)

	return &Session{Log: log, Path: path, file: f}, nil
}

// Close flushes the logger and closes the log file.
func (s *Session) Close() error {
	_ = s.Log.Sync()
	return s.file.Close()
}
