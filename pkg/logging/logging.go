// Package logging hands out decred/slog subsystem loggers that write to
// stdout and, optionally, a rotated log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags.
const (
	SubsysEngine    = "ENGN"
	SubsysValidator = "VALD"
	SubsysLimiter   = "RLIM"
	SubsysServer    = "SRVR"
	SubsysStore     = "STOR"
	SubsysBroadcast = "BCST"
	SubsysSim       = "SIMU"
)

const (
	defaultMaxLogSizeKB = 10 * 1024
	defaultMaxLogFiles  = 3
)

// LogConfig configures a LogBackend.
type LogConfig struct {
	LogFile      string // empty logs to Stdout only
	DebugLevel   string
	MaxLogFiles  int
	MaxLogSizeKB int64
	Stdout       io.Writer // defaults to os.Stdout
}

// LogBackend owns the shared slog backend and every subsystem logger created
// from it.
type LogBackend struct {
	backend *slog.Backend
	rotator *rotator.Rotator
	level   slog.Level

	mu      sync.Mutex
	loggers map[string]slog.Logger
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	lvl, ok := slog.LevelFromString(s)
	if !ok {
		return 0, fmt.Errorf("invalid debug level %q", s)
	}
	return lvl, nil
}

type logWriter struct {
	stdout io.Writer
	rot    *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	w.stdout.Write(p)
	if w.rot != nil {
		w.rot.Write(p)
	}
	return len(p), nil
}

// NewLogBackend creates the backend described by cfg.
func NewLogBackend(cfg LogConfig) (*LogBackend, error) {
	lvl, err := ParseLevel(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.MaxLogFiles <= 0 {
		cfg.MaxLogFiles = defaultMaxLogFiles
	}
	if cfg.MaxLogSizeKB <= 0 {
		cfg.MaxLogSizeKB = defaultMaxLogSizeKB
	}

	w := logWriter{stdout: cfg.Stdout}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		r, err := rotator.New(cfg.LogFile, cfg.MaxLogSizeKB, false, cfg.MaxLogFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		w.rot = r
	}

	return &LogBackend{
		backend: slog.NewBackend(w),
		rotator: w.rot,
		level:   lvl,
		loggers: make(map[string]slog.Logger),
	}, nil
}

// Logger returns the logger for subsys, creating it at the backend level.
func (b *LogBackend) Logger(subsys string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[subsys]; ok {
		return l
	}
	l := b.backend.Logger(subsys)
	l.SetLevel(b.level)
	b.loggers[subsys] = l
	return l
}

// SetLevel changes the level of every logger, current and future.
func (b *LogBackend) SetLevel(lvl slog.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = lvl
	for _, l := range b.loggers {
		l.SetLevel(lvl)
	}
}

// Subsystems lists the subsystems that have a logger.
func (b *LogBackend) Subsystems() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.loggers))
	for s := range b.loggers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Close flushes and closes the log file, if any.
func (b *LogBackend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}
