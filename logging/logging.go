// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging is the process-wide leveled log sink the server writes
// trace and error events to.
//
// The zero configuration works out of the box: text logs on stdout at Info
// level. Init reconfigures the sink exactly once per process; calling it a
// second time returns ErrAlreadyInitialized. The level can be changed at any
// time from any goroutine with SetLevel.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is an alias of slog.Level, extended below with Trace and Critical.
type Level = slog.Level

const (
	// LevelTrace is the most verbose level, used for per-session and
	// per-request lifecycle events.
	LevelTrace Level = slog.LevelDebug - 4
	// LevelDebug is the debug log level.
	LevelDebug = slog.LevelDebug
	// LevelInfo is the default level.
	LevelInfo = slog.LevelInfo
	// LevelWarn is the warning level.
	LevelWarn = slog.LevelWarn
	// LevelError is the error level.
	LevelError = slog.LevelError
	// LevelCritical is reserved for unrecoverable conditions.
	LevelCritical Level = slog.LevelError + 4
	// LevelOff disables all output.
	LevelOff Level = slog.LevelError + 8
)

// ErrAlreadyInitialized is returned by Init when the sink was configured
// before. Init is intended to be called exactly once at program start, or
// never.
var ErrAlreadyInitialized = errors.New("logger was already initialized")

// HandlerType selects the output encoding.
type HandlerType string

const (
	// TextHandler outputs key=value text logs (default).
	TextHandler HandlerType = "text"
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
)

// Package-level cached context reused across log calls; slog requires one
// but the sink never uses it for cancellation.
var bgCtx = context.Background()

var (
	levelVar    slog.LevelVar
	logger      atomic.Pointer[slog.Logger]
	initialized atomic.Bool
)

func init() {
	logger.Store(slog.New(newLevelHandler(os.Stdout, TextHandler)))
}

// newLevelHandler builds the base slog handler bound to the shared LevelVar,
// rendering the extended level names.
func newLevelHandler(w io.Writer, t HandlerType) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: &levelVar,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					switch lvl {
					case LevelTrace:
						a.Value = slog.StringValue("TRACE")
					case LevelCritical:
						a.Value = slog.StringValue("CRITICAL")
					}
				}
			}
			return a
		},
	}
	if t == JSONHandler {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Init configures the process-wide sink. It is not safe for concurrent use
// and must be called at most once; a second call fails with
// ErrAlreadyInitialized and leaves the current sink in place.
//
// With no options the sink logs text to stdout. File output is enabled with
// WithFile; rotation kicks in when both WithRotation values are non-zero.
// Console and file output combine when both are enabled.
func Init(opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if !initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	writers := make([]io.Writer, 0, 2)
	if cfg.console {
		writers = append(writers, os.Stdout)
	}
	if cfg.fileName != "" {
		w, err := cfg.fileWriter()
		if err != nil {
			initialized.Store(false)
			return err
		}
		writers = append(writers, w)
	}

	var out io.Writer
	if len(writers) == 1 {
		out = writers[0]
	} else {
		out = io.MultiWriter(writers...)
	}

	handler := newLevelHandler(out, cfg.handlerType)
	if cfg.async {
		handler = newAsyncHandler(handler, cfg.queueSize, cfg.workers)
	}
	logger.Store(slog.New(handler))
	return nil
}

// fileWriter opens the configured log file: a rotating writer when both the
// size and count limits are set, a plain file otherwise.
func (c *config) fileWriter() (io.Writer, error) {
	if c.fileSizeMB > 0 && c.fileCount > 0 {
		return &lumberjack.Logger{
			Filename:   c.fileName,
			MaxSize:    c.fileSizeMB,
			MaxBackups: c.fileCount,
		}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if c.truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(c.fileName, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// SetLevel sets the global minimum level. Safe for concurrent use.
func SetLevel(l Level) { levelVar.Set(l) }

// GetLevel returns the current global minimum level. Safe for concurrent use.
func GetLevel() Level { return levelVar.Level() }

// Trace logs at LevelTrace with structured key-value attributes.
func Trace(msg string, args ...any) { logger.Load().Log(bgCtx, LevelTrace, msg, args...) }

// Debug logs at LevelDebug.
func Debug(msg string, args ...any) { logger.Load().Log(bgCtx, LevelDebug, msg, args...) }

// Info logs at LevelInfo.
func Info(msg string, args ...any) { logger.Load().Log(bgCtx, LevelInfo, msg, args...) }

// Warn logs at LevelWarn.
func Warn(msg string, args ...any) { logger.Load().Log(bgCtx, LevelWarn, msg, args...) }

// Error logs at LevelError.
func Error(msg string, args ...any) { logger.Load().Log(bgCtx, LevelError, msg, args...) }

// Critical logs at LevelCritical.
func Critical(msg string, args ...any) { logger.Load().Log(bgCtx, LevelCritical, msg, args...) }
