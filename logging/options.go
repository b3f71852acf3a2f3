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

package logging

import "errors"

// config holds the sink configuration assembled by Init.
type config struct {
	console     bool
	handlerType HandlerType
	fileName    string
	fileSizeMB  int
	fileCount   int
	truncate    bool
	async       bool
	queueSize   int
	workers     int
}

func defaultConfig() config {
	return config{
		console:     true,
		handlerType: TextHandler,
		queueSize:   10000,
		workers:     1,
	}
}

func (c *config) validate() error {
	if !c.console && c.fileName == "" {
		return errors.New("no log sink: console disabled and no file configured")
	}
	if c.fileSizeMB < 0 || c.fileCount < 0 {
		return errors.New("rotation size and count must be non-negative")
	}
	if c.async && (c.queueSize <= 0 || c.workers <= 0) {
		return errors.New("async queue size and worker count must be positive")
	}
	return nil
}

// Option configures the sink built by Init.
type Option func(*config)

// WithConsole enables or disables stdout output. Enabled by default; when
// disabled, a file must be configured.
func WithConsole(enabled bool) Option {
	return func(c *config) { c.console = enabled }
}

// WithTextHandler uses key=value text output (default).
func WithTextHandler() Option {
	return func(c *config) { c.handlerType = TextHandler }
}

// WithJSONHandler uses JSON output.
func WithJSONHandler() Option {
	return func(c *config) { c.handlerType = JSONHandler }
}

// WithFile writes logs to the named file in addition to (or instead of) the
// console.
func WithFile(name string) Option {
	return func(c *config) { c.fileName = name }
}

// WithRotation rotates the log file once it reaches sizeMB megabytes,
// keeping at most count rotated files. Rotation is enabled only when both
// values are non-zero.
func WithRotation(sizeMB, count int) Option {
	return func(c *config) {
		c.fileSizeMB = sizeMB
		c.fileCount = count
	}
}

// WithTruncate truncates an existing log file on open. Only effective when
// rotation is disabled.
func WithTruncate() Option {
	return func(c *config) { c.truncate = true }
}

// WithAsync decouples log calls from the sink through a bounded queue
// drained by worker goroutines. Producers block when the queue is full, so
// records are never dropped.
func WithAsync(queueSize, workers int) Option {
	return func(c *config) {
		c.async = true
		c.queueSize = queueSize
		c.workers = workers
	}
}
