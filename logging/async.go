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

import (
	"context"
	"log/slog"
)

// asyncHandler decouples the caller from the sink: Handle enqueues the
// record and returns, worker goroutines perform the actual write. The queue
// is bounded and producers block when it is full, so records are never
// dropped under load.
type asyncHandler struct {
	inner slog.Handler
	queue chan func()
}

func newAsyncHandler(inner slog.Handler, queueSize, workers int) *asyncHandler {
	h := &asyncHandler{
		inner: inner,
		queue: make(chan func(), queueSize),
	}
	for range workers {
		go h.drain()
	}
	return h
}

func (h *asyncHandler) drain() {
	for write := range h.queue {
		write()
	}
}

func (h *asyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *asyncHandler) Handle(_ context.Context, r slog.Record) error {
	// The record is cloned because the caller's backing array is reused
	// once Handle returns. The closure captures the inner handler of the
	// handler the record was logged through, so WithAttrs derivations
	// share one queue safely.
	inner := h.inner
	rec := r.Clone()
	h.queue <- func() {
		_ = inner.Handle(bgCtx, rec)
	}
	return nil
}

func (h *asyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &asyncHandler{inner: h.inner.WithAttrs(attrs), queue: h.queue}
}

func (h *asyncHandler) WithGroup(name string) slog.Handler {
	return &asyncHandler{inner: h.inner.WithGroup(name), queue: h.queue}
}
