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

package httpserver

import (
	"errors"
	"time"
)

// Options configures a Server. The struct is copied at construction and is
// immutable once Run has been called.
type Options struct {
	// Addr is the IPv4 dotted address the server binds to.
	Addr string

	// Port is the TCP port to listen on. Port 0 binds an OS-assigned
	// ephemeral port; use Server.Addr to discover it once running.
	Port uint16

	// WorkerCount is the number of goroutines jointly driving the accept
	// loop. Must be at least 1.
	WorkerCount uint32

	// ReadTimeout bounds the read of one request, from the moment the
	// session starts waiting for it (idle time on a kept-alive connection
	// included) to the end of the body. Zero disables the deadline.
	ReadTimeout time.Duration

	// WriteTimeout bounds one response, from dispatch to the last byte on
	// the wire. Handler latency counts against it. Zero disables the
	// deadline.
	WriteTimeout time.Duration

	// MaxRequestSize caps the bytes of a single request. A request
	// exceeding the cap closes the connection. Must be at least 1.
	MaxRequestSize uint64

	// AutoGzip compresses response bodies larger than 500 bytes when the
	// request's Accept-Encoding admits gzip.
	AutoGzip bool

	// AutoDecodeParams percent-decodes query parameter keys and values
	// before they are handed to the handler. When false the handler sees
	// the raw encoded forms.
	AutoDecodeParams bool

	// EnableTracing starts an OpenTelemetry span around each handler
	// dispatch, using the process-global TracerProvider.
	EnableTracing bool
}

// DefaultOptions returns the option set the server ships with: listen on
// 0.0.0.0:6000, one accept worker, 60 second read and write deadlines, a
// 2 MiB request cap, auto-gzip and parameter decoding enabled.
func DefaultOptions() Options {
	return Options{
		Addr:             "0.0.0.0",
		Port:             6000,
		WorkerCount:      1,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     60 * time.Second,
		MaxRequestSize:   2 << 20,
		AutoGzip:         true,
		AutoDecodeParams: true,
	}
}

// Validate reports the first invalid field, or nil.
func (o *Options) Validate() error {
	if o.WorkerCount == 0 {
		return errors.New("worker count should be > 0")
	}
	if o.MaxRequestSize == 0 {
		return errors.New("max request size should be > 0")
	}
	if o.Addr == "" {
		return errors.New("addr is empty")
	}
	return nil
}
