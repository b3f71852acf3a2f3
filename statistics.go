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

import "sync/atomic"

// statistics is the live counter block shared by all sessions of one server.
// Counters are lock-free and individually consistent; a snapshot taken while
// requests are in flight may observe counters at slightly different instants.
type statistics struct {
	sessions        atomic.Int32
	readTimeouts    atomic.Uint64
	readSuccesses   atomic.Uint64
	readFailures    atomic.Uint64
	writeTimeouts   atomic.Uint64
	writeSuccesses  atomic.Uint64
	writeFailures   atomic.Uint64
	handledRequests atomic.Uint64
	workingHandlers atomic.Int64
}

// reset zeroes every counter. Called by Run before accepting connections.
func (s *statistics) reset() {
	s.sessions.Store(0)
	s.readTimeouts.Store(0)
	s.readSuccesses.Store(0)
	s.readFailures.Store(0)
	s.writeTimeouts.Store(0)
	s.writeSuccesses.Store(0)
	s.writeFailures.Store(0)
	s.handledRequests.Store(0)
	s.workingHandlers.Store(0)
}

// snapshot copies the counters into a Statistics value.
func (s *statistics) snapshot() Statistics {
	return Statistics{
		Sessions:        uint32(s.sessions.Load()),
		ReadTimeouts:    s.readTimeouts.Load(),
		ReadSuccesses:   s.readSuccesses.Load(),
		ReadFailures:    s.readFailures.Load(),
		WriteTimeouts:   s.writeTimeouts.Load(),
		WriteSuccesses:  s.writeSuccesses.Load(),
		WriteFailures:   s.writeFailures.Load(),
		HandledRequests: s.handledRequests.Load(),
		WorkingHandlers: uint64(s.workingHandlers.Load()),
	}
}

// Statistics is a point-in-time snapshot of server counters. All fields
// reset when Run is called again; apart from the Sessions and
// WorkingHandlers gauges, the counters are monotonic during one run.
type Statistics struct {
	// Sessions is the number of currently open connections.
	Sessions uint32

	// ReadTimeouts counts requests abandoned because the read deadline
	// expired.
	ReadTimeouts uint64

	// ReadSuccesses counts requests parsed successfully.
	ReadSuccesses uint64

	// ReadFailures counts requests abandoned on a parse or I/O error,
	// timeouts excluded.
	ReadFailures uint64

	// WriteTimeouts counts responses abandoned because the write deadline
	// expired. The deadline spans handler time as well as the wire write.
	WriteTimeouts uint64

	// WriteSuccesses counts responses written completely.
	WriteSuccesses uint64

	// WriteFailures counts responses abandoned on a write error, timeouts
	// excluded.
	WriteFailures uint64

	// HandledRequests counts requests that reached dispatch, including
	// the ones the server answered itself with 400.
	HandledRequests uint64

	// WorkingHandlers is the number of handlers currently executing their
	// synchronous Handle call.
	WorkingHandlers uint64
}
