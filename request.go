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

import "time"

// Request is one parsed HTTP request, owned by the handler it was dispatched
// to. The session builds it, hands it over, and never touches it again; the
// handler may keep it, move it to another goroutine, or drop it.
type Request struct {
	method    Method
	sessionID uint64
	requestID uint64
	body      []byte
	segments  []string
	headers   map[string]string
	params    map[string]string
	start     time.Time
}

// Method returns the HTTP method of the request.
func (r *Request) Method() Method { return r.method }

// SessionID returns the id of the connection the request arrived on.
// Session ids are strictly increasing for the life of one run.
func (r *Request) SessionID() uint64 { return r.sessionID }

// RequestID returns the position of this request on its session, starting
// at 1 and strictly increasing.
func (r *Request) RequestID() uint64 { return r.requestID }

// Headers returns the request headers, names in canonical form, last value
// winning on duplicates.
func (r *Request) Headers() map[string]string { return r.headers }

// Params returns the query parameters. Keys and values are percent-decoded
// when the server runs with AutoDecodeParams, raw otherwise.
func (r *Request) Params() map[string]string { return r.params }

// Body returns the request body. Empty for bodiless requests.
func (r *Request) Body() []byte { return r.body }

// Segments returns the URL path segments in order, as received on the wire.
func (r *Request) Segments() []string { return r.segments }

// StartTime returns the instant the request finished parsing. The value
// carries a monotonic clock reading, so durations computed from it are
// immune to wall-clock jumps.
func (r *Request) StartTime() time.Time { return r.start }
