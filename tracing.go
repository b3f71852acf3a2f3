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
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope reported on dispatch spans.
const tracerName = "rivaas.dev/httpserver"

// newTracer obtains a tracer from the process-global TracerProvider. The
// embedder owns provider setup and export; with no provider installed the
// spans are no-ops.
func newTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// dispatchAttrs describes one dispatch for its span.
func dispatchAttrs(req *Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("http.request.method", req.method.String()),
		attribute.String("url.path", "/" + strings.Join(req.segments, "/")),
		attribute.Int64("httpserver.session_id", int64(req.sessionID)),
		attribute.Int64("httpserver.request_id", int64(req.requestID)),
	}
}
