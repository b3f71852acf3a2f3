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

// Package httpserver is an embeddable HTTP/1.1 server. Applications
// register handlers by path prefix and call Run; the server accepts
// connections, parses requests, dispatches to the handler registered at the
// longest matching path prefix, and writes the handler's response back with
// optional gzip compression and keep-alive connection reuse.
//
//	srv := httpserver.NewServer(httpserver.DefaultOptions())
//	srv.RegisterHandler("/hello", httpserver.HandlerFunc(
//		func(req *httpserver.Request, w *httpserver.ResponseWriter) {
//			w.Send(httpserver.NewResponse(httpserver.StatusOK, []byte("hi"), "text/plain"))
//		}))
//	srv.Run()
//
// Each connection is driven by its own serialized lane: handler dispatch,
// response writes and timeouts for one connection never run concurrently
// with each other. A handler may answer synchronously or move the
// ResponseWriter to another goroutine and answer later; the connection
// waits, bounded only by the write deadline.
//
// The server speaks plain HTTP/1.1 over TCP. TLS, HTTP/2, websockets and
// streaming uploads are out of scope, as are routing parameters and
// middleware; policy of any kind belongs in handlers.
package httpserver
