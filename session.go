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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/httpserver/logging"
)

const contentTypeText = "text/plain"

// session drives one TCP connection through the read → dispatch → write →
// keep-alive cycle. All of its state is owned by its goroutine, which is the
// connection's serialized lane: the cross-goroutine entry points are
// postResponse, which hands a response over a channel instead of touching
// session state, and shutdown, which only sets the closed flag and closes
// the socket.
type session struct {
	id    uint64
	reqID uint64
	srv   *Server
	conn  net.Conn

	// limit caps the bytes of one request; its budget is reset before
	// each read. br buffers on top of it.
	limit *io.LimitedReader
	br    *bufio.Reader

	// respCh carries the handler's response back onto the lane. Capacity
	// one: with a single in-flight request per connection a send never
	// blocks.
	respCh chan *Response
	closed atomic.Bool

	// httpReq is the wire request currently being answered; response
	// assembly needs its keep-alive bit, Accept-Encoding and method.
	httpReq *http.Request
}

// newSession registers a session for an accepted connection and bumps the
// session counter. The caller starts the lane with run.
func (srv *Server) newSession(conn net.Conn) *session {
	s := &session{
		id:     srv.sessionSeq.Add(1),
		srv:    srv,
		conn:   conn,
		respCh: make(chan *Response, 1),
	}
	s.limit = &io.LimitedReader{R: conn}
	s.br = bufio.NewReader(s.limit)

	srv.addSession(s)
	srv.stats.sessions.Add(1)
	logging.Trace("session create", "session", s.id, "remote", conn.RemoteAddr().String())
	return s
}

// run is the session lane. It loops one request/response cycle at a time
// until the peer leaves, an error or timeout fires, or the server stops.
func (s *session) run() {
	defer s.teardown()

	for {
		s.reqID++
		req, body, ok := s.readRequest()
		if !ok {
			return
		}
		s.httpReq = req

		if !s.processRequest(req, body) {
			return
		}
		s.httpReq = nil
	}
}

// teardown closes the socket and unregisters the session. It runs exactly
// once, on every exit path.
func (s *session) teardown() {
	s.shutdown()
	s.srv.removeSession(s.id)
	s.srv.stats.sessions.Add(-1)
	logging.Trace("session destroy", "session", s.id)
}

// shutdown marks the session closed and closes the socket. Safe to call
// from outside the lane; the server uses it to cut connections on Stop.
func (s *session) shutdown() {
	if s.closed.CompareAndSwap(false, true) {
		_ = s.conn.Close()
		logging.Trace("session closed", "session", s.id)
	}
}

// readRequest arms the read deadline and parses one full request, body
// included, within the request size budget. It returns ok=false when the
// session must close, having already counted and logged the cause.
func (s *session) readRequest() (*http.Request, []byte, bool) {
	if t := s.srv.opts.ReadTimeout; t > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(t))
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	s.limit.N = int64(s.srv.opts.MaxRequestSize)

	req, err := http.ReadRequest(s.br)
	if err != nil {
		s.noteReadError(err)
		return nil, nil, false
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		s.noteReadError(err)
		return nil, nil, false
	}

	s.srv.stats.readSuccesses.Add(1)
	logging.Trace("read success", "session", s.id, "request", s.reqID)
	return req, body, true
}

// noteReadError classifies a failed read: clean EOF is a normal close,
// server shutdown is not counted, deadline expiry counts as a read timeout,
// everything else (malformed request, size overflow, I/O error) as a read
// failure.
func (s *session) noteReadError(err error) {
	switch {
	case errors.Is(err, io.EOF) && s.limit.N > 0:
		logging.Trace("session close, peer finished", "session", s.id, "request", s.reqID)
	case s.closed.Load() || errors.Is(err, net.ErrClosed):
		logging.Trace("session close, server stopping", "session", s.id, "request", s.reqID)
	case isTimeout(err):
		s.srv.stats.readTimeouts.Add(1)
		logging.Trace("close invalid session, read timeout", "session", s.id, "request", s.reqID)
	default:
		s.srv.stats.readFailures.Add(1)
		logging.Trace("close invalid session, read failed",
			"session", s.id, "request", s.reqID, "error", err)
	}
}

// processRequest runs steps 2–8 of the per-request pipeline: URL parse,
// method filter, route, request build, dispatch, response write. It returns
// true when the connection should read the next request.
func (s *session) processRequest(req *http.Request, body []byte) bool {
	// The write deadline budgets everything from here to the last byte on
	// the wire, handler time included.
	var expired <-chan time.Time
	if t := s.srv.opts.WriteTimeout; t > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(t))
		timer := time.NewTimer(t)
		defer timer.Stop()
		expired = timer.C
	} else {
		_ = s.conn.SetWriteDeadline(time.Time{})
	}

	method := methodFromString(req.Method)

	// Some legacy clients send a literal '|' in GET targets; rewrite it to
	// its encoded form instead of rejecting the request.
	target := req.RequestURI
	if method == MethodGet && strings.Contains(target, "|") {
		target = strings.ReplaceAll(target, "|", "%7C")
	}

	u, err := url.ParseRequestURI(target)
	if err != nil {
		s.srv.stats.handledRequests.Add(1)
		logging.Error("parse url failed",
			"session", s.id, "request", s.reqID, "error", err)
		return s.writeResponse(NewResponse(StatusBadRequest, []byte("url invalid"), contentTypeText))
	}

	if method == MethodUnknown {
		s.srv.stats.handledRequests.Add(1)
		logging.Error("method not support",
			"session", s.id, "request", s.reqID, "method", req.Method)
		return s.writeResponse(NewResponse(StatusBadRequest, []byte("current method not support"), contentTypeText))
	}

	// Routing works on the raw segments; percent-decoding never applies
	// to path matching.
	segments := splitSegments(u.EscapedPath())
	handler := s.srv.router.search(segments)
	if handler == nil {
		s.srv.stats.handledRequests.Add(1)
		logging.Error("handler not found",
			"session", s.id, "request", s.reqID, "path", u.EscapedPath())
		return s.writeResponse(NewResponse(StatusBadRequest, []byte("current url not support"), contentTypeText))
	}

	request := &Request{
		method:    method,
		sessionID: s.id,
		requestID: s.reqID,
		body:      body,
		segments:  segments,
		headers:   collectHeaders(req),
		params:    collectParams(u, s.srv.opts.AutoDecodeParams),
		start:     time.Now(),
	}
	writer := &ResponseWriter{session: s}

	s.srv.stats.workingHandlers.Add(1)
	panicked := s.dispatch(handler, request, writer)
	s.srv.stats.workingHandlers.Add(-1)
	s.srv.stats.handledRequests.Add(1)

	if panicked && !writer.sent.Load() {
		s.srv.stats.writeFailures.Add(1)
		return false
	}

	// Await the response on the lane. The handler may have sent
	// synchronously, in which case the channel already holds it. The write
	// deadline bounds the wait for a deferred response.
	select {
	case rsp := <-s.respCh:
		return s.writeResponse(rsp)
	case <-expired:
		s.srv.stats.writeTimeouts.Add(1)
		logging.Error("close invalid session, write timeout",
			"session", s.id, "request", s.reqID)
		return false
	case <-s.srv.done:
		logging.Trace("session close, server stopping", "session", s.id, "request", s.reqID)
		return false
	}
}

// dispatch invokes the handler, tracing the call when enabled and
// containing panics. The handler contract is no-panic; a panic that escapes
// anyway must not take the worker down.
func (s *session) dispatch(h Handler, req *Request, w *ResponseWriter) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logging.Error("handler panic",
				"session", s.id, "request", s.reqID, "panic", fmt.Sprint(r))
		}
	}()

	if tracer := s.srv.tracer; tracer != nil {
		_, span := tracer.Start(context.Background(), "httpserver.dispatch",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(dispatchAttrs(req)...))
		defer span.End()
	}

	h.Handle(req, w)
	return false
}

// postResponse is the cross-goroutine handoff behind ResponseWriter.Send.
// When the connection is already gone the response is dropped and counted
// as a write failure; the handler cannot be cancelled, only its write can
// fail.
func (s *session) postResponse(rsp *Response) error {
	if s.closed.Load() {
		s.srv.stats.writeFailures.Add(1)
		logging.Error("response dropped, session closed", "session", s.id)
		return ErrSessionClosed
	}
	s.respCh <- rsp
	return nil
}

// writeResponse finalizes and transmits a response: keep-alive resolution,
// headers, gzip, HEAD body suppression, Content-Length. Returns true when
// the connection stays open for the next request.
func (s *session) writeResponse(rsp *Response) bool {
	req := s.httpReq
	keepAlive := !rsp.forceDisableKeepAlive && !req.Close
	isHead := req.Method == "HEAD"

	body := rsp.body
	gzipped := false
	wantGzip := rsp.forceGzip ||
		(s.srv.opts.AutoGzip && len(body) > autoGzipThreshold &&
			acceptsGzip(req.Header.Get("Accept-Encoding")))
	if wantGzip {
		compressed, err := compressBody(rsp.level, body)
		if err != nil {
			logging.Error("compress response failed",
				"session", s.id, "request", s.reqID, "error", err)
		} else {
			body = compressed
			gzipped = true
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("HTTP/1.1 ")
	_, _ = buf.WriteString(strconv.Itoa(int(rsp.status)))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(rsp.status.reasonPhrase())
	_, _ = buf.WriteString("\r\n")

	writeHeaderLine(buf, "Content-Type", rsp.contentType)
	for name, value := range rsp.headers {
		writeHeaderLine(buf, name, value)
	}
	if gzipped {
		writeHeaderLine(buf, "Content-Encoding", "gzip")
	}
	if !keepAlive {
		writeHeaderLine(buf, "Connection", "close")
	}
	writeHeaderLine(buf, "Content-Length", strconv.Itoa(len(body)))
	_, _ = buf.WriteString("\r\n")

	// HEAD keeps the headers, including the Content-Length of the body
	// that is not sent.
	if !isHead {
		_, _ = buf.Write(body)
	}

	if _, err := s.conn.Write(buf.B); err != nil {
		if isTimeout(err) {
			s.srv.stats.writeTimeouts.Add(1)
			logging.Error("close invalid session, write timeout",
				"session", s.id, "request", s.reqID)
		} else {
			s.srv.stats.writeFailures.Add(1)
			logging.Error("close invalid session, write failed",
				"session", s.id, "request", s.reqID, "error", err)
		}
		return false
	}

	s.srv.stats.writeSuccesses.Add(1)
	if !keepAlive {
		logging.Trace("keep alive is false, should close", "session", s.id, "request", s.reqID)
		return false
	}
	logging.Trace("write success", "session", s.id, "request", s.reqID)
	return true
}

func writeHeaderLine(buf *bytebufferpool.ByteBuffer, name, value string) {
	_, _ = buf.WriteString(name)
	_, _ = buf.WriteString(": ")
	_, _ = buf.WriteString(value)
	_, _ = buf.WriteString("\r\n")
}

// collectHeaders flattens the wire headers into a name→value map, last
// value winning on duplicates. The Host header, which the parser pulls out
// of the header block, is put back.
func collectHeaders(req *http.Request) map[string]string {
	headers := make(map[string]string, len(req.Header)+1)
	for name, values := range req.Header {
		headers[name] = values[len(values)-1]
	}
	if req.Host != "" {
		headers["Host"] = req.Host
	}
	return headers
}

// collectParams gathers the query parameters, percent-decoded or raw per
// the server options. Last value wins on duplicate keys either way.
func collectParams(u *url.URL, decode bool) map[string]string {
	params := make(map[string]string)
	if u.RawQuery == "" {
		return params
	}
	if decode {
		for key, values := range u.Query() {
			params[key] = values[len(values)-1]
		}
		return params
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		params[key] = value
	}
	return params
}

// acceptsGzip reports whether an Accept-Encoding value admits gzip,
// matching "gzip" or "*" case-insensitively.
func acceptsGzip(acceptEncoding string) bool {
	if acceptEncoding == "" {
		return false
	}
	lower := strings.ToLower(acceptEncoding)
	return strings.Contains(lower, "gzip") || strings.Contains(lower, "*")
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
