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
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPipeSession wires a session to one end of an in-memory pipe so the
// write path can be exercised without a listener.
func newPipeSession(t *testing.T, opts Options) (*session, net.Conn) {
	t.Helper()
	srv := NewServer(opts)
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	s := &session{id: 1, reqID: 1, srv: srv, conn: server, respCh: make(chan *Response, 1)}
	return s, client
}

func wireRequest(method string, headers map[string]string) *http.Request {
	req := &http.Request{
		Method:     method,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return req
}

// readWire runs writeResponse on its own goroutine and parses what came out
// of the pipe.
func readWire(t *testing.T, s *session, client net.Conn, rsp *Response) (*http.Response, bool) {
	t.Helper()
	keepCh := make(chan bool, 1)
	go func() { keepCh <- s.writeResponse(rsp) }()

	wire, err := http.ReadResponse(bufio.NewReader(client), s.httpReq)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wire.Body.Close() })
	return wire, <-keepCh
}

func TestWriteResponsePlain(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", nil)

	wire, keep := readWire(t, s, client, NewResponse(StatusOK, []byte("hello"), contentTypeText))
	assert.True(t, keep)
	assert.Equal(t, 200, wire.StatusCode)
	assert.Equal(t, contentTypeText, wire.Header.Get("Content-Type"))
	body, err := io.ReadAll(wire.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, uint64(1), s.srv.Statistics().WriteSuccesses)
}

func TestWriteResponseAutoGzipOverThreshold(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", map[string]string{"Accept-Encoding": "gzip"})

	payload := make([]byte, autoGzipThreshold+1)
	for i := range payload {
		payload[i] = 'A'
	}
	wire, keep := readWire(t, s, client, NewResponse(StatusOK, payload, contentTypeText))
	assert.True(t, keep)
	assert.Equal(t, "gzip", wire.Header.Get("Content-Encoding"))
	body, err := io.ReadAll(wire.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, gunzip(t, body))
}

func TestWriteResponseAutoGzipUnderThreshold(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", map[string]string{"Accept-Encoding": "gzip"})

	wire, _ := readWire(t, s, client, NewResponse(StatusOK, []byte("small"), contentTypeText))
	assert.Empty(t, wire.Header.Get("Content-Encoding"))
}

func TestWriteResponseNoGzipWithoutAcceptEncoding(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", nil)

	payload := make([]byte, autoGzipThreshold*4)
	wire, _ := readWire(t, s, client, NewResponse(StatusOK, payload, contentTypeText))
	assert.Empty(t, wire.Header.Get("Content-Encoding"))
}

func TestWriteResponseForceGzipIgnoresThreshold(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", nil)

	rsp := NewResponse(StatusOK, []byte("tiny"), contentTypeText).ForceGzip()
	wire, _ := readWire(t, s, client, rsp)
	assert.Equal(t, "gzip", wire.Header.Get("Content-Encoding"))
	body, err := io.ReadAll(wire.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), gunzip(t, body))
}

func TestWriteResponseHeadSuppressesBody(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("HEAD", nil)

	wire, keep := readWire(t, s, client, NewResponse(StatusOK, []byte("abc"), contentTypeText))
	assert.True(t, keep)
	assert.Equal(t, int64(3), wire.ContentLength)
	body, err := io.ReadAll(wire.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestWriteResponseForceDisableKeepAlive(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", nil)

	rsp := NewResponse(StatusOK, []byte("bye"), contentTypeText).ForceDisableKeepAlive()
	wire, keep := readWire(t, s, client, rsp)
	assert.False(t, keep)
	assert.Equal(t, "close", wire.Header.Get("Connection"))
}

func TestWriteResponseInheritsRequestClose(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	req := wireRequest("GET", nil)
	req.Close = true
	s.httpReq = req

	wire, keep := readWire(t, s, client, NewResponse(StatusOK, nil, contentTypeText))
	assert.False(t, keep)
	assert.Equal(t, "close", wire.Header.Get("Connection"))
}

func TestWriteResponseUserHeaders(t *testing.T) {
	t.Parallel()
	s, client := newPipeSession(t, DefaultOptions())
	s.httpReq = wireRequest("GET", nil)

	rsp := NewResponse(StatusOK, nil, contentTypeText).Header("X-Request-Id", "42")
	wire, _ := readWire(t, s, client, rsp)
	assert.Equal(t, "42", wire.Header.Get("X-Request-Id"))
}

func TestCollectHeadersLastValueWins(t *testing.T) {
	t.Parallel()
	req := wireRequest("GET", nil)
	req.Header.Add("X-Multi", "first")
	req.Header.Add("X-Multi", "second")
	req.Host = "example.test"

	headers := collectHeaders(req)
	assert.Equal(t, "second", headers["X-Multi"])
	assert.Equal(t, "example.test", headers["Host"])
}

func TestCollectParamsDecoded(t *testing.T) {
	t.Parallel()
	u, err := url.ParseRequestURI("/url?destination=25.67,-80.37,0%7C0,,SW%20113th%20Pl&flag=true")
	require.NoError(t, err)

	params := collectParams(u, true)
	assert.Equal(t, "25.67,-80.37,0|0,,SW 113th Pl", params["destination"])
	assert.Equal(t, "true", params["flag"])
}

func TestCollectParamsRaw(t *testing.T) {
	t.Parallel()
	u, err := url.ParseRequestURI("/url?destination=25.67,-80.37,0%7C0,,SW%20113th%20Pl")
	require.NoError(t, err)

	params := collectParams(u, false)
	assert.Equal(t, "25.67,-80.37,0%7C0,,SW%20113th%20Pl", params["destination"])
}

func TestCollectParamsLastValueWins(t *testing.T) {
	t.Parallel()
	u, err := url.ParseRequestURI("/p?k=a&k=b")
	require.NoError(t, err)

	assert.Equal(t, "b", collectParams(u, true)["k"])
	assert.Equal(t, "b", collectParams(u, false)["k"])
}
