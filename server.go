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
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/httpserver/logging"
)

// ErrAlreadyRunning is returned by Run when the server is running already.
// Run may be called again only after a Stop has fully unwound.
var ErrAlreadyRunning = errors.New("server already running")

// Server is an embeddable HTTP/1.1 server. Construct it with NewServer,
// register handlers, then call Run; Run blocks until Stop.
type Server struct {
	opts       Options
	router     *router
	stats      statistics
	sessionSeq atomic.Uint64
	tracer     trace.Tracer

	mu      sync.Mutex
	running bool
	ln      net.Listener
	done    chan struct{}
	runDone chan struct{}

	sessionMu sync.Mutex
	sessions  map[uint64]*session

	acceptWG  sync.WaitGroup
	sessionWG sync.WaitGroup
}

// NewServer builds a server with the given options. The options are
// validated by Run, not here.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		router:   newRouter(),
		sessions: make(map[uint64]*session),
	}
	if opts.EnableTracing {
		s.tracer = newTracer()
	}
	return s
}

// RegisterHandler registers a handler for path and every unregistered path
// extending it; lookup picks the longest registered prefix in whole
// segments. Paths must begin with '/', must not contain "..", and a
// trailing '/' is ignored. Registering the same path twice keeps the last
// handler. A handler registered at "/" answers only "/" itself: a non-empty
// path that matches no registered segment gets no handler.
//
// Not safe for concurrent use; call it before Run only. The server does not
// manage handler lifetime: the handler must stay valid until Stop returns.
func (s *Server) RegisterHandler(path string, h Handler) error {
	return s.router.insert(path, h)
}

// Run validates the options, binds the listener, and serves until Stop is
// called. WorkerCount goroutines jointly drive the accept loop: the calling
// goroutine is one of them. The session id sequence and all statistics are
// reset on every Run.
//
// Run returns nil after a clean Stop, or the error that prevented startup.
func (s *Server) Run() error {
	if err := s.opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.sessionSeq.Store(0)
	s.stats.reset()

	addr := net.JoinHostPort(s.opts.Addr, strconv.Itoa(int(s.opts.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	s.done = make(chan struct{})
	s.runDone = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	logging.Info("http server listening",
		"addr", ln.Addr().String(),
		"workers", s.opts.WorkerCount,
		"read_timeout", s.opts.ReadTimeout,
		"write_timeout", s.opts.WriteTimeout,
		"max_request_size", s.opts.MaxRequestSize,
		"auto_gzip", s.opts.AutoGzip,
		"auto_decode_params", s.opts.AutoDecodeParams)

	for i := uint32(1); i < s.opts.WorkerCount; i++ {
		s.acceptWG.Add(1)
		go func() {
			defer s.acceptWG.Done()
			s.acceptLoop(ln)
		}()
	}
	s.acceptLoop(ln)
	s.acceptWG.Wait()
	s.sessionWG.Wait()

	s.mu.Lock()
	s.running = false
	s.ln = nil
	close(s.runDone)
	s.mu.Unlock()

	logging.Info("http server stopped")
	return nil
}

// acceptLoop accepts connections and starts a session lane per connection
// until the listener closes.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Error("accept failed", "error", err)
			continue
		}

		select {
		case <-s.done:
			_ = conn.Close()
			return
		default:
		}

		sess := s.newSession(conn)
		s.sessionWG.Add(1)
		go func() {
			defer s.sessionWG.Done()
			sess.run()
		}()
	}
}

// Stop signals the accept loops to unwind, closes the listener and every
// open connection, and waits for Run to drain. Safe for concurrent use and
// idempotent. Must not be called from inside a handler: the handler's own
// session would then be waiting on itself.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.done:
		// A concurrent Stop got here first; wait for the drain below.
	default:
		close(s.done)
	}
	ln := s.ln
	runDone := s.runDone
	s.mu.Unlock()

	logging.Info("http server stopping")

	var closeErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			closeErr = fmt.Errorf("close listener: %w", err)
		}
	}
	s.closeSessions()

	if runDone != nil {
		<-runDone
	}
	return closeErr
}

// Statistics returns a snapshot of the server counters. Safe for concurrent
// use; the counters are read lock-free.
func (s *Server) Statistics() Statistics {
	return s.stats.snapshot()
}

// Addr returns the bound listener address while the server is running, nil
// otherwise. With Options.Port 0 this is the way to learn the port the OS
// picked.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) addSession(sess *session) {
	s.sessionMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionMu.Unlock()

	// A stop may have raced the accept; make sure a session registered
	// after the shutdown sweep still gets its socket cut.
	select {
	case <-s.done:
		sess.shutdown()
	default:
	}
}

func (s *Server) removeSession(id uint64) {
	s.sessionMu.Lock()
	delete(s.sessions, id)
	s.sessionMu.Unlock()
}

// closeSessions cuts every open connection so blocked reads and pending
// lanes unwind promptly during Stop.
func (s *Server) closeSessions() {
	s.sessionMu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.sessionMu.Unlock()

	for _, sess := range open {
		sess.shutdown()
	}
}
