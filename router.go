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
	"strings"
)

// ErrInvalidPath is returned by handler registration when the path does not
// begin with '/', contains "..", or the handler is nil.
var ErrInvalidPath = errors.New("invalid path")

// pathEdge is a per-segment child of a trie node. Children are kept in a
// slice and scanned linearly; route sets are small and registration-time
// only, so a map buys nothing on the lookup path.
type pathEdge struct {
	label string
	node  *pathNode
}

// pathNode is one segment of the registration trie. A node carries a handler
// only when a path was registered ending at it.
type pathNode struct {
	handler Handler
	edges   []pathEdge
}

// findChild returns the child node for the given segment, or nil.
// Segment comparison is byte-exact; no percent-decoding, no case folding.
func (n *pathNode) findChild(segment string) *pathNode {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}
	return nil
}

// findOrCreateChild returns the child node for the given segment, creating
// it if needed.
func (n *pathNode) findOrCreateChild(segment string) *pathNode {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &pathNode{}
	n.edges = append(n.edges, pathEdge{label: segment, node: child})
	return child
}

// router resolves a request path to the handler registered at the longest
// matching prefix, in whole segments.
//
// Thread safety: insert runs only during the single-threaded configuration
// phase before Run; after that the trie is immutable and read concurrently
// without locking.
type router struct {
	root *pathNode
}

func newRouter() *router {
	return &router{root: &pathNode{}}
}

// insert registers a handler at path. The path must begin with '/', must not
// contain "..", and a trailing '/' is ignored, so "/test/" and "/test" name
// the same node. Registering "/" stores the handler on the root. The same
// path registered twice keeps the last handler.
func (r *router) insert(path string, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: handler is nil", ErrInvalidPath)
	}
	if path == "" || path[0] != '/' {
		return fmt.Errorf("%w: %q should start with '/'", ErrInvalidPath, path)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q contains relative segment", ErrInvalidPath, path)
	}

	node := r.root
	if path != "/" {
		for _, segment := range strings.Split(path[1:], "/") {
			if segment == "" {
				break
			}
			node = node.findOrCreateChild(segment)
		}
	}
	node.handler = h
	return nil
}

// search walks the trie along segments and returns the handler of the
// deepest node reached. The walk stops at the first segment with no matching
// child. When no segment at all matched, the root's handler is returned only
// for an empty segment list; a non-empty path that matches nothing resolves
// to no handler even when "/" is registered.
func (r *router) search(segments []string) Handler {
	if len(segments) == 0 {
		return r.root.handler
	}

	node := r.root
	for _, segment := range segments {
		if segment == "" {
			break
		}
		child := node.findChild(segment)
		if child == nil {
			break
		}
		node = child
	}
	if node == r.root {
		return nil
	}
	return node.handler
}

// searchPath resolves a raw request path. An empty path and "/" resolve to
// the root handler; a path without a leading '/' resolves to nothing.
func (r *router) searchPath(path string) Handler {
	if path == "" || path == "/" {
		return r.root.handler
	}
	if path[0] != '/' {
		return nil
	}
	return r.search(splitSegments(path))
}

// splitSegments cuts a request path into its raw segments. "" and "/" have
// no segments; a trailing slash produces a final empty segment, which both
// insert and search treat as end-of-path.
func splitSegments(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	if path[0] == '/' {
		path = path[1:]
	}
	return strings.Split(path, "/")
}
