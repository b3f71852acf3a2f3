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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{ name string }

func (h *stubHandler) Handle(*Request, *ResponseWriter) {}

func TestRouterInsertRejectsInvalidPaths(t *testing.T) {
	t.Parallel()
	r := newRouter()
	h := &stubHandler{name: "h"}

	require.ErrorIs(t, r.insert("/..", h), ErrInvalidPath)
	require.ErrorIs(t, r.insert("/../abc", h), ErrInvalidPath)
	require.ErrorIs(t, r.insert("abc", h), ErrInvalidPath)
	require.ErrorIs(t, r.insert("", h), ErrInvalidPath)
	require.ErrorIs(t, r.insert("/ok", nil), ErrInvalidPath)
}

func TestRouterLongestPrefixSearch(t *testing.T) {
	t.Parallel()
	r := newRouter()
	root := &stubHandler{name: "root"}
	hello := &stubHandler{name: "hello"}
	helloTest := &stubHandler{name: "hello/test"}
	helloTestAbc := &stubHandler{name: "hello/test/abc"}

	require.NoError(t, r.insert("/", root))
	require.NoError(t, r.insert("/hello", hello))
	require.NoError(t, r.insert("/hello/test", helloTest))
	require.NoError(t, r.insert("/hello/test/abc/", helloTestAbc))

	tests := []struct {
		path string
		want Handler
	}{
		{"/abc", nil},
		{"//", nil},
		{"/he", nil},
		{"hello", nil},
		{"", root},
		{"/", root},
		{"/hello", hello},
		{"/hello/", hello},
		{"/hello/test", helloTest},
		{"/hello/test/", helloTest},
		{"/hello/abc/def", hello},
		{"/hello/test/abc/", helloTestAbc},
		{"/hello/test/abc", helloTestAbc},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := r.searchPath(tt.path)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.Same(t, tt.want, got)
			}
		})
	}
}

func TestRouterRootOnlyForEmptyPath(t *testing.T) {
	t.Parallel()
	r := newRouter()
	root := &stubHandler{name: "root"}
	require.NoError(t, r.insert("/", root))

	// A non-empty path that matches no registered segment never falls
	// back to the root handler.
	assert.Nil(t, r.searchPath("/nothing"))
	assert.Same(t, root, r.searchPath("/"))
	assert.Same(t, root, r.searchPath(""))
}

func TestRouterSegmentsSearch(t *testing.T) {
	t.Parallel()
	r := newRouter()
	root := &stubHandler{name: "root"}
	hello := &stubHandler{name: "hello"}
	require.NoError(t, r.insert("/", root))
	require.NoError(t, r.insert("/hello", hello))

	assert.Same(t, root, r.search(nil))
	assert.Same(t, hello, r.search([]string{"hello"}))
	assert.Same(t, hello, r.search([]string{"hello", "abc", "def"}))
	assert.Nil(t, r.search([]string{"abc"}))
	assert.Nil(t, r.search([]string{""}))
}

func TestRouterOverwriteKeepsLastHandler(t *testing.T) {
	t.Parallel()
	r := newRouter()
	first := &stubHandler{name: "first"}
	second := &stubHandler{name: "second"}

	require.NoError(t, r.insert("/path", first))
	require.NoError(t, r.insert("/path", second))
	assert.Same(t, second, r.searchPath("/path"))

	// Trailing slash names the same node.
	third := &stubHandler{name: "third"}
	require.NoError(t, r.insert("/path/", third))
	assert.Same(t, third, r.searchPath("/path"))
}

func TestSplitSegments(t *testing.T) {
	t.Parallel()
	assert.Nil(t, splitSegments(""))
	assert.Nil(t, splitSegments("/"))
	assert.Equal(t, []string{"hello"}, splitSegments("/hello"))
	assert.Equal(t, []string{"hello", ""}, splitSegments("/hello/"))
	assert.Equal(t, []string{"", ""}, splitSegments("//"))
	assert.Equal(t, []string{"a", "b", "c"}, splitSegments("/a/b/c"))
}
