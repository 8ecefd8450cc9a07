// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ingestion"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func nodeNames(nodes []graph.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}

func TestWalkEmitsDirectoryAndFileNodes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "pkg/util/util.go", "package util\n")
	writeFile(t, root, "README.md", "# hi\n")

	w := New(DefaultConfig(), map[graph.Language]ingestion.Adapter{}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	names := nodeNames(res.Nodes)
	assert.Contains(t, names, graph.RootName)
	assert.Contains(t, names, "main.go")
	assert.Contains(t, names, "pkg/util")
	assert.Contains(t, names, "pkg/util/util.go")
	assert.NotContains(t, names, "README.md")
}

func TestWalkRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "vendor/\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, "main.go", "package main\n")

	cfg := DefaultConfig()
	w := New(cfg, map[graph.Language]ingestion.Adapter{}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	names := nodeNames(res.Nodes)
	assert.NotContains(t, names, "vendor")
	assert.NotContains(t, names, "vendor/dep.go")
	assert.Contains(t, names, "main.go")
}

func TestWalkExplicitIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "a_test.go", "package a\n")

	cfg := DefaultConfig()
	cfg.IgnorePatterns = []string{"*_test.go"}
	w := New(cfg, map[graph.Language]ingestion.Adapter{}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	names := nodeNames(res.Nodes)
	assert.Contains(t, names, "a.go")
	assert.NotContains(t, names, "a_test.go")
}

func TestWalkNonRecursiveSkipsSubdirContents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "top.go", "package top\n")
	writeFile(t, root, "sub/nested.go", "package sub\n")

	cfg := DefaultConfig()
	cfg.Recursive = false
	w := New(cfg, map[graph.Language]ingestion.Adapter{}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	names := nodeNames(res.Nodes)
	assert.Contains(t, names, "top.go")
	assert.NotContains(t, names, "sub/nested.go")
}

func TestWalkMaxDepthStopsDescent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/deep.go", "package b\n")

	cfg := DefaultConfig()
	cfg.MaxDepth = 1
	w := New(cfg, map[graph.Language]ingestion.Adapter{}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	names := nodeNames(res.Nodes)
	assert.Contains(t, names, "a")
	assert.NotContains(t, names, "a/b")
	assert.NotContains(t, names, "a/b/deep.go")
}

func TestWalkInvokesAdapterForSupportedLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	calls := 0
	fake := fakeAdapter{fn: func(file graph.Node, src []byte) ingestion.AdapterResult {
		calls++
		return ingestion.AdapterResult{
			Nodes: []graph.Node{{Name: file.Name + ":Foo", Type: graph.Function}},
		}
	}}
	w := New(DefaultConfig(), map[graph.Language]ingestion.Adapter{graph.LangGo: fake}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Contains(t, nodeNames(res.Nodes), "main.go:Foo")
}

func TestWalkParsesInParallelWhenBatchIsLargeEnough(t *testing.T) {
	root := t.TempDir()
	const fileCount = 24
	for i := 0; i < fileCount; i++ {
		writeFile(t, root, fmt.Sprintf("pkg/file%02d.go", i), "package pkg\n")
	}

	var calls int64
	fake := fakeAdapter{fn: func(file graph.Node, src []byte) ingestion.AdapterResult {
		atomic.AddInt64(&calls, 1)
		return ingestion.AdapterResult{
			Nodes: []graph.Node{{Name: file.Name + ":Foo", Type: graph.Function}},
		}
	}}
	cfg := DefaultConfig()
	cfg.Concurrency = 4
	w := New(cfg, map[graph.Language]ingestion.Adapter{graph.LangGo: fake}, nil)
	res, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, int64(fileCount), calls)
	names := nodeNames(res.Nodes)
	for i := 0; i < fileCount; i++ {
		assert.Contains(t, names, fmt.Sprintf("pkg/file%02d.go:Foo", i))
	}
}

func TestWalkConcurrencyOneParsesSequentially(t *testing.T) {
	root := t.TempDir()
	const fileCount = 12
	for i := 0; i < fileCount; i++ {
		writeFile(t, root, fmt.Sprintf("file%02d.go", i), "package main\n")
	}

	var calls int64
	fake := fakeAdapter{fn: func(file graph.Node, src []byte) ingestion.AdapterResult {
		atomic.AddInt64(&calls, 1)
		return ingestion.AdapterResult{}
	}}
	cfg := DefaultConfig()
	cfg.Concurrency = 1
	w := New(cfg, map[graph.Language]ingestion.Adapter{graph.LangGo: fake}, nil)
	_, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, int64(fileCount), calls)
}

type fakeAdapter struct {
	fn func(file graph.Node, src []byte) ingestion.AdapterResult
}

func (f fakeAdapter) Parse(file graph.Node, src []byte) ingestion.AdapterResult {
	return f.fn(file, src)
}
