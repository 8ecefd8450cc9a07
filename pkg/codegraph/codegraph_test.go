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

//go:build cgo

package codegraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestCodeGraph(t *testing.T, repoRoot string) *CodeGraph {
	t.Helper()
	cg, err := New(Config{RepoRoot: repoRoot, DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cg.Close() })
	return cg
}

func TestCodeGraphIndexRepoAndGetNodeAndFileTree(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	mustWrite(t, filepath.Join(root, "widget.go"), `package widget

type Widget struct {
	Name string
}

func Handle(w *Widget) string {
	return w.Name
}
`)

	cg := newTestCodeGraph(t, root)
	stats, err := cg.Index(root, false)
	require.NoError(t, err)
	assert.Greater(t, stats.Nodes, 0)
	assert.Greater(t, stats.Edges, 0)

	n, ok, err := cg.GetNode("widget.go:Widget")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, graph.Class, n.Type)

	tree, err := cg.GetFileTree("")
	require.NoError(t, err)
	var sawFile bool
	for _, f := range tree {
		if f.Name == "widget.go" {
			sawFile = true
		}
	}
	assert.True(t, sawFile)
}

func TestCodeGraphGetFuncParamTypesAssemblesSnippet(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	mustWrite(t, filepath.Join(root, "widget.go"), `package widget

type Widget struct {
	Name string
}

func Handle(w *Widget) string {
	return w.Name
}
`)

	cg := newTestCodeGraph(t, root)
	_, err := cg.Index(root, false)
	require.NoError(t, err)

	// Row 7 (0-indexed) is "return w.Name", strictly inside Handle's body.
	snippets, err := cg.GetFuncParamTypes("widget.go", 7)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "widget.go", snippets[0].Path)
	assert.Contains(t, snippets[0].Content, "Widget")
}

func TestCodeGraphIndexDirtyFileReplacesDefinitions(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	mustWrite(t, filepath.Join(root, "widget.go"), "package widget\n\nfunc Old() {}\n")

	cg := newTestCodeGraph(t, root)
	_, err := cg.Index(root, false)
	require.NoError(t, err)

	_, ok, err := cg.GetNode("widget.go:Old")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = cg.IndexDirtyFile(filepath.Join(root, "widget.go"), []byte("package widget\n\nfunc New() {}\n"))
	require.NoError(t, err)

	_, ok, err = cg.GetNode("widget.go:Old")
	require.NoError(t, err)
	assert.False(t, ok, "Old should be gone after the dirty buffer renamed it to New")

	_, ok, err = cg.GetNode("widget.go:New")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCodeGraphCleanWithoutDeleteLeavesStoreUsable(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	mustWrite(t, filepath.Join(root, "widget.go"), "package widget\n\nfunc Foo() {}\n")

	cg := newTestCodeGraph(t, root)
	_, err := cg.Index(root, false)
	require.NoError(t, err)

	require.NoError(t, cg.Clean(false))

	_, ok, err := cg.GetNode("widget.go:Foo")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cg.Index(root, false)
	require.NoError(t, err)
	_, ok, err = cg.GetNode("widget.go:Foo")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCodeGraphCleanWithDeleteRemovesDataDir(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	dataDir := t.TempDir()
	cg, err := New(Config{RepoRoot: root, DataDir: dataDir, Engine: "mem"})
	require.NoError(t, err)

	require.NoError(t, cg.Clean(true))

	_, err = os.Stat(dataDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCodeGraphIndexUnsupportedDirectoryRejected(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "go.mod"), "module example.com/acme\n\ngo 1.22\n")
	mustWrite(t, filepath.Join(root, "pkg", "util.go"), "package pkg\n")

	cg := newTestCodeGraph(t, root)
	_, err := cg.Index(filepath.Join(root, "pkg"), false)
	assert.Error(t, err)
}
