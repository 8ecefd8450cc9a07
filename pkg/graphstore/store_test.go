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

package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreOpenEnsuresSchema(t *testing.T) {
	s := openTestStore(t)
	ok, err := s.FileExists("main.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreUpsertAndGetNode(t *testing.T) {
	s := openTestStore(t)
	n := graph.Node{Name: "pkg/foo.go:Widget", Type: graph.Class, Language: graph.LangGo, Code: "type Widget struct{}", SkeletonCode: "type Widget struct{}"}
	require.NoError(t, s.UpsertNodes([]graph.Node{n}))

	got, ok, err := s.GetNode("pkg/foo.go:Widget")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n.Name, got.Name)
	assert.Equal(t, graph.Class, got.Type)
	assert.Equal(t, n.Code, got.Code)
}

func TestStoreUpsertOverwritesInPlace(t *testing.T) {
	s := openTestStore(t)
	n := graph.Node{Name: "pkg/foo.go:Widget", Type: graph.Class, Code: "v1"}
	require.NoError(t, s.UpsertNodes([]graph.Node{n}))
	n.Code = "v2"
	require.NoError(t, s.UpsertNodes([]graph.Node{n}))

	got, ok, err := s.GetNode("pkg/foo.go:Widget")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got.Code)
}

func TestStoreBulkInsertNodesAndRoot(t *testing.T) {
	s := openTestStore(t)
	nodes := []graph.Node{
		{Name: graph.RootName, Type: graph.Directory},
		{Name: "pkg", Type: graph.Directory},
		{Name: "pkg/foo.go", Type: graph.File, Language: graph.LangGo},
	}
	require.NoError(t, s.BulkInsertNodes(nodes))

	tree, err := s.GetFileTree("")
	require.NoError(t, err)
	names := make([]string, 0, len(tree))
	for _, n := range tree {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, graph.RootName)
	assert.Contains(t, names, "pkg")
	assert.Contains(t, names, "pkg/foo.go")
}

func TestStoreBulkInsertEdgesAndQuery(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertNodes([]graph.Node{
		{Name: "main.go", Type: graph.File, Language: graph.LangGo},
		{Name: "pkg", Type: graph.Directory},
	}))
	require.NoError(t, s.BulkInsertEdges([]graph.Edge{
		{Type: graph.Imports, From: graph.Endpoint{Name: "main.go", Type: graph.File}, To: graph.Endpoint{Name: "pkg", Type: graph.Directory}},
	}))

	got, err := s.QueryEdges(graph.Imports, graph.File, graph.Directory, ", from_name = $from", map[string]any{"from": "main.go"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pkg", got[0].To.Name)
}

func TestStoreDeleteNodesRemovesFileAndChildren(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertNodes([]graph.Node{
		{Name: "pkg/foo.go", Type: graph.File, Language: graph.LangGo},
		{Name: "pkg/foo.go:Widget", Type: graph.Class, Language: graph.LangGo},
	}))
	require.NoError(t, s.BulkInsertEdges([]graph.Edge{
		{Type: graph.Contains, From: graph.Endpoint{Name: "pkg/foo.go", Type: graph.File}, To: graph.Endpoint{Name: "pkg/foo.go:Widget", Type: graph.Class}},
	}))

	require.NoError(t, s.DeleteNodes("pkg/foo.go"))

	ok, err := s.FileExists("pkg/foo.go")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetNode("pkg/foo.go:Widget")
	require.NoError(t, err)
	assert.False(t, ok, "child class node should be removed along with its owning file")

	edges, err := s.QueryEdges(graph.Contains, graph.File, graph.Class, "", nil)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestStoreClean(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNodes([]graph.Node{{Name: "main.go", Type: graph.File}}))

	require.NoError(t, s.Clean())

	ok, err := s.FileExists("main.go")
	require.NoError(t, err)
	assert.False(t, ok)

	// Clean leaves a usable schema behind: a subsequent write must succeed.
	require.NoError(t, s.UpsertNodes([]graph.Node{{Name: "other.go", Type: graph.File}}))
	ok, err = s.FileExists("other.go")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreNodesByShortName(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNodes([]graph.Node{
		{Name: "pkg/foo.go:Widget", Type: graph.Class},
		{Name: "pkg/bar.go:Other", Type: graph.Class},
	}))

	got, err := s.NodesByShortName("widget")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pkg/foo.go:Widget", got[0].Name)
}

func TestStoreQueryNodesWhereClause(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNodes([]graph.Node{
		{Name: "pkg/foo.go:Widget", Type: graph.Class, Language: graph.LangGo},
		{Name: "pkg/bar.go:Other", Type: graph.Class, Language: graph.LangTypeScript},
	}))

	got, err := s.QueryNodes(graph.Class, ", language = $lang", map[string]any{"lang": string(graph.LangGo)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pkg/foo.go:Widget", got[0].Name)
}
