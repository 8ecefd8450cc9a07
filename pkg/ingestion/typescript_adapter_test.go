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

package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
)

func writeTSFixture(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "base.ts"), []byte(`
export interface Base {
  id: string;
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fmt.ts"), []byte(`
export interface Other {
  value: string;
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "widget.ts"), []byte(`
import { Base } from './base';
import * as fmt from './fmt';

export class Widget extends Base {
  name: string;

  describe(o: fmt.Other): string {
    return this.name;
  }
}

export function makeWidget(name: string): Widget {
  return new Widget();
}
`), 0o644))
}

func parseTSFixture(t *testing.T) AdapterResult {
	t.Helper()
	root := t.TempDir()
	writeTSFixture(t, root)
	a := NewTypeScriptAdapter(root, nil)
	src, err := os.ReadFile(filepath.Join(root, "widget.ts"))
	require.NoError(t, err)
	file := graph.Node{Name: "widget.ts", Type: graph.File, Language: graph.LangTypeScript}
	return a.Parse(file, src)
}

func TestTSAdapterExtractsClassAndMethod(t *testing.T) {
	ar := parseTSFixture(t)
	_, ok := findNode(ar.Nodes, "widget.ts:Widget")
	require.True(t, ok, "expected Widget class node, got %+v", ar.Nodes)
	_, ok = findNode(ar.Nodes, "widget.ts:Widget.describe")
	require.True(t, ok, "expected Widget.describe method node, got %+v", ar.Nodes)
}

func TestTSAdapterClassContainsMethod(t *testing.T) {
	ar := parseTSFixture(t)
	var found bool
	for _, e := range ar.Edges {
		if e.Type == graph.Contains && e.To.Name == "widget.ts:Widget.describe" {
			found = true
			assert.Equal(t, "widget.ts:Widget", e.From.Name)
		}
	}
	assert.True(t, found)
}

func TestTSAdapterResolvesRelativeImports(t *testing.T) {
	ar := parseTSFixture(t)
	require.Len(t, ar.Imports, 2)
	var sawNamed, sawNamespace bool
	for _, imp := range ar.Imports {
		switch {
		case imp.Symbol == "Base":
			sawNamed = true
			assert.Equal(t, "base.ts", imp.SourcePath)
		case imp.Alias == "fmt":
			sawNamespace = true
			assert.Equal(t, "fmt.ts", imp.SourcePath)
		}
	}
	assert.True(t, sawNamed, "expected a named import of Base")
	assert.True(t, sawNamespace, "expected a namespace import aliased fmt resolved to fmt.ts")
}

func TestTSAdapterInheritsFromImportedBase(t *testing.T) {
	ar := parseTSFixture(t)
	var found bool
	for _, inh := range ar.Inherits {
		if inh.FromName == "widget.ts:Widget" && inh.TypeName == "Base" {
			found = true
			assert.Equal(t, "base.ts", inh.PackageName)
		}
	}
	assert.True(t, found, "expected an inherits record for Widget extends Base, got %+v", ar.Inherits)
}

func TestTSAdapterInterfaceNodeHasNoSkeletonStrip(t *testing.T) {
	root := t.TempDir()
	writeTSFixture(t, root)
	a := NewTypeScriptAdapter(root, nil)
	src, err := os.ReadFile(filepath.Join(root, "base.ts"))
	require.NoError(t, err)
	file := graph.Node{Name: "base.ts", Type: graph.File, Language: graph.LangTypeScript}
	ar := a.Parse(file, src)

	n, ok := findNode(ar.Nodes, "base.ts:Base")
	require.True(t, ok)
	assert.Equal(t, graph.Interface, n.Type)
	assert.Equal(t, n.Code, n.SkeletonCode, "interface declarations carry no body to strip")
}

func TestTSAdapterFunctionSkeletonUsesEllipsisMarker(t *testing.T) {
	ar := parseTSFixture(t)
	n, ok := findNode(ar.Nodes, "widget.ts:makeWidget")
	require.True(t, ok)
	assert.NotEqual(t, n.Code, n.SkeletonCode)
	assert.Contains(t, n.SkeletonCode, "{ ... }")
}

func TestTSAdapterUnresolvableImportDropped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.ts"), []byte(`
import { Missing } from './does-not-exist';
`), 0o644))
	a := NewTypeScriptAdapter(root, nil)
	src, err := os.ReadFile(filepath.Join(root, "main.ts"))
	require.NoError(t, err)
	file := graph.Node{Name: "main.ts", Type: graph.File, Language: graph.LangTypeScript}
	ar := a.Parse(file, src)
	assert.Empty(t, ar.Imports)
}
