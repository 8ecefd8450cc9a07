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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/graph"
)

const goFixture = `package widget

import (
	"fmt"
	inner "example.com/acme/pkg/other"
)

// Widget represents a named thing.
type Widget struct {
	Name string
}

// NewWidget constructs a Widget.
func NewWidget(name string) *Widget {
	return &Widget{Name: name}
}

func (w *Widget) Describe(o *inner.Other) string {
	return fmt.Sprintf("%s: %v", w.Name, o)
}

// Alias is an alternate name for string.
type Alias = string

// Handler greets name.
var Handler = func(name string) string {
	return "hi " + name
}
`

func parseGoFixture(t *testing.T) AdapterResult {
	t.Helper()
	a := NewGoAdapter("example.com/acme", nil)
	file := graph.Node{Name: "widget.go", Type: graph.File, Language: graph.LangGo}
	return a.Parse(file, []byte(goFixture))
}

func findNode(nodes []graph.Node, name string) (graph.Node, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return graph.Node{}, false
}

func TestGoAdapterExtractsStruct(t *testing.T) {
	ar := parseGoFixture(t)
	n, ok := findNode(ar.Nodes, "widget.go:Widget")
	require.True(t, ok, "expected Widget struct node, got %+v", ar.Nodes)
	assert.Equal(t, graph.Class, n.Type)
	assert.Equal(t, graph.LangGo, n.Language)
	assert.Contains(t, n.Code, "struct")
}

func TestGoAdapterConstructorReparenting(t *testing.T) {
	ar := parseGoFixture(t)
	var found bool
	for _, e := range ar.Edges {
		if e.Type == graph.Contains && e.To.Name == "widget.go:NewWidget" {
			found = true
			assert.Equal(t, "widget.go:Widget", e.From.Name, "constructor should be re-parented under the struct it returns")
		}
	}
	assert.True(t, found, "expected a CONTAINS edge targeting NewWidget")
}

func TestGoAdapterMethodOwnedByReceiverStruct(t *testing.T) {
	ar := parseGoFixture(t)
	_, ok := findNode(ar.Nodes, "widget.go:Widget.Describe")
	require.True(t, ok, "expected method node, got %+v", ar.Nodes)

	var found bool
	for _, e := range ar.Edges {
		if e.Type == graph.Contains && e.To.Name == "widget.go:Widget.Describe" {
			found = true
			assert.Equal(t, "widget.go:Widget", e.From.Name)
			assert.Equal(t, graph.Class, e.From.Type)
		}
	}
	assert.True(t, found)
}

func TestGoAdapterImportsWithinModule(t *testing.T) {
	ar := parseGoFixture(t)
	require.Len(t, ar.Imports, 1)
	var sawAliased bool
	for _, imp := range ar.Imports {
		if imp.Alias == "inner" {
			sawAliased = true
			assert.Equal(t, "pkg/other", imp.SourcePath)
		}
	}
	assert.True(t, sawAliased, "expected the aliased import to resolve to its in-module path")
}

func TestGoAdapterImportsOutsideModuleDropped(t *testing.T) {
	a := NewGoAdapter("example.com/acme", nil)
	file := graph.Node{Name: "main.go", Type: graph.File, Language: graph.LangGo}
	src := []byte("package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(\"hi\") }\n")
	ar := a.Parse(file, src)
	assert.Empty(t, ar.Imports)
}

func TestGoAdapterParamTypeDeferredForAliasedPackage(t *testing.T) {
	ar := parseGoFixture(t)
	var found bool
	for _, pt := range ar.ParamTypes {
		if pt.FuncName == "widget.go:Widget.Describe" && pt.TypeName == "Other" {
			found = true
			assert.Equal(t, "alias:inner", pt.PackageName)
		}
	}
	assert.True(t, found, "expected a deferred param type for o *inner.Other, got %+v", ar.ParamTypes)
}

func TestGoAdapterBuiltinParamTypeSkipped(t *testing.T) {
	ar := parseGoFixture(t)
	for _, pt := range ar.ParamTypes {
		assert.NotEqual(t, "string", pt.TypeName, "builtin string params should never produce a FuncParamType")
	}
}

func TestGoAdapterDocCommentOnStruct(t *testing.T) {
	ar := parseGoFixture(t)
	n, ok := findNode(ar.Nodes, "widget.go:Widget")
	require.True(t, ok)
	assert.Equal(t, "Widget represents a named thing.", n.DocComment)
}

func TestGoAdapterDocCommentOnFunction(t *testing.T) {
	ar := parseGoFixture(t)
	var fn graph.Node
	var ok bool
	for _, n := range ar.Nodes {
		if n.Name == "widget.go:NewWidget" {
			fn, ok = n, true
		}
	}
	require.True(t, ok)
	assert.Equal(t, "NewWidget constructs a Widget.", fn.DocComment)
}

func TestGoAdapterMethodHasNoDocCommentWhenNoneWritten(t *testing.T) {
	ar := parseGoFixture(t)
	var fn graph.Node
	var ok bool
	for _, n := range ar.Nodes {
		if n.Name == "widget.go:Widget.Describe" {
			fn, ok = n, true
		}
	}
	require.True(t, ok)
	assert.Empty(t, fn.DocComment)
}

func TestGoAdapterTypeAliasEmitsOtherType(t *testing.T) {
	ar := parseGoFixture(t)
	n, ok := findNode(ar.Nodes, "widget.go:Alias")
	require.True(t, ok, "expected Alias OtherType node, got %+v", ar.Nodes)
	assert.Equal(t, graph.OtherType, n.Type)
	assert.Contains(t, n.Code, "Alias = string")
	assert.Equal(t, "Alias is an alternate name for string.", n.DocComment)

	var found bool
	for _, e := range ar.Edges {
		if e.Type == graph.Contains && e.To.Name == "widget.go:Alias" {
			found = true
			assert.Equal(t, "widget.go", e.From.Name)
		}
	}
	assert.True(t, found, "expected a CONTAINS edge from the file to the alias")
}

func TestGoAdapterPackageVarFuncEmitsTopLevelFunction(t *testing.T) {
	ar := parseGoFixture(t)
	n, ok := findNode(ar.Nodes, "widget.go:Handler")
	require.True(t, ok, "expected Handler Function node, got %+v", ar.Nodes)
	assert.Equal(t, graph.Function, n.Type)
	assert.Equal(t, "Handler greets name.", n.DocComment)

	var found bool
	for _, e := range ar.Edges {
		if e.Type == graph.Contains && e.To.Name == "widget.go:Handler" {
			found = true
			assert.Equal(t, "widget.go", e.From.Name)
		}
	}
	assert.True(t, found, "expected a CONTAINS edge from the file to Handler")
}

func TestGoAdapterLocalVarFuncLiteralNotEmitted(t *testing.T) {
	a := NewGoAdapter("example.com/acme", nil)
	file := graph.Node{Name: "local.go", Type: graph.File, Language: graph.LangGo}
	src := []byte(`package local

func run() string {
	var handler = func() string { return "local" }
	return handler()
}
`)
	ar := a.Parse(file, src)
	_, ok := findNode(ar.Nodes, "local.go:handler")
	assert.False(t, ok, "a var-func literal local to a function body must not become a top-level Function node")
}

func TestGoAdapterNoModulePathDropsAllImports(t *testing.T) {
	a := NewGoAdapter("", nil)
	file := graph.Node{Name: "main.go", Type: graph.File, Language: graph.LangGo}
	src := []byte("package main\n\nimport \"example.com/acme/pkg/other\"\n\nfunc main() {}\n")
	ar := a.Parse(file, src)
	assert.Empty(t, ar.Imports)
}
