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

package codegraph

import (
	"fmt"
	"strings"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// Snippet is a fully assembled piece of source handed back for a single
// parameter type, ready to show a caller without another round trip.
type Snippet struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

// typeTables is every NodeType a REFERENCES edge can target.
var typeTables = []graph.NodeType{graph.Class, graph.Interface, graph.OtherType}

// snippetsForParamTypes implements get_func_param_types: find the
// function enclosing line inside rel (directly, or one CONTAINS hop
// down through a class for a method), follow its REFERENCES edges, and
// assemble one Snippet per referenced type.
func (cg *CodeGraph) snippetsForParamTypes(rel string, line int) ([]Snippet, error) {
	funcs, err := cg.enclosingFuncs(rel)
	if err != nil {
		return nil, err
	}

	var enclosing *graph.Node
	for i := range funcs {
		f := funcs[i]
		if f.StartLine < line && f.EndLine > line {
			enclosing = &f
			break
		}
	}
	if enclosing == nil {
		return nil, nil
	}

	var snippets []Snippet
	for _, tt := range typeTables {
		refs, err := cg.store.QueryEdges(graph.References, graph.Function, tt,
			fmt.Sprintf(`, from_name = "%s"`, escapeDatalogString(enclosing.Name)), nil)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			typ, ok, err := cg.GetNode(ref.To.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			methods, err := cg.typeMethods(typ.Name, tt)
			if err != nil {
				return nil, err
			}
			snippets = append(snippets, assembleSnippet(typ, methods))
		}
	}
	return snippets, nil
}

// enclosingFuncs returns every Function node reachable from rel by a
// CONTAINS path of length one (a top-level func) or two (a method,
// reached through its owning Class).
func (cg *CodeGraph) enclosingFuncs(rel string) ([]graph.Node, error) {
	var out []graph.Node

	direct, err := cg.store.QueryEdges(graph.Contains, graph.File, graph.Function,
		fmt.Sprintf(`, from_name = "%s"`, escapeDatalogString(rel)), nil)
	if err != nil {
		return nil, err
	}
	for _, e := range direct {
		if n, ok, err := cg.store.GetNode(e.To.Name); err == nil && ok {
			out = append(out, n)
		}
	}

	classes, err := cg.store.QueryEdges(graph.Contains, graph.File, graph.Class,
		fmt.Sprintf(`, from_name = "%s"`, escapeDatalogString(rel)), nil)
	if err != nil {
		return nil, err
	}
	for _, ce := range classes {
		methods, err := cg.store.QueryEdges(graph.Contains, graph.Class, graph.Function,
			fmt.Sprintf(`, from_name = "%s"`, escapeDatalogString(ce.To.Name)), nil)
		if err != nil {
			return nil, err
		}
		for _, me := range methods {
			if n, ok, err := cg.store.GetNode(me.To.Name); err == nil && ok {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// typeMethods returns typ's methods, for TypeScript class skeleton
// assembly; empty for anything that isn't a Class.
func (cg *CodeGraph) typeMethods(typeName string, tt graph.NodeType) ([]graph.Node, error) {
	if tt != graph.Class {
		return nil, nil
	}
	edges, err := cg.store.QueryEdges(graph.Contains, graph.Class, graph.Function,
		fmt.Sprintf(`, from_name = "%s"`, escapeDatalogString(typeName)), nil)
	if err != nil {
		return nil, err
	}
	var out []graph.Node
	for _, e := range edges {
		if n, ok, err := cg.store.GetNode(e.To.Name); err == nil && ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// assembleSnippet builds one Snippet's content per the language/kind
// rules: Go and non-Class TypeScript reuse the full definition and (Go
// only) append each method's skeleton; a TypeScript class instead
// rebuilds a class skeleton from its own skeleton_code plus each
// method's skeleton_code, indented as a method list.
func assembleSnippet(typ graph.Node, methods []graph.Node) Snippet {
	var content string
	if typ.Language == graph.LangTypeScript && typ.Type == graph.Class {
		content = tsClassSkeleton(typ, methods)
	} else {
		content = typ.Code
		if typ.Language == graph.LangGo {
			for _, m := range methods {
				content += "\n\n" + m.SkeletonCode
			}
		}
	}
	return Snippet{
		Path:      fileOf(typ.Name),
		StartLine: typ.StartLine,
		EndLine:   typ.EndLine,
		Content:   content,
	}
}

// tsClassSkeleton replaces the trailing `{ ... }` body marker of a
// TypeScript class's own skeleton with an open brace, lists each method's
// skeleton line indented two spaces, and closes the class.
func tsClassSkeleton(typ graph.Node, methods []graph.Node) string {
	header := strings.TrimSuffix(strings.TrimSpace(typ.SkeletonCode), "{ ... }")
	header = strings.TrimRight(header, " ") + " {"
	var b strings.Builder
	b.WriteString(header)
	for _, m := range methods {
		b.WriteString("\n  ")
		b.WriteString(m.SkeletonCode)
	}
	b.WriteString("\n}")
	return b.String()
}

// fileOf returns the file-path component of a node name, which for a
// top-level definition or method is everything before the first colon.
func fileOf(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return name
}
