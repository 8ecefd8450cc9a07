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
	"context"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// pyQuery captures only class definitions: imports, functions and
// inheritance are deliberately ignored for Python.
const pyQuery = `
(class_definition
  name: (identifier) @class.name) @class.decl
`

const pyPatternClass patternID = 0

// PythonAdapter extracts top-level class nodes only. No imports, no
// functions, no parameter-type references, no INHERITS edges: this
// mirrors the source system's documented minimal Python support rather
// than a partial implementation of the full contract.
type PythonAdapter struct {
	logger     *slog.Logger
	parserPool sync.Pool
	queryOnce  sync.Once
	query      *sitter.Query
	queryErr   error
}

func NewPythonAdapter(logger *slog.Logger) *PythonAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &PythonAdapter{logger: logger}
	a.parserPool.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(python.GetLanguage())
		return p
	}
	return a
}

func (a *PythonAdapter) compiledQuery() (*sitter.Query, error) {
	a.queryOnce.Do(func() {
		a.query, a.queryErr = sitter.NewQuery([]byte(pyQuery), python.GetLanguage())
	})
	return a.query, a.queryErr
}

func (a *PythonAdapter) Parse(file graph.Node, src []byte) AdapterResult {
	res := AdapterResult{}

	parserAny := a.parserPool.Get()
	parser := parserAny.(*sitter.Parser)
	defer a.parserPool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		a.logger.Warn("ingestion.py.parse_failed", "file", file.Name, "err", err)
		return res
	}
	defer tree.Close()
	root := tree.RootNode()

	q, err := a.compiledQuery()
	if err != nil {
		a.logger.Error("ingestion.py.query_compile_failed", "err", err)
		return res
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	seen := map[string]bool{}
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		if patternID(m.PatternIndex) != pyPatternClass {
			continue
		}
		nameNode := captureNode(m, q, "class.name")
		declNode := captureNode(m, q, "class.decl")
		if nameNode == nil || declNode == nil {
			continue
		}
		// Only top-level classes: the python grammar nests methods'
		// enclosing class inside function bodies too (local classes);
		// restrict to direct children of the module to match spec intent.
		if declNode.Parent() == nil || declNode.Parent().Type() != "module" {
			continue
		}
		name := nameNode.Content(src)
		nodeName := file.Name + ":" + name
		if seen[nodeName] {
			continue
		}
		seen[nodeName] = true

		node := graph.Node{
			Name:      nodeName,
			Type:      graph.Class,
			Language:  graph.LangPython,
			StartLine: int(declNode.StartPoint().Row),
			EndLine:   int(declNode.EndPoint().Row),
			Code:      declNode.Content(src),
			// No skeleton_code: Python class bodies are not produced.
		}
		res.Nodes = append(res.Nodes, node)
		res.Edges = append(res.Edges, graph.Edge{
			Type: graph.Contains,
			From: graph.Endpoint{Name: file.Name, Type: graph.File},
			To:   graph.Endpoint{Name: nodeName, Type: graph.Class},
		})
	}

	return res
}
