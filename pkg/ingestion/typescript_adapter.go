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
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/langutil"
	"github.com/kraklabs/codegraph/pkg/sigparse"
)

const tsQuery = `
(import_statement
  source: (string) @import.source) @import.stmt

(interface_declaration
  name: (type_identifier) @iface.name) @iface.decl

(class_declaration
  name: (type_identifier) @class.name
  body: (class_body) @class.body) @class.decl

(function_declaration
  name: (identifier) @func.name
  parameters: (formal_parameters) @func.params
  body: (statement_block) @func.body) @func.decl

(enum_declaration
  name: (identifier) @enum.name) @enum.decl

(type_alias_declaration
  name: (type_identifier) @alias.name) @alias.decl
`

const (
	tsPatternImport patternID = iota
	tsPatternInterface
	tsPatternClass
	tsPatternFunc
	tsPatternEnum
	tsPatternAlias
)

// tsMethodQuery runs scoped to a single class_body, one match per method.
const tsMethodQuery = `
(method_definition
  name: (property_identifier) @method.name
  parameters: (formal_parameters) @method.params
  body: (statement_block)? @method.body) @method.decl
`

// TypeScriptAdapter extracts nodes/edges/pending records from TypeScript
// source. repoRoot is used to probe relative import specifiers against the
// filesystem, using an index.d.ts/index.ts/index.js/.ts/.js probe order.
type TypeScriptAdapter struct {
	logger     *slog.Logger
	repoRoot   string
	parserPool sync.Pool
	queryOnce  sync.Once
	query      *sitter.Query
	methodQry  *sitter.Query
	queryErr   error
}

func NewTypeScriptAdapter(repoRoot string, logger *slog.Logger) *TypeScriptAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &TypeScriptAdapter{logger: logger, repoRoot: repoRoot}
	a.parserPool.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(typescript.GetLanguage())
		return p
	}
	return a
}

func (a *TypeScriptAdapter) compiledQueries() (*sitter.Query, *sitter.Query, error) {
	a.queryOnce.Do(func() {
		a.query, a.queryErr = sitter.NewQuery([]byte(tsQuery), typescript.GetLanguage())
		if a.queryErr != nil {
			return
		}
		a.methodQry, a.queryErr = sitter.NewQuery([]byte(tsMethodQuery), typescript.GetLanguage())
	})
	return a.query, a.methodQry, a.queryErr
}

func (a *TypeScriptAdapter) Parse(file graph.Node, src []byte) AdapterResult {
	res := AdapterResult{}

	parserAny := a.parserPool.Get()
	parser := parserAny.(*sitter.Parser)
	defer a.parserPool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		a.logger.Warn("ingestion.ts.parse_failed", "file", file.Name, "err", err)
		return res
	}
	defer tree.Close()
	root := tree.RootNode()

	q, methodQ, err := a.compiledQueries()
	if err != nil {
		a.logger.Error("ingestion.ts.query_compile_failed", "err", err)
		return res
	}

	// importMap: local binding name -> resolved source_path, built as
	// imports are seen and used immediately to annotate parameter-type
	// refs and INHERITS targets.
	importMap := map[string]string{}
	seen := map[string]bool{}
	edgeSeen := map[graph.Key]bool{}

	emitContains := func(from, to graph.Endpoint) {
		e := graph.Edge{Type: graph.Contains, From: from, To: to}
		if edgeSeen[e.Key()] {
			return
		}
		edgeSeen[e.Key()] = true
		res.Edges = append(res.Edges, e)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		switch patternID(m.PatternIndex) {
		case tsPatternImport:
			a.handleImport(m, q, src, file, importMap, &res)
		case tsPatternInterface:
			a.handleSimple(m, q, src, file, seen, "iface.name", "iface.decl", graph.Interface, emitContains, &res)
		case tsPatternEnum:
			a.handleSimple(m, q, src, file, seen, "enum.name", "enum.decl", graph.OtherType, emitContains, &res)
		case tsPatternAlias:
			a.handleSimple(m, q, src, file, seen, "alias.name", "alias.decl", graph.OtherType, emitContains, &res)
		case tsPatternFunc:
			a.handleFunc(m, q, src, file, seen, importMap, emitContains, &res)
		case tsPatternClass:
			a.handleClass(m, q, methodQ, src, file, seen, importMap, emitContains, &res)
		}
	}

	return res
}

func captureNode(m *sitter.QueryMatch, q *sitter.Query, name string) *sitter.Node {
	for _, c := range m.Captures {
		if q.CaptureNameForId(c.Index) == name {
			n := c.Node
			return n
		}
	}
	return nil
}

func (a *TypeScriptAdapter) handleImport(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, importMap map[string]string, res *AdapterResult) {
	sourceNode := captureNode(m, q, "import.source")
	stmtNode := captureNode(m, q, "import.stmt")
	if sourceNode == nil || stmtNode == nil {
		return
	}
	rawSpecifier := strings.Trim(sourceNode.Content(src), "'\"`")
	if !strings.HasPrefix(rawSpecifier, "./") && !strings.HasPrefix(rawSpecifier, "../") {
		return // only relative specifiers are resolved.
	}
	sourcePath, ok := a.resolveRelativeImport(file.Name, rawSpecifier)
	if !ok {
		return
	}

	clause := stmtNode.ChildByFieldName("import_clause")
	if clause == nil {
		// find the import_clause child by type, field name varies by grammar version.
		for i := 0; i < int(stmtNode.NamedChildCount()); i++ {
			c := stmtNode.NamedChild(i)
			if c.Type() == "import_clause" {
				clause = c
				break
			}
		}
	}
	if clause == nil {
		res.Imports = append(res.Imports, PendingImport{Language: graph.LangTypeScript, SourceFile: file.Name, SourcePath: sourcePath})
		return
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			// import X from 'Y'
			alias := child.Content(src)
			importMap[alias] = sourcePath
			res.Imports = append(res.Imports, PendingImport{
				Language: graph.LangTypeScript, SourceFile: file.Name, SourcePath: sourcePath,
				Symbol: DefaultImportSymbol, Alias: alias,
			})
		case "namespace_import":
			// import * as X from 'Y'
			alias := strings.TrimSpace(strings.TrimPrefix(child.Content(src), "*"))
			alias = strings.TrimSpace(strings.TrimPrefix(alias, "as"))
			importMap[alias] = sourcePath
			res.Imports = append(res.Imports, PendingImport{
				Language: graph.LangTypeScript, SourceFile: file.Name, SourcePath: sourcePath, Alias: alias,
			})
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				symbol := nameNode.Content(src)
				alias := ""
				bind := symbol
				if aliasNode != nil {
					alias = aliasNode.Content(src)
					bind = alias
				}
				importMap[bind] = sourcePath
				res.Imports = append(res.Imports, PendingImport{
					Language: graph.LangTypeScript, SourceFile: file.Name, SourcePath: sourcePath,
					Symbol: symbol, Alias: alias,
				})
			}
		}
	}
}

// resolveRelativeImport applies a directory-probe order:
// index.d.ts, index.ts, index.js when the specifier names a directory;
// otherwise .ts then .js.
func (a *TypeScriptAdapter) resolveRelativeImport(fromFile, specifier string) (string, bool) {
	dir := path.Dir(fromFile)
	joined := path.Clean(path.Join(dir, specifier))
	abs := filepath.Join(a.repoRoot, filepath.FromSlash(joined))

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		for _, candidate := range []string{"index.d.ts", "index.ts", "index.js"} {
			if _, err := os.Stat(filepath.Join(abs, candidate)); err == nil {
				return path.Join(joined, candidate), true
			}
		}
		return "", false
	}
	for _, ext := range []string{".ts", ".js"} {
		if _, err := os.Stat(abs + ext); err == nil {
			return joined + ext, true
		}
	}
	// Already has an extension, or unresolved; fall back to the literal join.
	if _, err := os.Stat(abs); err == nil {
		return joined, true
	}
	return "", false
}

func (a *TypeScriptAdapter) handleSimple(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool, nameCap, declCap string, kind graph.NodeType, emitContains func(graph.Endpoint, graph.Endpoint), res *AdapterResult) {
	nameNode := captureNode(m, q, nameCap)
	declNode := captureNode(m, q, declCap)
	if nameNode == nil || declNode == nil {
		return
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	code := declNode.Content(src)
	node := graph.Node{
		Name:         nodeName,
		Type:         kind,
		Language:     graph.LangTypeScript,
		StartLine:    int(declNode.StartPoint().Row),
		EndLine:      int(declNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: code,
	}
	res.Nodes = append(res.Nodes, node)
	emitContains(graph.Endpoint{Name: file.Name, Type: graph.File}, graph.Endpoint{Name: nodeName, Type: kind})
}

func (a *TypeScriptAdapter) handleFunc(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool, importMap map[string]string, emitContains func(graph.Endpoint, graph.Endpoint), res *AdapterResult) {
	nameNode := captureNode(m, q, "func.name")
	declNode := captureNode(m, q, "func.decl")
	paramsNode := captureNode(m, q, "func.params")
	bodyNode := captureNode(m, q, "func.body")
	if nameNode == nil || declNode == nil {
		return
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	code := declNode.Content(src)
	bodyStart := len(code)
	if bodyNode != nil {
		bodyStart = int(bodyNode.StartByte() - declNode.StartByte())
	}
	node := graph.Node{
		Name:         nodeName,
		Type:         graph.Function,
		Language:     graph.LangTypeScript,
		StartLine:    int(declNode.StartPoint().Row),
		EndLine:      int(declNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: tsSkeleton(code, bodyStart),
	}
	res.Nodes = append(res.Nodes, node)
	emitContains(graph.Endpoint{Name: file.Name, Type: graph.File}, graph.Endpoint{Name: nodeName, Type: graph.Function})

	if paramsNode != nil {
		res.ParamTypes = append(res.ParamTypes, extractTSParamTypes(paramsNode, src, file, nodeName, importMap)...)
	}
}

func (a *TypeScriptAdapter) handleClass(m *sitter.QueryMatch, q, methodQ *sitter.Query, src []byte, file graph.Node, seen map[string]bool, importMap map[string]string, emitContains func(graph.Endpoint, graph.Endpoint), res *AdapterResult) {
	nameNode := captureNode(m, q, "class.name")
	declNode := captureNode(m, q, "class.decl")
	bodyNode := captureNode(m, q, "class.body")
	if nameNode == nil || declNode == nil {
		return
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	code := declNode.Content(src)
	bodyStart := len(code)
	if bodyNode != nil {
		bodyStart = int(bodyNode.StartByte() - declNode.StartByte())
	}
	node := graph.Node{
		Name:         nodeName,
		Type:         graph.Class,
		Language:     graph.LangTypeScript,
		StartLine:    int(declNode.StartPoint().Row),
		EndLine:      int(declNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: tsSkeleton(code, bodyStart),
	}
	res.Nodes = append(res.Nodes, node)
	emitContains(graph.Endpoint{Name: file.Name, Type: graph.File}, graph.Endpoint{Name: nodeName, Type: graph.Class})

	// class_heritage: extends/implements clauses. Grammar exposes these as
	// a "heritage" field holding one or more class_heritage children with
	// extends_clause/implements_clause subtrees; walk generically by type
	// name since exact field wiring has shifted across grammar versions.
	heritage := declNode.ChildByFieldName("heritage")
	if heritage == nil {
		for i := 0; i < int(declNode.NamedChildCount()); i++ {
			c := declNode.NamedChild(i)
			if c.Type() == "class_heritage" {
				heritage = c
				break
			}
		}
	}
	if heritage != nil {
		for _, ref := range collectHeritageTypeNames(heritage, src) {
			owner, ok := resolveTSTypeOwnerHeritage(ref, file, importMap)
			if !ok {
				continue
			}
			res.Inherits = append(res.Inherits, PendingInherit{
				FromName:    nodeName,
				TypeName:    ref.Name,
				PackageName: owner,
			})
		}
	}

	if bodyNode == nil {
		return
	}
	mcursor := sitter.NewQueryCursor()
	defer mcursor.Close()
	mcursor.Exec(methodQ, bodyNode)
	for {
		mm, ok := mcursor.NextMatch()
		if !ok {
			break
		}
		mNameNode := captureNode(mm, methodQ, "method.name")
		mDeclNode := captureNode(mm, methodQ, "method.decl")
		mParamsNode := captureNode(mm, methodQ, "method.params")
		mBodyNode := captureNode(mm, methodQ, "method.body")
		if mNameNode == nil || mDeclNode == nil {
			continue
		}
		mname := mNameNode.Content(src)
		mNodeName := nodeName + "." + mname
		if seen[mNodeName] {
			continue
		}
		seen[mNodeName] = true

		mcode := mDeclNode.Content(src)
		mBodyStart := len(mcode)
		if mBodyNode != nil {
			mBodyStart = int(mBodyNode.StartByte() - mDeclNode.StartByte())
		}
		mnode := graph.Node{
			Name:         mNodeName,
			Type:         graph.Function,
			Language:     graph.LangTypeScript,
			StartLine:    int(mDeclNode.StartPoint().Row),
			EndLine:      int(mDeclNode.EndPoint().Row),
			Code:         mcode,
			SkeletonCode: tsSkeleton(mcode, mBodyStart),
		}
		res.Nodes = append(res.Nodes, mnode)
		emitContains(graph.Endpoint{Name: nodeName, Type: graph.Class}, graph.Endpoint{Name: mNodeName, Type: graph.Function})

		if mParamsNode != nil {
			res.ParamTypes = append(res.ParamTypes, extractTSParamTypes(mParamsNode, src, file, mNodeName, importMap)...)
		}
	}
}

// heritageRef is one type name found in a class's extends/implements list.
type heritageRef struct {
	Qualifier string
	Name      string
}

func collectHeritageTypeNames(n *sitter.Node, src []byte) []heritageRef {
	text := n.Content(src)
	text = strings.TrimPrefix(strings.TrimSpace(text), "extends")
	text = strings.ReplaceAll(text, "implements", ",")
	var out []heritageRef
	for _, r := range sigparse.ExtractTSTypeRefs(text) {
		if langutil.IsTSBuiltin(r.Name) {
			continue
		}
		out = append(out, heritageRef{Qualifier: r.Qualifier, Name: r.Name})
	}
	return out
}

// extractTSParamTypes enumerates identifiers in each parameter's type
// annotation and resolves their owner against importMap.
func extractTSParamTypes(paramsNode *sitter.Node, src []byte, file graph.Node, funcName string, importMap map[string]string) []FuncParamType {
	var out []FuncParamType
	count := int(paramsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		param := paramsNode.NamedChild(i)
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		raw := typeNode.Content(src)
		for _, ref := range sigparse.ExtractTSTypeRefs(raw) {
			if langutil.IsTSBuiltin(ref.Name) {
				continue
			}
			owner, ok := resolveTSTypeOwner(ref, file, importMap)
			if !ok {
				continue
			}
			out = append(out, FuncParamType{FuncName: funcName, TypeName: ref.Name, PackageName: owner})
		}
	}
	return out
}

// resolveTSTypeOwner implements the owner rule: "A." prefix ->
// import_name_to_source_path[A]; else if A is itself imported -> same;
// else owner is the current file node.
func resolveTSTypeOwner(ref sigparse.TSTypeRef, file graph.Node, importMap map[string]string) (string, bool) {
	if ref.Qualifier != "" {
		if owner, ok := importMap[ref.Qualifier]; ok {
			return owner, true
		}
		return "", false
	}
	if owner, ok := importMap[ref.Name]; ok {
		return owner, true
	}
	return file.Name, true
}

func resolveTSTypeOwnerHeritage(ref heritageRef, file graph.Node, importMap map[string]string) (string, bool) {
	return resolveTSTypeOwner(sigparse.TSTypeRef{Qualifier: ref.Qualifier, Name: ref.Name}, file, importMap)
}
