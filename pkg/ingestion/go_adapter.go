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
	"path"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/langutil"
	"github.com/kraklabs/codegraph/pkg/sigparse"
)

// goQuery is the Go adapter's fixed ordered list of tagged capture
// patterns. Pattern order is part of the contract: goPatternImport etc.
// below are positional indices into this string, not names looked up at
// runtime.
const goQuery = `
(import_spec
  path: (interpreted_string_literal) @import.path) @import.spec

(type_declaration
  (type_spec
    name: (type_identifier) @type.name
    type: (_) @type.body) @type.spec) @type.decl

(type_declaration
  (type_alias
    name: (type_identifier) @typealias.name
    type: (_) @typealias.type) @typealias.spec) @typealias.decl

(function_declaration
  name: (identifier) @func.name
  parameters: (parameter_list) @func.params
  result: (_)? @func.result
  body: (block)? @func.body) @func.decl

(method_declaration
  receiver: (parameter_list) @method.receiver
  name: (field_identifier) @method.name
  parameters: (parameter_list) @method.params
  result: (_)? @method.result
  body: (block)? @method.body) @method.decl

(var_declaration
  (var_spec
    name: (identifier) @varfunc.name
    value: (func_literal
      parameters: (parameter_list) @varfunc.params
      body: (block) @varfunc.body) @varfunc.literal) @varfunc.spec) @varfunc.decl
`

const (
	goPatternImport patternID = iota
	goPatternType
	goPatternTypeAlias
	goPatternFunc
	goPatternMethod
	goPatternVarFunc
)

// GoAdapter extracts nodes, edges and pending resolution records from Go
// source. One adapter instance is safe for concurrent use; it checks out a
// fresh *sitter.Parser from its pool per call.
type GoAdapter struct {
	logger      *slog.Logger
	modulePath  string // discovered once by the caller, via langutil.GoModulePath
	parserPool  sync.Pool
	queryOnce   sync.Once
	query       *sitter.Query
	queryErr    error
}

// NewGoAdapter builds a Go adapter for a repository whose go.mod declares
// modulePath (possibly "" if the repo has no go.mod, in which case all
// imports are treated as external and produce no IMPORTS edge).
func NewGoAdapter(modulePath string, logger *slog.Logger) *GoAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &GoAdapter{logger: logger, modulePath: modulePath}
	a.parserPool.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(golang.GetLanguage())
		return p
	}
	return a
}

func (a *GoAdapter) compiledQuery() (*sitter.Query, error) {
	a.queryOnce.Do(func() {
		a.query, a.queryErr = sitter.NewQuery([]byte(goQuery), golang.GetLanguage())
	})
	return a.query, a.queryErr
}

// goFunc tracks an in-progress function/method node while its parameter
// types are being resolved from captures, and the struct name it should be
// re-parented under, if any.
type goFunc struct {
	node       graph.Node
	owner      string // Contains parent name: file or "<file>:<Struct>"
	ownerType  graph.NodeType
	firstRet   string // first named return type, used for constructor re-parenting
	paramTypes []FuncParamType
}

func (a *GoAdapter) Parse(file graph.Node, src []byte) AdapterResult {
	res := AdapterResult{}

	parserAny := a.parserPool.Get()
	parser := parserAny.(*sitter.Parser)
	defer a.parserPool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		a.logger.Warn("ingestion.go.parse_failed", "file", file.Name, "err", err)
		return res
	}
	defer tree.Close()
	root := tree.RootNode()

	q, err := a.compiledQuery()
	if err != nil {
		a.logger.Error("ingestion.go.query_compile_failed", "err", err)
		return res
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var structNames = map[string]bool{} // lower(name) seen so far in source order
	var seen = map[string]bool{}        // dedup of emitted node names
	var edgeSeen = map[graph.Key]bool{}
	var pendingFuncs []*goFunc

	emitContains := func(from, to graph.Endpoint) {
		e := graph.Edge{Type: graph.Contains, From: from, To: to}
		if edgeSeen[e.Key()] {
			return
		}
		edgeSeen[e.Key()] = true
		res.Edges = append(res.Edges, e)
	}

	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		switch patternID(m.PatternIndex) {
		case goPatternImport:
			a.handleImport(m, q, src, file, &res)
		case goPatternType:
			a.handleType(m, q, src, file, structNames, seen, &res)
		case goPatternTypeAlias:
			a.handleTypeAlias(m, q, src, file, seen, &res)
		case goPatternFunc:
			if fn := a.handleFunc(m, q, src, file, seen); fn != nil {
				pendingFuncs = append(pendingFuncs, fn)
			}
		case goPatternMethod:
			if fn := a.handleMethod(m, q, src, file, seen); fn != nil {
				pendingFuncs = append(pendingFuncs, fn)
			}
		case goPatternVarFunc:
			a.handleVarFunc(m, q, src, file, seen, &res)
		}
	}

	// Second pass: decide constructor re-parenting now that every struct
	// in the file is known (spec's "two-phase emit": record the struct,
	// then decide per function).
	for _, fn := range pendingFuncs {
		owner := graph.Endpoint{Name: file.Name, Type: graph.File}
		if fn.ownerType == graph.Class {
			// already a method; owner is the receiver struct node.
			owner = graph.Endpoint{Name: fn.owner, Type: graph.Class}
		} else if fn.firstRet != "" && structNames[strings.ToLower(fn.firstRet)] {
			structNodeName := file.Name + ":" + fn.firstRet
			owner = graph.Endpoint{Name: structNodeName, Type: graph.Class}
		}
		res.Nodes = append(res.Nodes, fn.node)
		emitContains(owner, graph.Endpoint{Name: fn.node.Name, Type: graph.Function})
		res.ParamTypes = append(res.ParamTypes, fn.paramTypes...)
	}

	return res
}

func (a *GoAdapter) handleImport(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, res *AdapterResult) {
	var pathNode, aliasNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "import.path":
			n := c.Node
			pathNode = n
		case "import.spec":
			spec := c.Node
			if aliasN := spec.ChildByFieldName("name"); aliasN != nil {
				aliasNode = aliasN
			}
		}
	}
	if pathNode == nil {
		return
	}
	rawPath := strings.Trim(pathNode.Content(src), "\"`")
	alias := ""
	if aliasNode != nil {
		alias = aliasNode.Content(src)
	}

	if a.modulePath == "" {
		return
	}
	rel, ok := langutil.ResolveGoImportPath(a.modulePath, rawPath)
	if !ok {
		return // outside the repo's own module; no edge is emitted.
	}
	last := path.Base(rawPath)
	res.Imports = append(res.Imports, PendingImport{
		Language:   graph.LangGo,
		SourceFile: file.Name,
		SourcePath: rel,
		Symbol:     last,
		Alias:      alias,
	})
}

func (a *GoAdapter) handleType(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, structNames, seen map[string]bool, res *AdapterResult) {
	var nameNode, bodyNode, specNode, declNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "type.name":
			n := c.Node
			nameNode = n
		case "type.body":
			n := c.Node
			bodyNode = n
		case "type.spec":
			n := c.Node
			specNode = n
		case "type.decl":
			n := c.Node
			declNode = n
		}
	}
	if nameNode == nil || specNode == nil {
		return
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	kind := graph.OtherType
	if bodyNode != nil {
		switch bodyNode.Type() {
		case "struct_type":
			kind = graph.Class
			structNames[strings.ToLower(name)] = true
		case "interface_type":
			kind = graph.Interface
		}
	}

	code := specNode.Content(src)
	node := graph.Node{
		Name:      nodeName,
		Type:      kind,
		Language:  graph.LangGo,
		StartLine: int(specNode.StartPoint().Row),
		EndLine:   int(specNode.EndPoint().Row),
		Code:      code,
	}
	bodyStart := 0
	if bodyNode != nil {
		bodyStart = int(bodyNode.StartByte() - specNode.StartByte())
	}
	node.SkeletonCode = goSkeleton(code, bodyStart)
	if declNode != nil {
		node.DocComment = leadingDocComment(src, declNode)
	}
	res.Nodes = append(res.Nodes, node)
	res.Edges = append(res.Edges, graph.Edge{
		Type: graph.Contains,
		From: graph.Endpoint{Name: file.Name, Type: graph.File},
		To:   graph.Endpoint{Name: nodeName, Type: kind},
	})
}

// handleTypeAlias emits an OtherType node for a `type X = Y` alias
// declaration, distinct from handleType's type_spec handling since the
// grammar gives alias specs their own node type with no body to collapse.
func (a *GoAdapter) handleTypeAlias(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool, res *AdapterResult) {
	var nameNode, specNode, declNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "typealias.name":
			n := c.Node
			nameNode = n
		case "typealias.spec":
			n := c.Node
			specNode = n
		case "typealias.decl":
			n := c.Node
			declNode = n
		}
	}
	if nameNode == nil || specNode == nil {
		return
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	code := specNode.Content(src)
	node := graph.Node{
		Name:         nodeName,
		Type:         graph.OtherType,
		Language:     graph.LangGo,
		StartLine:    int(specNode.StartPoint().Row),
		EndLine:      int(specNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: code,
	}
	if declNode != nil {
		node.DocComment = leadingDocComment(src, declNode)
	}
	res.Nodes = append(res.Nodes, node)
	res.Edges = append(res.Edges, graph.Edge{
		Type: graph.Contains,
		From: graph.Endpoint{Name: file.Name, Type: graph.File},
		To:   graph.Endpoint{Name: nodeName, Type: graph.OtherType},
	})
}

func (a *GoAdapter) handleFunc(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool) *goFunc {
	var nameNode, paramsNode, resultNode, bodyNode, declNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "func.name":
			n := c.Node
			nameNode = n
		case "func.params":
			n := c.Node
			paramsNode = n
		case "func.result":
			n := c.Node
			resultNode = n
		case "func.body":
			n := c.Node
			bodyNode = n
		case "func.decl":
			n := c.Node
			declNode = n
		}
	}
	if nameNode == nil || declNode == nil {
		return nil
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return nil
	}
	seen[nodeName] = true

	fn := a.buildGoFunc(declNode, nodeName, paramsNode, resultNode, bodyNode, src, file)
	fn.owner = file.Name
	fn.ownerType = graph.File
	return fn
}

func (a *GoAdapter) handleMethod(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool) *goFunc {
	var nameNode, paramsNode, resultNode, bodyNode, declNode, recvNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "method.name":
			n := c.Node
			nameNode = n
		case "method.params":
			n := c.Node
			paramsNode = n
		case "method.result":
			n := c.Node
			resultNode = n
		case "method.body":
			n := c.Node
			bodyNode = n
		case "method.decl":
			n := c.Node
			declNode = n
		case "method.receiver":
			n := c.Node
			recvNode = n
		}
	}
	if nameNode == nil || declNode == nil || recvNode == nil {
		return nil
	}
	recvType := receiverBaseType(recvNode, src)
	if recvType == "" {
		return nil
	}
	name := nameNode.Content(src)
	nodeName := file.Name + ":" + recvType + "." + name
	if seen[nodeName] {
		return nil
	}
	seen[nodeName] = true

	fn := a.buildGoFunc(declNode, nodeName, paramsNode, resultNode, bodyNode, src, file)
	fn.owner = file.Name + ":" + recvType
	fn.ownerType = graph.Class
	return fn
}

func (a *GoAdapter) buildGoFunc(declNode *sitter.Node, nodeName string, paramsNode, resultNode, bodyNode *sitter.Node, src []byte, file graph.Node) *goFunc {
	code := declNode.Content(src)
	bodyStart := len(code)
	if bodyNode != nil {
		bodyStart = int(bodyNode.StartByte() - declNode.StartByte())
	}
	node := graph.Node{
		Name:         nodeName,
		Type:         graph.Function,
		Language:     graph.LangGo,
		StartLine:    int(declNode.StartPoint().Row),
		EndLine:      int(declNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: goSkeleton(code, bodyStart),
		DocComment:   leadingDocComment(src, declNode),
	}

	var paramTypes []FuncParamType
	if paramsNode != nil {
		paramTypes = a.extractParamTypes(paramsNode, src, file)
		for i := range paramTypes {
			paramTypes[i].FuncName = nodeName
		}
	}

	firstRet := ""
	if resultNode != nil {
		firstRet = firstNamedReturnType(resultNode, src)
	}

	return &goFunc{node: node, firstRet: firstRet, paramTypes: paramTypes}
}

// extractParamTypes walks a parameter_list's parameter_declaration
// children, deriving a bare type name per parameter, and
// resolving the owner via the file's import map (populated by the caller
// once the whole file's imports are known — here we only have what's in
// this call, so qualified types are tagged with their package alias and
// left for pkg/coordinator to resolve against PendingImport records).
func (a *GoAdapter) extractParamTypes(paramsNode *sitter.Node, src []byte, file graph.Node) []FuncParamType {
	var out []FuncParamType
	count := int(paramsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		child := paramsNode.NamedChild(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		raw := typeNode.Content(src)
		base, skip := sigparse.RefBaseType(raw)
		if skip || base == "" || langutil.IsGoBuiltin(base) {
			continue
		}
		// An unqualified type is owned by this file: it resolves only against
		// this file's own definitions, not against other files of the same
		// package. Qualified refs are resolved downstream.
		owner := file.Name
		pkgAlias := ""
		if dot := strings.LastIndex(strings.TrimLeft(raw, "*[]"), "."); dot >= 0 {
			qualifier := strings.TrimLeft(raw, "*[]")
			pkgAlias = qualifier[:strings.LastIndex(qualifier, ".")]
			pkgAlias = lastIdentSegment(pkgAlias)
			owner = "" // resolved by pkg/coordinator against this file's import aliases.
		}
		out = append(out, FuncParamType{
			FuncName:    "", // filled by caller once the function's node name is known.
			TypeName:    base,
			PackageName: owner,
		})
		if pkgAlias != "" {
			out[len(out)-1].PackageName = "alias:" + pkgAlias
		}
	}
	return out
}

func lastIdentSegment(s string) string {
	if idx := strings.LastIndexAny(s, " \t*[]"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func firstNamedReturnType(resultNode *sitter.Node, src []byte) string {
	switch resultNode.Type() {
	case "parameter_list":
		if resultNode.NamedChildCount() == 0 {
			return ""
		}
		first := resultNode.NamedChild(0)
		t := first.ChildByFieldName("type")
		if t == nil {
			return ""
		}
		base, skip := sigparse.RefBaseType(t.Content(src))
		if skip {
			return ""
		}
		return base
	case "type_identifier":
		return resultNode.Content(src)
	default:
		base, skip := sigparse.RefBaseType(resultNode.Content(src))
		if skip {
			return ""
		}
		return base
	}
}

// handleVarFunc emits a top-level Function node for a package-level
// `var Name = func(...) {...}` declaration. Local variables assigned a
// function literal inside a function body are excluded by the top-level
// check on declNode's parent; the grammar has no separate node type for
// "package-level" vs "local" var_declaration.
func (a *GoAdapter) handleVarFunc(m *sitter.QueryMatch, q *sitter.Query, src []byte, file graph.Node, seen map[string]bool, res *AdapterResult) {
	var nameNode, specNode, declNode, paramsNode *sitter.Node
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "varfunc.name":
			n := c.Node
			nameNode = n
		case "varfunc.spec":
			n := c.Node
			specNode = n
		case "varfunc.decl":
			n := c.Node
			declNode = n
		case "varfunc.params":
			n := c.Node
			paramsNode = n
		}
	}
	if nameNode == nil || specNode == nil || declNode == nil {
		return
	}
	if declNode.Parent() == nil || declNode.Parent().Type() != "source_file" {
		return // local var-func literal; not a top-level declaration.
	}

	name := nameNode.Content(src)
	nodeName := file.Name + ":" + name
	if seen[nodeName] {
		return
	}
	seen[nodeName] = true

	code := specNode.Content(src)
	literalBody := specNode.ChildByFieldName("value")
	bodyStart := len(code)
	if literalBody != nil {
		if b := literalBody.ChildByFieldName("body"); b != nil {
			bodyStart = int(b.StartByte() - specNode.StartByte())
		}
	}
	node := graph.Node{
		Name:         nodeName,
		Type:         graph.Function,
		Language:     graph.LangGo,
		StartLine:    int(specNode.StartPoint().Row),
		EndLine:      int(specNode.EndPoint().Row),
		Code:         code,
		SkeletonCode: goSkeleton(code, bodyStart),
		DocComment:   leadingDocComment(src, declNode),
	}
	res.Nodes = append(res.Nodes, node)
	res.Edges = append(res.Edges, graph.Edge{
		Type: graph.Contains,
		From: graph.Endpoint{Name: file.Name, Type: graph.File},
		To:   graph.Endpoint{Name: nodeName, Type: graph.Function},
	})

	if paramsNode != nil {
		paramTypes := a.extractParamTypes(paramsNode, src, file)
		for i := range paramTypes {
			paramTypes[i].FuncName = nodeName
		}
		res.ParamTypes = append(res.ParamTypes, paramTypes...)
	}
}

// leadingDocComment collects the contiguous run of `comment` nodes
// immediately preceding node with no blank line in between, matching the
// Go convention of treating an unbroken leading comment block as a
// declaration's doc comment. Returns "" when none is found.
func leadingDocComment(src []byte, node *sitter.Node) string {
	var comments []string
	prev := node.PrevSibling()
	expectedLine := int(node.StartPoint().Row) - 1
	for prev != nil && prev.Type() == "comment" && int(prev.EndPoint().Row) == expectedLine {
		comments = append(comments, prev.Content(src))
		expectedLine = int(prev.StartPoint().Row) - 1
		prev = prev.PrevSibling()
	}
	if len(comments) == 0 {
		return ""
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	var lines []string
	for _, c := range comments {
		lines = append(lines, stripGoCommentMarkers(c)...)
	}
	return strings.Join(lines, "\n")
}

// stripGoCommentMarkers strips `//` or `/* */` markers from a single
// comment node's text, returning one output line per source line.
func stripGoCommentMarkers(raw string) []string {
	if strings.HasPrefix(raw, "//") {
		return []string{strings.TrimPrefix(strings.TrimPrefix(raw, "//"), " ")}
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
	rawLines := strings.Split(trimmed, "\n")
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "* ")
	}
	return lines
}

func receiverBaseType(recvNode *sitter.Node, src []byte) string {
	if recvNode.NamedChildCount() == 0 {
		return ""
	}
	param := recvNode.NamedChild(0)
	t := param.ChildByFieldName("type")
	if t == nil {
		return ""
	}
	text := t.Content(src)
	return strings.TrimLeft(text, "*")
}

