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

// Package coordinator resolves the deferred cross-file records an adapter
// cannot settle on its own (PendingImport, FuncParamType, PendingInherit)
// into concrete IMPORTS/REFERENCES/INHERITS edges. A full-repo index
// resolves every pending record against an in-memory index built from the
// same walk; a single-file or dirty-buffer index resolves against the
// store instead, since the rest of the graph already lives there.
package coordinator

import (
	"log/slog"
	"strings"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ingestion"
	"github.com/kraklabs/codegraph/pkg/langutil"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// IndexResult is the fully resolved output of an index pass: every node and
// edge, with no further deferred work outstanding.
type IndexResult struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// StoreLookup is the narrow read surface a single-file/dirty-buffer index
// needs from the store to resolve pending records without rebuilding a
// whole-repo index. pkg/graphstore implements it.
type StoreLookup interface {
	NodesByShortName(short string) ([]graph.Node, error)
	DirectoryExists(path string) (bool, error)
	FileExists(path string) (bool, error)
}

// Coordinator drives a Walker and resolves its output's pending records.
type Coordinator struct {
	adapters map[graph.Language]ingestion.Adapter
	cfg      walker.Config
	logger   *slog.Logger
}

func New(cfg walker.Config, adapters map[graph.Language]ingestion.Adapter, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{adapters: adapters, cfg: cfg, logger: logger}
}

// IndexRepo walks rootPath and resolves every pending record against an
// in-memory index built from the same walk (the bulk full-repo path).
func (c *Coordinator) IndexRepo(rootPath string) (IndexResult, error) {
	w := walker.New(c.cfg, c.adapters, c.logger)
	wr, err := w.Walk(rootPath)
	if err != nil {
		return IndexResult{}, err
	}
	return c.resolveBulk(wr), nil
}

// bulkIndex is the in-memory lookup structure built from a single walk,
// standing in for the store during a full-repo index.
type bulkIndex struct {
	byShortName map[string][]graph.Node
	dirs        map[string]bool
	files       map[string]bool
	importsBy   map[string][]ingestion.PendingImport // source file -> its imports
}

func buildBulkIndex(wr walker.Result) *bulkIndex {
	idx := &bulkIndex{
		byShortName: map[string][]graph.Node{},
		dirs:        map[string]bool{},
		files:       map[string]bool{},
		importsBy:   map[string][]ingestion.PendingImport{},
	}
	for _, n := range wr.Nodes {
		switch n.Type {
		case graph.Directory:
			idx.dirs[n.Name] = true
		case graph.File:
			idx.files[n.Name] = true
		case graph.Class, graph.Interface, graph.OtherType:
			short := n.ShortName()
			idx.byShortName[short] = append(idx.byShortName[short], n)
		}
	}
	for _, imp := range wr.Imports {
		idx.importsBy[imp.SourceFile] = append(idx.importsBy[imp.SourceFile], imp)
	}
	return idx
}

func (idx *bulkIndex) NodesByShortName(short string) ([]graph.Node, error) {
	return idx.byShortName[strings.ToLower(short)], nil
}

func (idx *bulkIndex) DirectoryExists(path string) (bool, error) { return idx.dirs[path], nil }
func (idx *bulkIndex) FileExists(path string) (bool, error)      { return idx.files[path], nil }

func (c *Coordinator) resolveBulk(wr walker.Result) IndexResult {
	idx := buildBulkIndex(wr)
	res := IndexResult{Nodes: wr.Nodes}
	res.Edges = append(res.Edges, wr.Edges...)

	for _, imp := range wr.Imports {
		if e, ok := resolveImportEdge(imp, idx); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	for _, pt := range wr.ParamTypes {
		if e, ok := resolveParamType(pt, idx, idx.importsBy); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	for _, inh := range wr.Inherits {
		if e, ok := resolveInherit(inh, idx); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	return dedupEdges(res)
}

// IndexFile resolves a single adapter result (one file's worth of parsing,
// for either a fresh file or a dirty in-memory buffer) against the store
// via lookup instead of a whole-repo in-memory index.
func (c *Coordinator) IndexFile(file graph.Node, ar ingestion.AdapterResult, lookup StoreLookup) IndexResult {
	res := IndexResult{Nodes: ar.Nodes}
	res.Edges = append(res.Edges, ar.Edges...)

	storeIdx := &storeBackedIndex{lookup: lookup}

	for _, imp := range ar.Imports {
		if e, ok := resolveImportEdgeStore(imp, lookup); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	localImports := map[string][]ingestion.PendingImport{file.Name: ar.Imports}
	for _, pt := range ar.ParamTypes {
		if e, ok := resolveParamType(pt, storeIdx, localImports); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	for _, inh := range ar.Inherits {
		if e, ok := resolveInheritStore(inh, lookup); ok {
			res.Edges = append(res.Edges, e)
		}
	}
	return dedupEdges(res)
}

// storeBackedIndex adapts StoreLookup to the NodesByShortName surface
// resolveParamType needs, without pulling in the bulk path's dir/file sets.
type storeBackedIndex struct{ lookup StoreLookup }

func (s *storeBackedIndex) NodesByShortName(short string) ([]graph.Node, error) {
	return s.lookup.NodesByShortName(short)
}

func resolveImportEdge(imp ingestion.PendingImport, idx *bulkIndex) (graph.Edge, bool) {
	switch {
	case idx.dirs[imp.SourcePath]:
		return graph.Edge{
			Type:  graph.Imports,
			From:  graph.Endpoint{Name: imp.SourceFile, Type: graph.File},
			To:    graph.Endpoint{Name: imp.SourcePath, Type: graph.Directory},
			Import: imp.Symbol,
			Alias: imp.Alias,
		}, true
	case idx.files[imp.SourcePath]:
		return graph.Edge{
			Type:  graph.Imports,
			From:  graph.Endpoint{Name: imp.SourceFile, Type: graph.File},
			To:    graph.Endpoint{Name: imp.SourcePath, Type: graph.File},
			Import: imp.Symbol,
			Alias: imp.Alias,
		}, true
	}
	return graph.Edge{}, false
}

func resolveImportEdgeStore(imp ingestion.PendingImport, lookup StoreLookup) (graph.Edge, bool) {
	if ok, _ := lookup.DirectoryExists(imp.SourcePath); ok {
		return graph.Edge{
			Type:  graph.Imports,
			From:  graph.Endpoint{Name: imp.SourceFile, Type: graph.File},
			To:    graph.Endpoint{Name: imp.SourcePath, Type: graph.Directory},
			Import: imp.Symbol,
			Alias: imp.Alias,
		}, true
	}
	if ok, _ := lookup.FileExists(imp.SourcePath); ok {
		return graph.Edge{
			Type:  graph.Imports,
			From:  graph.Endpoint{Name: imp.SourceFile, Type: graph.File},
			To:    graph.Endpoint{Name: imp.SourcePath, Type: graph.File},
			Import: imp.Symbol,
			Alias: imp.Alias,
		}, true
	}
	return graph.Edge{}, false
}

// shortNameLookup is the minimal surface resolveParamType needs from either
// index flavor.
type shortNameLookup interface {
	NodesByShortName(short string) ([]graph.Node, error)
}

// resolveParamType turns one FuncParamType into a REFERENCES edge from the
// owning function to the resolved type node: same-file reference uses the
// file's own name; a Go "alias:" marker is
// resolved against that file's own pending imports; everything else
// (a TypeScript import-resolved file path, or a Go package directory) is
// used as a containment-prefix filter over the short-name candidates.
func resolveParamType(pt ingestion.FuncParamType, idx shortNameLookup, importsByFile map[string][]ingestion.PendingImport) (graph.Edge, bool) {
	owner := pt.PackageName
	if strings.HasPrefix(owner, "alias:") {
		alias := strings.TrimPrefix(owner, "alias:")
		fileName := funcOwnerFile(pt.FuncName)
		resolved, ok := resolveGoAlias(alias, importsByFile[fileName])
		if !ok {
			return graph.Edge{}, false
		}
		owner = resolved
	}

	candidates, _ := idx.NodesByShortName(pt.TypeName)
	for _, cand := range candidates {
		if nodeUnderOwner(cand.Name, owner) {
			return graph.Edge{
				Type: graph.References,
				From: graph.Endpoint{Name: pt.FuncName, Type: graph.Function},
				To:   graph.Endpoint{Name: cand.Name, Type: cand.Type},
			}, true
		}
	}
	return graph.Edge{}, false
}

func resolveInherit(inh ingestion.PendingInherit, idx *bulkIndex) (graph.Edge, bool) {
	candidates, _ := idx.NodesByShortName(inh.TypeName)
	for _, cand := range candidates {
		if nodeUnderOwner(cand.Name, inh.PackageName) {
			return graph.Edge{
				Type: graph.Inherits,
				From: graph.Endpoint{Name: inh.FromName, Type: graph.Class},
				To:   graph.Endpoint{Name: cand.Name, Type: cand.Type},
			}, true
		}
	}
	return graph.Edge{}, false
}

func resolveInheritStore(inh ingestion.PendingInherit, lookup StoreLookup) (graph.Edge, bool) {
	candidates, _ := lookup.NodesByShortName(inh.TypeName)
	for _, cand := range candidates {
		if nodeUnderOwner(cand.Name, inh.PackageName) {
			return graph.Edge{
				Type: graph.Inherits,
				From: graph.Endpoint{Name: inh.FromName, Type: graph.Class},
				To:   graph.Endpoint{Name: cand.Name, Type: cand.Type},
			}, true
		}
	}
	return graph.Edge{}, false
}

// nodeUnderOwner reports whether candidateName was declared in owner: an
// exact file ("pkg/foo.go" -> prefix "pkg/foo.go:") or a directory
// ("pkg/foo" -> prefix "pkg/foo/").
func nodeUnderOwner(candidateName, owner string) bool {
	if owner == "" {
		return false
	}
	if langutil.IsSupportedExt(owner) {
		return strings.HasPrefix(candidateName, owner+":")
	}
	return strings.HasPrefix(candidateName, owner+"/")
}

// resolveGoAlias finds, among a file's own recorded imports, the one whose
// binding (explicit alias, else last import-path segment) equals alias.
func resolveGoAlias(alias string, imports []ingestion.PendingImport) (string, bool) {
	for _, imp := range imports {
		bind := imp.Alias
		if bind == "" {
			bind = imp.Symbol
		}
		if bind == alias {
			return imp.SourcePath, true
		}
	}
	return "", false
}

// funcOwnerFile recovers the file node name a function/method node name was
// declared in: everything before the first top-level ":" separator.
func funcOwnerFile(funcName string) string {
	if idx := strings.IndexByte(funcName, ':'); idx >= 0 {
		return funcName[:idx]
	}
	return funcName
}

func dedupEdges(res IndexResult) IndexResult {
	seen := map[graph.Key]bool{}
	out := make([]graph.Edge, 0, len(res.Edges))
	for _, e := range res.Edges {
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	res.Edges = out
	return res
}
