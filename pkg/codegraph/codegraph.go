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

// Package codegraph is the top-level orchestrator: it wires the walker,
// the language adapters, the coordinator and the store together behind
// the public CodeGraph type, the engine's single entry point.
package codegraph

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/codegraph/internal/cgerrors"
	"github.com/kraklabs/codegraph/pkg/coordinator"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/graphstore"
	"github.com/kraklabs/codegraph/pkg/ingestion"
	"github.com/kraklabs/codegraph/pkg/langutil"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// Config bundles everything New needs: where the repository lives, where
// the store persists, and how the walker should traverse.
type Config struct {
	RepoRoot     string
	DataDir      string
	Engine       string
	WalkerConfig walker.Config
	Logger       *slog.Logger
}

// Stats summarizes one Index call, returned for the CLI's progress output.
type Stats struct {
	Nodes int
	Edges int
}

// CodeGraph is the engine's public entry point: one repository, one store,
// one set of language adapters, bound together for the lifetime of the
// process. Every public method corresponds to an operation in the
// language-neutral API.
type CodeGraph struct {
	repoRoot string
	dataDir  string
	cfg      walker.Config
	store    *graphstore.Store
	coord    *coordinator.Coordinator
	adapters map[graph.Language]ingestion.Adapter
	logger   *slog.Logger
}

// New opens the store at cfg.DataDir and builds the adapter set for
// cfg.RepoRoot's module path. It does not walk the repository; call Index
// for that.
func New(cfg Config) (*CodeGraph, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repoRoot, err := filepath.Abs(cfg.RepoRoot)
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
	}
	store, err := graphstore.Open(graphstore.Config{DataDir: cfg.DataDir, Engine: cfg.Engine})
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}

	modulePath := langutil.GoModulePath(repoRoot)
	adapters := map[graph.Language]ingestion.Adapter{
		graph.LangGo:         ingestion.NewGoAdapter(modulePath, logger),
		graph.LangTypeScript: ingestion.NewTypeScriptAdapter(repoRoot, logger),
		graph.LangPython:     ingestion.NewPythonAdapter(logger),
	}

	return &CodeGraph{
		repoRoot: repoRoot,
		dataDir:  cfg.DataDir,
		cfg:      cfg.WalkerConfig,
		store:    store,
		coord:    coordinator.New(cfg.WalkerConfig, adapters, logger),
		adapters: adapters,
		logger:   logger,
	}, nil
}

// Close releases the underlying store handle.
func (cg *CodeGraph) Close() error { return cg.store.Close() }

// Index runs the engine's one entry point for both full-repo and
// single-file indexing, dispatching on what path resolves to.
func (cg *CodeGraph) Index(path string, force bool) (Stats, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
	}

	if abs == cg.repoRoot {
		return cg.indexRepo(force)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrInvalidPath, fmt.Errorf("%s: does not exist or is neither file nor directory", path))
	}
	if info.IsDir() {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrUnsupported, fmt.Errorf("%s: indexing an arbitrary directory is not supported", path))
	}

	rel, err := filepath.Rel(cg.repoRoot, abs)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
	}
	rel = filepath.ToSlash(rel)

	content, err := os.ReadFile(abs)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
	}
	return cg.indexFile(rel, content)
}

// IndexDirtyFile runs the single-file branch against supplied bytes rather
// than the filesystem, for editor buffers that have not been saved.
func (cg *CodeGraph) IndexDirtyFile(path string, content []byte) (Stats, error) {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(cg.repoRoot, path)
		if err != nil {
			return Stats{}, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	return cg.indexFile(rel, content)
}

func (cg *CodeGraph) indexRepo(force bool) (Stats, error) {
	if force {
		if err := cg.store.Clean(); err != nil {
			return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
		}
	}
	res, err := cg.coord.IndexRepo(cg.repoRoot)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrTraversalError, err)
	}
	if err := cg.store.BulkInsertNodes(res.Nodes); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	if err := cg.store.BulkInsertEdges(res.Edges); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	cg.logger.Info("indexed repository", "nodes", len(res.Nodes), "edges", len(res.Edges))
	return Stats{Nodes: len(res.Nodes), Edges: len(res.Edges)}, nil
}

// indexFile implements the single-file/dirty-buffer branch: old names
// under rel are diffed against the freshly parsed set, stale nodes and
// their edges are dropped, and the survivors are upserted.
func (cg *CodeGraph) indexFile(rel string, content []byte) (Stats, error) {
	old, err := cg.store.GetFileTree(rel)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	oldNames := map[string]bool{}
	for _, n := range old {
		oldNames[n.Name] = true
	}
	oldInner, err := cg.innerNodeNames(rel)
	if err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	for name := range oldInner {
		oldNames[name] = true
	}

	lang, supported := langutil.LanguageForPath(rel)
	fileNode := graph.Node{Name: rel, Type: graph.File, Language: lang}
	var ar ingestion.AdapterResult
	if supported {
		if adapter, ok := cg.adapters[lang]; ok {
			ar = adapter.Parse(fileNode, content)
		}
	} else {
		fileNode.Language = graph.LangUnknown
	}

	newNames := map[string]bool{rel: true}
	for _, n := range ar.Nodes {
		newNames[n.Name] = true
	}

	for name := range oldNames {
		if !newNames[name] {
			if err := cg.store.DeleteNodes(name); err != nil {
				return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
			}
		}
	}
	// Drop every outgoing edge from rel and its old inner nodes: a changed
	// signature can point a REFERENCES edge at a type that still exists
	// but is no longer the right target, so stale edges must go even when
	// their endpoint node survives.
	if err := cg.store.DeleteNodes(rel); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}

	allNodes := append([]graph.Node{fileNode}, ar.Nodes...)
	if err := cg.store.UpsertNodes(allNodes); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	if err := cg.store.UpsertEdges(ar.Edges); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}

	res := cg.coord.IndexFile(fileNode, ar, cg.store)
	if err := cg.store.UpsertEdges(res.Edges); err != nil {
		return Stats{}, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}

	cg.logger.Debug("indexed file", "path", rel, "nodes", len(allNodes), "edges", len(ar.Edges)+len(res.Edges))
	return Stats{Nodes: len(allNodes), Edges: len(ar.Edges) + len(res.Edges)}, nil
}

// innerNodeNames returns the names of every definition and method already
// stored under rel (CONTAINS of length 1..2), the "old" side of the
// add/remove diff a single-file reindex performs.
func (cg *CodeGraph) innerNodeNames(rel string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, t := range []graph.NodeType{graph.Class, graph.Interface, graph.Function, graph.OtherType} {
		nodes, err := cg.store.QueryNodes(t, fmt.Sprintf(`, starts_with(name, "%s:")`, escapeDatalogString(rel)), nil)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			out[n.Name] = true
		}
	}
	return out, nil
}

func escapeDatalogString(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// GetFuncParamTypes resolves filePath to a repo-relative path and returns
// one Snippet per parameter type referenced by the function enclosing
// line.
func (cg *CodeGraph) GetFuncParamTypes(filePath string, line int) ([]Snippet, error) {
	rel := filePath
	if filepath.IsAbs(filePath) {
		r, err := filepath.Rel(cg.repoRoot, filePath)
		if err != nil {
			return nil, cgerrors.Wrap(cgerrors.ErrInvalidPath, err)
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	return cg.snippetsForParamTypes(rel, line)
}

// QueryNodes is a pass-through to the store's query primitive.
func (cg *CodeGraph) QueryNodes(t graph.NodeType, whereClause string, params map[string]any) ([]graph.Node, error) {
	nodes, err := cg.store.QueryNodes(t, whereClause, params)
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	return nodes, nil
}

// QueryEdges is a pass-through to the store's query primitive.
func (cg *CodeGraph) QueryEdges(edgeType graph.EdgeType, from, to graph.NodeType, whereClause string, params map[string]any) ([]graph.Edge, error) {
	edges, err := cg.store.QueryEdges(edgeType, from, to, whereClause, params)
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	return edges, nil
}

// GetNode looks up a single node by its exact name.
func (cg *CodeGraph) GetNode(name string) (graph.Node, bool, error) {
	n, ok, err := cg.store.GetNode(name)
	if err != nil {
		return graph.Node{}, false, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	return n, ok, nil
}

// GetFileTree returns every Directory/File node rooted under prefix.
func (cg *CodeGraph) GetFileTree(prefix string) ([]graph.Node, error) {
	nodes, err := cg.store.GetFileTree(prefix)
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	return nodes, nil
}

// Clean wipes the store's tables (delete=false) or removes the data
// directory entirely (delete=true). After delete=true the CodeGraph's
// store handle is closed; the caller must construct a fresh CodeGraph to
// index again.
func (cg *CodeGraph) Clean(delete bool) error {
	if !delete {
		if err := cg.store.Clean(); err != nil {
			return cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
		}
		return nil
	}
	if err := cg.store.Close(); err != nil {
		return cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	if err := os.RemoveAll(cg.dataDir); err != nil {
		return cgerrors.Wrap(cgerrors.ErrStoreFailure, err)
	}
	return nil
}
