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

package walker

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/ingestion"
	"github.com/kraklabs/codegraph/pkg/langutil"
)

// Result is everything produced by a single Walk: structural nodes/edges
// for the directory tree plus every adapter's local output and deferred
// cross-file resolution records, flattened across the whole traversal.
type Result struct {
	Nodes      []graph.Node
	Edges      []graph.Edge
	Imports    []ingestion.PendingImport
	ParamTypes []ingestion.FuncParamType
	Inherits   []ingestion.PendingInherit
}

// Walker traverses a repository in depth-first order, honoring Config and
// dispatching each admitted file to the adapter registered for its
// language. It never touches a store: it is a pure producer of graph
// fragments, consumed by a coordinator.
type Walker struct {
	cfg      Config
	adapters map[graph.Language]ingestion.Adapter
	logger   *slog.Logger
}

func New(cfg Config, adapters map[graph.Language]ingestion.Adapter, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{cfg: cfg, adapters: adapters, logger: logger}
}

// parseJob is a file admitted by the directory scan, queued for adapter
// dispatch. Splitting the scan from the parse step is what lets Walk fan
// the parse step out across a worker pool: the directory tree (and the
// File/Directory nodes naming it) must exist before a single adapter runs.
type parseJob struct {
	node    graph.Node
	data    []byte
	adapter ingestion.Adapter
}

// Walk traverses rootPath and returns every node/edge/pending record
// discovered. The repository root is always emitted as a Directory node
// named graph.RootName, regardless of rootPath's actual basename.
//
// Directory scanning is always sequential (it establishes CONTAINS
// structure and ignore scoping, which a later file's adapter never
// depends on); admitted files are then parsed, optionally across a worker
// pool sized by Config.Concurrency.
func (w *Walker) Walk(rootPath string) (Result, error) {
	rootPath = filepath.Clean(rootPath)
	res := Result{}

	ig := newIgnoreSet()
	if w.cfg.UseGitignoreFiles {
		ig.loadGitignore(filepath.Join(rootPath, ".gitignore"))
		ig.loadGitignore(filepath.Join(rootPath, ".git", "info", "exclude"))
	}
	ig.addPatterns(w.cfg.IgnorePatterns)

	processed := map[string]bool{rootPath: true}
	res.Nodes = append(res.Nodes, graph.Node{Name: graph.RootName, Type: graph.Directory})

	var jobs []parseJob
	if err := w.walkDir(rootPath, rootPath, graph.RootName, 0, ig, processed, &res, &jobs); err != nil {
		return res, err
	}

	w.parseJobs(jobs, &res)
	return res, nil
}

// parseJobs dispatches jobs to their adapters, sequentially for small
// batches or when Config.Concurrency disables pooling, and via an
// index-keyed jobs/results worker pool otherwise.
func (w *Walker) parseJobs(jobs []parseJob, res *Result) {
	if len(jobs) == 0 {
		return
	}
	workers := w.cfg.Concurrency
	if len(jobs) < 10 || workers <= 1 {
		for _, j := range jobs {
			w.mergeParse(j, res)
		}
		return
	}

	type jobResult struct {
		index int
		ar    ingestion.AdapterResult
	}
	indices := make(chan int, len(jobs))
	results := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				j := jobs[idx]
				results <- jobResult{index: idx, ar: j.adapter.Parse(j.node, j.data)}
			}
		}()
	}
	for i := range jobs {
		indices <- i
	}
	close(indices)
	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]ingestion.AdapterResult, len(jobs))
	for r := range results {
		ordered[r.index] = r.ar
	}
	for _, ar := range ordered {
		res.Nodes = append(res.Nodes, ar.Nodes...)
		res.Edges = append(res.Edges, ar.Edges...)
		res.Imports = append(res.Imports, ar.Imports...)
		res.ParamTypes = append(res.ParamTypes, ar.ParamTypes...)
		res.Inherits = append(res.Inherits, ar.Inherits...)
	}
}

func (w *Walker) mergeParse(j parseJob, res *Result) {
	ar := j.adapter.Parse(j.node, j.data)
	res.Nodes = append(res.Nodes, ar.Nodes...)
	res.Edges = append(res.Edges, ar.Edges...)
	res.Imports = append(res.Imports, ar.Imports...)
	res.ParamTypes = append(res.ParamTypes, ar.ParamTypes...)
	res.Inherits = append(res.Inherits, ar.Inherits...)
}

func (w *Walker) walkDir(root, dirPath, dirNodeName string, depth int, ig *ignoreSet, processed map[string]bool, res *Result, jobs *[]parseJob) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if w.cfg.ContinueOnError {
			w.logger.Warn("walker.readdir_failed", "dir", dirPath, "err", err)
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		full := filepath.Join(dirPath, entry.Name())
		rel, relErr := filepath.Rel(root, full)
		if relErr != nil {
			continue
		}
		relSlash := filepath.ToSlash(rel)

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if !w.cfg.FollowLinks {
				continue
			}
			target, statErr := os.Stat(full)
			if statErr != nil {
				if w.cfg.ContinueOnError {
					w.logger.Warn("walker.symlink_stat_failed", "path", full, "err", statErr)
					continue
				}
				return statErr
			}
			isDir = target.IsDir()
		}

		if ig.Match(relSlash, isDir) {
			continue
		}
		if processed[full] {
			continue
		}

		if isDir {
			if !w.cfg.Recursive {
				continue
			}
			processed[full] = true
			childName := relSlash
			res.Nodes = append(res.Nodes, graph.Node{Name: childName, Type: graph.Directory})
			res.Edges = append(res.Edges, graph.Edge{
				Type: graph.Contains,
				From: graph.Endpoint{Name: dirNodeName, Type: graph.Directory},
				To:   graph.Endpoint{Name: childName, Type: graph.Directory},
			})

			if w.cfg.MaxDepth != 0 && depth+1 >= w.cfg.MaxDepth {
				continue
			}

			childIg := ig.clone()
			if w.cfg.UseGitignoreFiles {
				childIg.loadGitignore(filepath.Join(full, ".gitignore"))
			}
			if err := w.walkDir(root, full, childName, depth+1, childIg, processed, res, jobs); err != nil {
				return err
			}
			continue
		}

		if !langutil.IsSupportedExt(full) {
			continue
		}
		processed[full] = true

		lang, _ := langutil.LanguageForPath(full)
		nodeName := relSlash
		data, readErr := os.ReadFile(full)
		if readErr != nil {
			if w.cfg.ContinueOnError {
				w.logger.Warn("walker.read_failed", "path", full, "err", readErr)
				continue
			}
			return readErr
		}

		fileNode := graph.Node{Name: nodeName, Type: graph.File, Language: lang}
		res.Nodes = append(res.Nodes, fileNode)
		res.Edges = append(res.Edges, graph.Edge{
			Type: graph.Contains,
			From: graph.Endpoint{Name: dirNodeName, Type: graph.Directory},
			To:   graph.Endpoint{Name: nodeName, Type: graph.File},
		})

		adapter, ok := w.adapters[lang]
		if !ok {
			continue
		}
		*jobs = append(*jobs, parseJob{node: fileNode, data: data, adapter: adapter})
	}
	return nil
}

func (s *ignoreSet) clone() *ignoreSet {
	return &ignoreSet{rules: append([]rule(nil), s.rules...)}
}
