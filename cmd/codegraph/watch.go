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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/pkg/codegraph"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// watchSkipDirs lists directories never worth a filesystem watch, for
// descriptor budget and noise.
var watchSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, ".codegraph": true, "bin": true,
}

const watchDebounce = 2 * time.Second

// runWatch executes 'codegraph watch': it runs a full index once, then
// watches the tree and reindexes the changed file on every debounced
// burst of fsnotify events.
func runWatch(args []string, repoPath, dataDirFlag string, globals GlobalFlags, logger *slog.Logger) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cg, err := codegraph.New(codegraph.Config{
		RepoRoot:     repoPath,
		DataDir:      defaultDataDir(repoPath, dataDirFlag),
		Engine:       globals.Engine,
		WalkerConfig: walker.DefaultConfig(),
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		os.Exit(1)
	}
	defer cg.Close()

	if stats, err := cg.Index(repoPath, true); err != nil {
		fmt.Fprintf(os.Stderr, "initial index failed: %v\n", err)
		os.Exit(1)
	} else {
		logger.Info("initial index complete", "nodes", stats.Nodes, "edges", stats.Edges)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsnotify: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	watchCount := 0
	_ = filepath.Walk(repoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if watchSkipDirs[base] || (strings.HasPrefix(base, ".") && base != ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err == nil {
			watchCount++
		}
		return nil
	})
	logger.Info("watching repository", "dirs", watchCount)

	pending := map[string]bool{}
	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(repoPath, event.Name)
			if err == nil {
				pending[rel] = true
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(watchDebounce)
			timerCh = debounceTimer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		case <-timerCh:
			timerCh = nil
			for rel := range pending {
				stats, err := cg.Index(filepath.Join(repoPath, rel), false)
				if err != nil {
					logger.Warn("reindex failed", "file", rel, "error", err)
					continue
				}
				logger.Info("reindexed", "file", rel, "nodes", stats.Nodes, "edges", stats.Edges)
			}
			pending = map[string]bool{}
		}
	}
}
