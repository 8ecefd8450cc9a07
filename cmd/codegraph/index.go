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
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/projectconfig"
	"github.com/kraklabs/codegraph/pkg/codegraph"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// runIndex executes 'codegraph index [path]'. With no path it reindexes
// the whole repository (--full forces a clean wipe first); with a path it
// runs the single-file upsert branch. pcfg carries .codegraph.yaml's
// indexing defaults, overridden by any flag the caller actually set.
func runIndex(args []string, repoPath, dataDirFlag string, pcfg projectconfig.IndexingConfig, globals GlobalFlags, logger *slog.Logger) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Force a clean reindex of the whole repository")
	followLinks := fs.Bool("follow-links", pcfg.FollowLinks, "Follow symlinks while walking")
	maxDepth := fs.Int("max-depth", pcfg.MaxDepth, "Maximum walk depth (0 = unlimited)")
	continueOnError := fs.Bool("continue-on-error", pcfg.ContinueOnError, "Log and skip walker errors instead of aborting")
	parseWorkers := fs.Int("parse-workers", 4, "Worker pool size for parsing files during a full-repo index")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph index [path] [options]

With no path, indexes the whole repository. With a path to a single file,
upserts just that file's definitions and edges.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	useGitignore := true
	if pcfg.UseGitignoreFiles != nil {
		useGitignore = *pcfg.UseGitignoreFiles
	}

	dataDir := defaultDataDir(repoPath, dataDirFlag)
	cg, err := codegraph.New(codegraph.Config{
		RepoRoot: repoPath,
		DataDir:  dataDir,
		Engine:   globals.Engine,
		WalkerConfig: walker.Config{
			Recursive:         true,
			FollowLinks:       *followLinks,
			MaxDepth:          *maxDepth,
			ContinueOnError:   *continueOnError,
			IgnorePatterns:    pcfg.IgnorePatterns,
			UseGitignoreFiles: useGitignore,
			Concurrency:       *parseWorkers,
		},
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	defer cg.Close()

	target := repoPath
	if len(fs.Args()) > 0 {
		target = fs.Args()[0]
	}

	var bar *progressbar.ProgressBar
	if !globals.Quiet {
		bar = progressbar.NewOptions(-1, progressbar.OptionSetDescription("Indexing"), progressbar.OptionSpinnerType(14))
	}
	done := make(chan struct{})
	if bar != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					_ = bar.Add(1)
				}
			}
		}()
	}

	stats, err := cg.Index(target, *full)
	close(done)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}

	if !globals.Quiet {
		fmt.Printf("Indexed %s: %d nodes, %d edges\n", target, stats.Nodes, stats.Edges)
	}
}
