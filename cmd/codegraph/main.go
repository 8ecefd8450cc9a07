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

// Package main implements the codegraph CLI for indexing a repository into
// a property graph and querying it.
//
// Usage:
//
//	codegraph index [path] [--full]      Index the repository or a single file
//	codegraph params <file> <line>       Resolve parameter-type snippets
//	codegraph query nodes|edges TYPE [WHERE]   Run a raw store query
//	codegraph clean [--delete]           Wipe or remove the store
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/logging"
	"github.com/kraklabs/codegraph/internal/projectconfig"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags every subcommand inherits.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
	Engine  string
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		repoPath    = flag.StringP("repo", "r", ".", "Repository root")
		dataDir     = flag.StringP("data-dir", "d", "", "Store data directory (default: <repo>/.codegraph)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - code property-graph indexer

Usage:
  codegraph <command> [options]

Commands:
  index [path]   Index the repository, or a single file (--full forces a clean reindex)
  params FILE LN Resolve parameter-type snippets for the function enclosing FILE:LN
  query nodes|edges TYPE [WHERE]
                 Run a raw Datalog condition against one node or relation table
  clean          Wipe the store's tables (--delete removes the data directory)
  watch          Index once, then reindex changed files as they're saved

Global Options:
  -r, --repo        Repository root (default ".")
  -d, --data-dir     Store data directory (default "<repo>/.codegraph")
      --json         Output in JSON format
      --no-color     Disable color output (respects NO_COLOR)
  -v, --verbose      Increase verbosity
  -q, --quiet        Suppress non-essential output
  -V, --version      Show version and exit

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}
	logger := logging.InitLogger(logging.ParseVerbosity(globals.Verbose), os.Stderr, globals.NoColor)

	pcfg, err := projectconfig.Load(*repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading .codegraph.yaml: %v\n", err)
		os.Exit(1)
	}
	if *dataDir == "" {
		*dataDir = pcfg.DataDir
	}
	globals.Engine = pcfg.Engine

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "index":
		runIndex(cmdArgs, *repoPath, *dataDir, pcfg.Indexing, globals, logger)
	case "params":
		runParams(cmdArgs, *repoPath, *dataDir, globals, logger)
	case "query":
		runQuery(cmdArgs, *repoPath, *dataDir, globals, logger)
	case "clean":
		runClean(cmdArgs, *repoPath, *dataDir, globals, logger)
	case "watch":
		runWatch(cmdArgs, *repoPath, *dataDir, globals, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// defaultDataDir anchors the store under the repo rather than the user's
// home, since this engine owns exactly one directory per repository, not
// a registry of projects.
func defaultDataDir(repoPath, dataDir string) string {
	if dataDir != "" {
		return dataDir
	}
	return repoPath + "/.codegraph"
}
