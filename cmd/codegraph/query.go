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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/pkg/codegraph"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// runQuery executes 'codegraph query nodes|edges TYPE [WHERE]', a thin CLI
// wrapper over CodeGraph's QueryNodes/QueryEdges pass-throughs.
func runQuery(args []string, repoPath, dataDirFlag string, globals GlobalFlags, logger *slog.Logger) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	from := fs.String("from", "", "REFERENCES/INHERITS/IMPORTS: source node type")
	to := fs.String("to", "", "REFERENCES/INHERITS/IMPORTS: target node type")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage:
  codegraph query nodes TYPE [WHERE]
  codegraph query edges TYPE --from FROM --to TO [WHERE]

TYPE is one of directory, file, interface, class, function, other_type
(nodes) or contains, imports, inherits, references (edges). WHERE is a raw
Datalog condition fragment, e.g. ', starts_with(name, "pkg/")'.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		os.Exit(1)
	}
	kind, nodeType := rest[0], rest[1]
	where := ""
	if len(rest) > 2 {
		where = rest[2]
	}

	cg, err := codegraph.New(codegraph.Config{
		RepoRoot:     repoPath,
		DataDir:      defaultDataDir(repoPath, dataDirFlag),
		Engine:       globals.Engine,
		WalkerConfig: walker.DefaultConfig(),
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer cg.Close()

	switch kind {
	case "nodes":
		nodes, err := cg.QueryNodes(graph.NodeType(nodeType), where, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(globals, nodes)
	case "edges":
		edges, err := cg.QueryEdges(graph.EdgeType(nodeType), graph.NodeType(*from), graph.NodeType(*to), where, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(globals, edges)
	default:
		fs.Usage()
		os.Exit(1)
	}
}

func printJSON(globals GlobalFlags, v any) {
	enc := json.NewEncoder(os.Stdout)
	if !globals.JSON {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
