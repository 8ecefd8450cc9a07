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
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/pkg/codegraph"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// runParams executes 'codegraph params FILE LINE', resolving the
// parameter-type snippets for the function enclosing FILE:LINE.
func runParams(args []string, repoPath, dataDirFlag string, globals GlobalFlags, logger *slog.Logger) {
	fs := flag.NewFlagSet("params", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph params FILE LINE\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		os.Exit(1)
	}
	file := rest[0]
	line, err := strconv.Atoi(rest[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid line number %q: %v\n", rest[1], err)
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
		fmt.Fprintf(os.Stderr, "params failed: %v\n", err)
		os.Exit(1)
	}
	defer cg.Close()

	snippets, err := cg.GetFuncParamTypes(file, line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "params failed: %v\n", err)
		os.Exit(1)
	}
	if globals.JSON {
		printJSON(globals, snippets)
		return
	}
	for _, s := range snippets {
		fmt.Printf("--- %s:%d-%d ---\n%s\n\n", s.Path, s.StartLine, s.EndLine, s.Content)
	}
}
