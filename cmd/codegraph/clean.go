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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/pkg/codegraph"
	"github.com/kraklabs/codegraph/pkg/walker"
)

// runClean executes 'codegraph clean [--delete]'.
func runClean(args []string, repoPath, dataDirFlag string, globals GlobalFlags, logger *slog.Logger) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	deleteDir := fs.Bool("delete", false, "Remove the data directory entirely instead of just wiping tables")
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
		fmt.Fprintf(os.Stderr, "Cleaning failed: %v\n", err)
		os.Exit(1)
	}
	defer cg.Close()

	if err := cg.Clean(*deleteDir); err != nil {
		fmt.Fprintf(os.Stderr, "Cleaning failed: %v\n", err)
		os.Exit(1)
	}
	if !globals.Quiet {
		fmt.Println("Store cleaned.")
	}
}
