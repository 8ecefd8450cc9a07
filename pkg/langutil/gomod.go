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

package langutil

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// GoModulePath scans repoRoot/go.mod for its leading "module" directive
// and returns the declared module path, or "" if no go.mod exists or it
// has no module line.
func GoModulePath(repoRoot string) string {
	f, err := os.Open(filepath.Join(repoRoot, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		return strings.TrimSpace(strings.TrimPrefix(line, "module"))
	}
	return ""
}

// ResolveGoImportPath maps a Go import path to a repo-relative directory,
// returning ok=false if importPath does not start with modulePath (a
// non-relative import outside the repo's own module).
func ResolveGoImportPath(modulePath, importPath string) (rel string, ok bool) {
	if modulePath == "" || importPath == "" {
		return "", false
	}
	if importPath == modulePath {
		return "", true
	}
	prefix := modulePath + "/"
	if !strings.HasPrefix(importPath, prefix) {
		return "", false
	}
	return path.Clean(strings.TrimPrefix(importPath, prefix)), true
}
