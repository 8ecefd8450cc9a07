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

// Package langutil collects the small, dependency-free helpers that the
// language adapters and the walker both need: extension-to-language
// mapping, Go module-path resolution, and builtin-type filters.
package langutil

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// supportedExt maps a lowercased file extension to its Language. Anything
// not in this table is not a supported file; the walker still creates
// Directory nodes for its ancestors but never invokes an adapter.
var supportedExt = map[string]graph.Language{
	".go": graph.LangGo,
	".ts": graph.LangTypeScript,
	".py": graph.LangPython,
}

// LanguageForPath returns the Language for path's extension and whether
// that extension is supported at all.
func LanguageForPath(path string) (graph.Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := supportedExt[ext]
	return lang, ok
}

// IsSupportedExt reports whether path's extension is one the walker admits
// for adapter dispatch.
func IsSupportedExt(path string) bool {
	_, ok := LanguageForPath(path)
	return ok
}
