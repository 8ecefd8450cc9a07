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

// Package ingestion holds the tree-sitter language adapters: pure
// functions that turn a File node's raw bytes into local nodes/edges plus
// deferred cross-file resolution records. Adapters never touch the store
// and never read prior state.
package ingestion

import "github.com/kraklabs/codegraph/pkg/graph"

// PendingImport is a transient record describing an import whose target
// node is not yet known at adapter time. Symbol=="" means a whole-module
// import; Symbol=="export default" is the reserved default-import sentinel.
type PendingImport struct {
	Language   graph.Language
	SourceFile string // file node that owns the import
	SourcePath string // resolved target path (TS) or repo-relative dir (Go)
	Symbol     string
	Alias      string
}

// DefaultImportSymbol is the reserved sentinel for `import X from 'Y'`.
const DefaultImportSymbol = "export default"

// FuncParamType is a transient record describing a parameter's base type
// and the owner node under which its definition is expected.
type FuncParamType struct {
	FuncName    string // enclosing function/method node name
	TypeName    string
	PackageName string // owner node name; "" means unresolved (dropped later)
}

// PendingInherit mirrors FuncParamType but marks an INHERITS target
// (a TypeScript class's extends/implements clause) rather than a
// parameter reference; see DESIGN.md's INHERITS open-question resolution.
type PendingInherit struct {
	FromName    string // the class node name
	TypeName    string
	PackageName string
}

// AdapterResult is everything a single adapter invocation produces.
type AdapterResult struct {
	Nodes      []graph.Node
	Edges      []graph.Edge
	Imports    []PendingImport
	ParamTypes []FuncParamType
	Inherits   []PendingInherit
}

// Adapter parses one file's bytes into local graph fragments. file is the
// File node already created by the walker; src is the file content
// (filesystem read or dirty-buffer bytes). Adapters never raise: a file
// they cannot parse yields an empty AdapterResult.
type Adapter interface {
	Parse(file graph.Node, src []byte) AdapterResult
}

// patternID is the closed set of tagged capture-query pattern indices an
// adapter dispatches on. The integer value assigned by tree-sitter to each
// pattern in a compiled Query is positional, so patternID values must stay
// in the same order as the corresponding query source string.
type patternID int
