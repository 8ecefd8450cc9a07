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

package graph

import "strings"

// Node is a vertex in the property graph. Name is the node's global
// identity; see ShortName for the naming invariants
// (repo root is "", a top-level definition is "<file>:<Symbol>", a method
// is "<file>:<Type>.<Method>").
type Node struct {
	Name         string
	Type         NodeType
	Language     Language
	StartLine    int
	EndLine      int
	Code         string
	SkeletonCode string
	// DocComment holds a leading doc-comment block immediately preceding
	// the declaration, when the adapter captured one. Empty for most
	// nodes; never required by any invariant.
	DocComment string
}

// RootName is the identity of the repository root Directory node.
const RootName = ""

// BulkRootSentinel substitutes RootName during CSV bulk staging only,
// because the store's bulk-load path rejects empty-string primary keys.
// It must never appear in a query result or an upserted node; translation
// happens at the graphstore boundary.
const BulkRootSentinel = "."

// ShortName returns the trailing SymbolName or MethodName of n.Name,
// lowercased, as used for type lookups during resolution. Directory and
// File nodes return their base path segment lowercased.
func (n Node) ShortName() string {
	name := n.Name
	if idx := strings.LastIndexByte(name, ':'); idx >= 0 {
		name = name[idx+1:]
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
			name = name[idx+1:]
		}
	} else if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

// NodeColumns is the fixed column order used for every node table; see
// nodeTableDDL in pkg/graphstore. Directory/Unparsed rows leave language, code,
// skeleton_code, start_line and end_line at their zero values.
var NodeColumns = []string{"name", "start_line", "end_line", "language", "code", "skeleton_code", "doc_comment"}

// Record converts n into a row matching NodeColumns, substituting sub for
// n.Name when n.Name == RootName (bulk-staging only; callers on the
// upsert/query path pass RootName as sub).
func (n Node) Record(sub string) []any {
	name := n.Name
	if name == RootName && sub != "" {
		name = sub
	}
	return []any{name, n.StartLine, n.EndLine, string(n.Language), n.Code, n.SkeletonCode, n.DocComment}
}
