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

// Package graph holds the property-graph entity model: Node, Edge and the
// enums that type them. Conversions to ordered key/value records live here
// too, since the store layer needs a stable column order per table.
package graph

// NodeType identifies the kind of code entity a Node represents.
type NodeType string

const (
	Unparsed  NodeType = "unparsed"
	Directory NodeType = "directory"
	File      NodeType = "file"
	Interface NodeType = "interface"
	Class     NodeType = "class"
	Function  NodeType = "function"
	OtherType NodeType = "other_type"
)

// EdgeType identifies the kind of relation an Edge represents.
type EdgeType string

const (
	Contains   EdgeType = "contains"
	Imports    EdgeType = "imports"
	Inherits   EdgeType = "inherits"
	References EdgeType = "references"
)

// Language identifies the source language a Node was parsed from.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	// LangUnknown marks a node reached via index_dirty_file for an
	// extension the adapters don't recognize; it carries no code nodes,
	// only the File node itself.
	LangUnknown Language = "unknown"
	// LangNone is used by Directory/Unparsed nodes, which have no language.
	LangNone Language = ""
)

// table returns the backing node table name for t, matching nodeTableDDL
// in pkg/graphstore.
func (t NodeType) table() string {
	switch t {
	case Directory:
		return "cg_directory"
	case File:
		return "cg_file"
	case Interface:
		return "cg_interface"
	case Class:
		return "cg_class"
	case Function:
		return "cg_function"
	case OtherType:
		return "cg_other_type"
	default:
		return "cg_unparsed"
	}
}

// Table returns the backing node table name for t.
func (t NodeType) Table() string { return t.table() }

// relationTable returns the backing relation table name for the triple
// (edgeType, fromType, toType). One table exists per combination that is
// actually produced by an adapter or the walker; see relationTriples in
// pkg/graphstore.
func relationTable(e EdgeType, from, to NodeType) string {
	return string(e) + "__" + string(from) + "__" + string(to)
}
