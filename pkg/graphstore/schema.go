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

// Package graphstore is the façade over an embedded CozoDB instance that
// speaks the property-graph model directly: one node table per NodeType,
// one relation table per (EdgeType, FromType, ToType) triple an adapter or
// the walker actually produces.
package graphstore

import (
	"fmt"
	"strings"

	"github.com/kraklabs/codegraph/pkg/graph"
)

// nodeTables lists every NodeType's backing table definition. Node.Name is
// the primary key throughout: the property-graph model has no separate
// surrogate id, so re-indexing the same definition upserts in place.
var nodeTables = []graph.NodeType{
	graph.Directory,
	graph.File,
	graph.Interface,
	graph.Class,
	graph.Function,
	graph.OtherType,
	graph.Unparsed,
}

// relationTriples enumerates every (EdgeType, FromType, ToType) combination
// an adapter or the walker can actually emit. A relation table exists only
// for triples in this list; anything else is a defect in an adapter, not a
// missing table to add defensively.
var relationTriples = []struct {
	Type     graph.EdgeType
	From, To graph.NodeType
}{
	{graph.Contains, graph.Directory, graph.Directory},
	{graph.Contains, graph.Directory, graph.File},
	{graph.Contains, graph.File, graph.Class},
	{graph.Contains, graph.File, graph.Interface},
	{graph.Contains, graph.File, graph.Function},
	{graph.Contains, graph.File, graph.OtherType},
	{graph.Contains, graph.Class, graph.Function},
	{graph.Imports, graph.File, graph.Directory},
	{graph.Imports, graph.File, graph.File},
	{graph.References, graph.Function, graph.Class},
	{graph.References, graph.Function, graph.Interface},
	{graph.References, graph.Function, graph.OtherType},
	{graph.Inherits, graph.Class, graph.Class},
	{graph.Inherits, graph.Class, graph.Interface},
	{graph.Inherits, graph.Class, graph.OtherType},
}

// nodeTableDDL builds the `:create` statement for a node table. Every
// table shares graph.NodeColumns' shape: name is the key, the rest are
// plain value columns.
func nodeTableDDL(t graph.NodeType) string {
	return fmt.Sprintf(
		`:create %s { name: String => start_line: Int, end_line: Int, language: String, code: String, skeleton_code: String, doc_comment: String }`,
		t.Table(),
	)
}

// relationTableDDL builds the `:create` statement for one relation table.
// from_name/to_name together form the key: CONTAINS/IMPORTS/REFERENCES/
// INHERITS are all simple directed edges with no parallel-edge semantics.
func relationTableDDL(edgeType graph.EdgeType, from, to graph.NodeType) string {
	return fmt.Sprintf(
		`:create %s { from_name: String, to_name: String => import: String, alias: String }`,
		relationTableName(edgeType, from, to),
	)
}

func relationTableName(edgeType graph.EdgeType, from, to graph.NodeType) string {
	return string(edgeType) + "__" + string(from) + "__" + string(to)
}

// EnsureSchema creates every node and relation table if missing. Idempotent:
// "already exists" errors from a prior run are swallowed.
func (s *Store) EnsureSchema() error {
	var stmts []string
	for _, t := range nodeTables {
		stmts = append(stmts, nodeTableDDL(t))
	}
	for _, rel := range relationTriples {
		stmts = append(stmts, relationTableDDL(rel.Type, rel.From, rel.To))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range stmts {
		if _, err := s.db.Run(stmt, nil); err != nil {
			msg := err.Error()
			if strings.Contains(msg, "already exists") || strings.Contains(msg, "conflicts with an existing one") {
				continue
			}
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
