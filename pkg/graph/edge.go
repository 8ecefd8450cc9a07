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

// Endpoint names a node by its identity and type. The pair of endpoint
// types is part of an edge's storage identity, since the store keeps one
// relation table per (EdgeType, From.Type, To.Type) triple.
type Endpoint struct {
	Name string
	Type NodeType
}

// Edge is a typed, directional relation between two nodes.
type Edge struct {
	Type   EdgeType
	From   Endpoint
	To     Endpoint
	Import string // IMPORTS only: original symbol name on the source side.
	Alias  string // IMPORTS only: local binding name, if any.
}

// Table returns the backing relation table name for e.
func (e Edge) Table() string { return relationTable(e.Type, e.From.Type, e.To.Type) }

// EdgeColumns is the fixed column order for every relation table.
var EdgeColumns = []string{"from_name", "to_name", "import", "alias"}

// Record converts e into a row matching EdgeColumns, substituting the bulk
// root sentinel for either endpoint when it equals RootName.
func (e Edge) Record(sub string) []any {
	from, to := e.From.Name, e.To.Name
	if from == RootName && sub != "" {
		from = sub
	}
	if to == RootName && sub != "" {
		to = sub
	}
	return []any{from, to, e.Import, e.Alias}
}

// Key identifies an edge for deduplication purposes: same type and same
// endpoints (by name) collapse to one stored row regardless of how many
// times an adapter emitted a matching capture.
type Key struct {
	Type EdgeType
	From string
	To   string
}

func (e Edge) Key() Key { return Key{Type: e.Type, From: e.From.Name, To: e.To.Name} }
