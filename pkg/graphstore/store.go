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

package graphstore

import (
	"fmt"
	"os"
	"strings"
	"sync"

	cozo "github.com/kraklabs/codegraph/pkg/cozodb"
	"github.com/kraklabs/codegraph/pkg/graph"
)

// Config configures the embedded store.
type Config struct {
	// DataDir is the directory CozoDB persists to. Required: a single
	// Store owns exactly one database at exactly one fixed directory.
	DataDir string
	// Engine is the CozoDB storage engine: "rocksdb", "sqlite" or "mem".
	// Defaults to "rocksdb".
	Engine string
}

// Store is the single object owning a persistent graph database at a fixed
// directory. Every mutation and query goes through it; nothing downstream
// talks to CozoDB directly.
type Store struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
}

// Open creates the data directory if needed and opens (or creates) the
// CozoDB database at cfg.DataDir, ensuring the schema exists.
func Open(cfg Config) (*Store, error) {
	engine := cfg.Engine
	if engine == "" {
		engine = "rocksdb"
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("graphstore: DataDir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := cozo.New(engine, cfg.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("open cozodb: %w", err)
	}
	s := &Store{db: &db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.db.Close()
	return nil
}

// rootSub substitutes graph.BulkRootSentinel for graph.RootName, since the
// CSV bulk-import path (unlike :put) rejects an empty-string key.
const rootSub = graph.BulkRootSentinel

// BulkInsertNodes stages every node via the CSV bulk-import path, grouped
// by backing table. Used only for a full-repo index: a dirty/single-file
// index goes through UpsertNodes instead, since :put is cheap at that
// scale and importing relations replaces rather than merges rows.
func (s *Store) BulkInsertNodes(nodes []graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	byTable := map[string]*cozo.RelationData{}
	for _, n := range nodes {
		table := n.Type.Table()
		rd, ok := byTable[table]
		if !ok {
			rd = &cozo.RelationData{Headers: graph.NodeColumns}
			byTable[table] = rd
		}
		rd.Rows = append(rd.Rows, n.Record(rootSub))
	}
	return s.bulkImport(byTable)
}

// BulkInsertEdges stages every edge via the CSV bulk-import path, grouped
// by backing relation table.
func (s *Store) BulkInsertEdges(edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	byTable := map[string]*cozo.RelationData{}
	for _, e := range edges {
		table := e.Table()
		rd, ok := byTable[table]
		if !ok {
			rd = &cozo.RelationData{Headers: graph.EdgeColumns}
			byTable[table] = rd
		}
		rd.Rows = append(rd.Rows, e.Record(rootSub))
	}
	return s.bulkImport(byTable)
}

func (s *Store) bulkImport(byTable map[string]*cozo.RelationData) error {
	payload := make(map[string]cozo.RelationData, len(byTable))
	for table, rd := range byTable {
		payload[table] = *rd
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.BulkImportCSV(payload)
}

// UpsertNodes writes each node with a keyed :put, the Datalog analogue of
// `MERGE ... ON CREATE SET ... ON MATCH SET ...`: the row is created if
// name is new and overwritten in place if it already exists. Used by
// single-file and dirty-buffer indexing, where the per-row transaction
// cost is negligible next to a full-repo bulk import.
func (s *Store) UpsertNodes(nodes []graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		cols := graph.NodeColumns
		vals := n.Record(graph.RootName)
		placeholders, params := boundParams(cols, vals)
		query := fmt.Sprintf(
			`?[%s] <- [[%s]] :put %s { %s }`,
			strings.Join(cols, ", "), strings.Join(placeholders, ", "), n.Type.Table(), strings.Join(cols, ", "),
		)
		if _, err := s.db.Run(query, params); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.Name, err)
		}
	}
	return nil
}

// UpsertEdges writes each edge with a keyed :put.
func (s *Store) UpsertEdges(edges []graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		cols := graph.EdgeColumns
		vals := e.Record(graph.RootName)
		placeholders, params := boundParams(cols, vals)
		query := fmt.Sprintf(
			`?[%s] <- [[%s]] :put %s { %s }`,
			strings.Join(cols, ", "), strings.Join(placeholders, ", "), e.Table(), strings.Join(cols, ", "),
		)
		if _, err := s.db.Run(query, params); err != nil {
			return fmt.Errorf("upsert edge %s->%s: %w", e.From.Name, e.To.Name, err)
		}
	}
	return nil
}

// boundParams names each column's value as a distinct $pN parameter, since
// CozoScript binds one scalar per placeholder rather than a whole row.
func boundParams(cols []string, vals []any) ([]string, map[string]any) {
	placeholders := make([]string, len(cols))
	params := make(map[string]any, len(cols))
	for i := range cols {
		key := fmt.Sprintf("p%d", i)
		placeholders[i] = "$" + key
		if i < len(vals) {
			params[key] = vals[i]
		}
	}
	return placeholders, params
}

// DeleteNodes removes every node under fileName, plus every edge that
// touches one of them, in dependency order: the Datalog analogue of
// `DETACH DELETE`. Used when a dirty buffer or deletion means a file's
// previous definitions no longer hold.
func (s *Store) DeleteNodes(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := fileName + ":"
	for _, rel := range relationTriples {
		table := relationTableName(rel.Type, rel.From, rel.To)
		for _, col := range []string{"from_name", "to_name"} {
			query := fmt.Sprintf(
				`?[from_name, to_name] := *%s{from_name, to_name}, (%s = $file or starts_with(%s, $prefix)) :rm %s {from_name, to_name}`,
				table, col, col, table,
			)
			if _, err := s.db.Run(query, map[string]any{"file": fileName, "prefix": prefix}); err != nil {
				continue // table may legitimately have no matching rows.
			}
		}
	}
	for _, t := range nodeTables {
		table := t.Table()
		query := fmt.Sprintf(
			`?[name] := *%s{name}, (name = $file or starts_with(name, $prefix)) :rm %s {name}`,
			table, table,
		)
		if _, err := s.db.Run(query, map[string]any{"file": fileName, "prefix": prefix}); err != nil {
			continue
		}
	}
	return nil
}

// Clean drops every node and relation table, leaving an empty schema
// behind rather than deleting the database file itself.
func (s *Store) Clean() error {
	s.mu.Lock()
	for _, t := range nodeTables {
		_, _ = s.db.Run("::remove "+t.Table(), nil)
	}
	for _, rel := range relationTriples {
		_, _ = s.db.Run("::remove "+relationTableName(rel.Type, rel.From, rel.To), nil)
	}
	s.mu.Unlock()
	return s.EnsureSchema()
}

// NodesByShortName implements coordinator.StoreLookup: it scans the
// Class, Interface and OtherType tables for rows whose name's trailing symbol matches short,
// case-insensitively, mirroring graph.Node.ShortName.
func (s *Store) NodesByShortName(short string) ([]graph.Node, error) {
	short = strings.ToLower(short)
	var out []graph.Node
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range []graph.NodeType{graph.Class, graph.Interface, graph.OtherType} {
		query := fmt.Sprintf(`?[name, start_line, end_line, language, code, skeleton_code, doc_comment] := *%s{name, start_line, end_line, language, code, skeleton_code, doc_comment}`, t.Table())
		rows, err := s.db.RunReadOnly(query, nil)
		if err != nil {
			continue
		}
		for _, r := range rows.Rows {
			n := rowToNode(r, t)
			if n.ShortName() == short {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// DirectoryExists implements coordinator.StoreLookup.
func (s *Store) DirectoryExists(path string) (bool, error) {
	return s.nodeExists(graph.Directory, path)
}

// FileExists implements coordinator.StoreLookup.
func (s *Store) FileExists(path string) (bool, error) {
	return s.nodeExists(graph.File, path)
}

func (s *Store) nodeExists(t graph.NodeType, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := fmt.Sprintf(`?[name] := *%s{name}, name = $name`, t.Table())
	rows, err := s.db.RunReadOnly(query, map[string]any{"name": name})
	if err != nil {
		return false, err
	}
	return len(rows.Rows) > 0, nil
}

// GetNode returns the node named name, searching every node table since
// its type isn't known ahead of a lookup by name alone.
func (s *Store) GetNode(name string) (graph.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range nodeTables {
		query := fmt.Sprintf(`?[name, start_line, end_line, language, code, skeleton_code, doc_comment] := *%s{name, start_line, end_line, language, code, skeleton_code, doc_comment}, name = $name`, t.Table())
		rows, err := s.db.RunReadOnly(query, map[string]any{"name": name})
		if err != nil || len(rows.Rows) == 0 {
			continue
		}
		return rowToNode(rows.Rows[0], t), true, nil
	}
	return graph.Node{}, false, nil
}

// GetFileTree returns every Directory and File node whose name is rooted
// under prefix (the empty string means the whole repository).
func (s *Store) GetFileTree(prefix string) ([]graph.Node, error) {
	var out []graph.Node
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range []graph.NodeType{graph.Directory, graph.File} {
		query := fmt.Sprintf(`?[name, start_line, end_line, language, code, skeleton_code, doc_comment] := *%s{name, start_line, end_line, language, code, skeleton_code, doc_comment}`, t.Table())
		rows, err := s.db.RunReadOnly(query, nil)
		if err != nil {
			continue
		}
		for _, r := range rows.Rows {
			n := rowToNode(r, t)
			if prefix == "" || n.Name == prefix || strings.HasPrefix(n.Name, prefix+"/") {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// QueryNodes returns every node of the given type whose row satisfies a
// caller-supplied Datalog body fragment bound to $name-style params. It is
// a thin pass-through, not a query builder: callers are expected to know
// the table's column names (matching graph.NodeColumns).
func (s *Store) QueryNodes(t graph.NodeType, whereClause string, params map[string]any) ([]graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := fmt.Sprintf(`?[name, start_line, end_line, language, code, skeleton_code, doc_comment] := *%s{name, start_line, end_line, language, code, skeleton_code, doc_comment}%s`, t.Table(), whereClause)
	rows, err := s.db.RunReadOnly(query, params)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Node, 0, len(rows.Rows))
	for _, r := range rows.Rows {
		out = append(out, rowToNode(r, t))
	}
	return out, nil
}

// QueryEdges returns every edge of the given (type, from, to) triple whose
// row satisfies a caller-supplied Datalog body fragment.
func (s *Store) QueryEdges(edgeType graph.EdgeType, from, to graph.NodeType, whereClause string, params map[string]any) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table := relationTableName(edgeType, from, to)
	query := fmt.Sprintf(`?[from_name, to_name, import, alias] := *%s{from_name, to_name, import, alias}%s`, table, whereClause)
	rows, err := s.db.RunReadOnly(query, params)
	if err != nil {
		return nil, err
	}
	out := make([]graph.Edge, 0, len(rows.Rows))
	for _, r := range rows.Rows {
		out = append(out, rowToEdge(r, edgeType, from, to))
	}
	return out, nil
}

func rowToNode(r []any, t graph.NodeType) graph.Node {
	get := func(i int) string {
		if i >= len(r) || r[i] == nil {
			return ""
		}
		s, _ := r[i].(string)
		return s
	}
	getInt := func(i int) int {
		if i >= len(r) || r[i] == nil {
			return 0
		}
		switch v := r[i].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
		return 0
	}
	name := get(0)
	if name == rootSub {
		name = graph.RootName
	}
	return graph.Node{
		Name:         name,
		Type:         t,
		StartLine:    getInt(1),
		EndLine:      getInt(2),
		Language:     graph.Language(get(3)),
		Code:         get(4),
		SkeletonCode: get(5),
		DocComment:   get(6),
	}
}

func rowToEdge(r []any, edgeType graph.EdgeType, from, to graph.NodeType) graph.Edge {
	get := func(i int) string {
		if i >= len(r) || r[i] == nil {
			return ""
		}
		s, _ := r[i].(string)
		return s
	}
	fromName, toName := get(0), get(1)
	if fromName == rootSub {
		fromName = graph.RootName
	}
	if toName == rootSub {
		toName = graph.RootName
	}
	return graph.Edge{
		Type:   edgeType,
		From:   graph.Endpoint{Name: fromName, Type: from},
		To:     graph.Endpoint{Name: toName, Type: to},
		Import: get(2),
		Alias:  get(3),
	}
}
