package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles persistence of the indexed graph to SQLite.
type Store struct {
	db      *sql.DB
	dbPath  string
	baseDir string // Project root directory
}

// Open creates or opens a flowatlas index database.
// By default, stores at .flowatlas/index.db relative to the given project directory.
func Open(projectDir string) (*Store, error) {
	atlasDir := filepath.Join(projectDir, ".flowatlas")
	if err := os.MkdirAll(atlasDir, 0755); err != nil {
		return nil, fmt.Errorf("creating .flowatlas directory: %w", err)
	}

	dbPath := filepath.Join(atlasDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		db:      db,
		dbPath:  dbPath,
		baseDir: projectDir,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// Clear removes all data from the database (for re-ingesting).
func (s *Store) Clear() error {
	tables := []string{"flows", "aspect_metadata", "interactions", "call_edges", "module_members", "definitions", "modules", "metadata"}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return nil
}

// InsertModule inserts a module and returns its ID.
func (s *Store) InsertModule(m *Module) (ModuleID, error) {
	var parent interface{}
	if m.ParentID != 0 {
		parent = int64(m.ParentID)
	}
	result, err := s.db.Exec(`
		INSERT INTO modules (parent_id, name, full_path, depth, description, is_test)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_path) DO UPDATE SET
			parent_id = excluded.parent_id,
			name = excluded.name,
			depth = excluded.depth,
			description = excluded.description,
			is_test = excluded.is_test
	`, parent, m.Name, m.FullPath, m.Depth, m.Description, m.IsTest)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return s.GetModuleID(m.FullPath)
	}
	return ModuleID(id), nil
}

// GetModuleID looks up a module's ID by its full path.
func (s *Store) GetModuleID(fullPath string) (ModuleID, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM modules WHERE full_path = ?", fullPath).Scan(&id)
	if err != nil {
		return 0, err
	}
	return ModuleID(id), nil
}

// InsertDefinition inserts a definition and returns its ID.
func (s *Store) InsertDefinition(d *Definition) (DefID, error) {
	result, err := s.db.Exec(`
		INSERT INTO definitions (name, kind, file, exported, is_test)
		VALUES (?, ?, ?, ?, ?)
	`, d.Name, d.Kind, d.File, d.Exported, d.IsTest)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return DefID(id), err
}

// InsertModuleMember links a definition into a module at the given position.
func (s *Store) InsertModuleMember(moduleID ModuleID, m *ModuleMember) error {
	_, err := s.db.Exec(`
		INSERT INTO module_members (module_id, definition_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT(module_id, definition_id) DO UPDATE SET
			position = excluded.position
	`, moduleID, m.DefID, m.Position)
	return err
}

// InsertCallEdge inserts a call edge. Duplicate edges are ignored.
func (s *Store) InsertCallEdge(edge *CallEdge) error {
	_, err := s.db.Exec(`
		INSERT INTO call_edges (from_definition_id, to_definition_id)
		VALUES (?, ?)
		ON CONFLICT(from_definition_id, to_definition_id) DO NOTHING
	`, edge.FromDefID, edge.ToDefID)
	return err
}

// InsertInteraction inserts a module interaction and returns its ID.
func (s *Store) InsertInteraction(in *Interaction) (InteractionID, error) {
	result, err := s.db.Exec(`
		INSERT INTO interactions (from_module_id, to_module_id, origin, weight, semantic)
		VALUES (?, ?, ?, ?, ?)
	`, in.FromModuleID, in.ToModuleID, in.Origin, in.Weight, in.Semantic)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return InteractionID(id), err
}

// SetAspect attaches or replaces an aspect value on a definition.
func (s *Store) SetAspect(defID DefID, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO aspect_metadata (definition_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(definition_id, key) DO UPDATE SET value = excluded.value
	`, defID, key, value)
	return err
}

// GetAspect retrieves an aspect value for a definition.
// The second return is false when no value is attached.
func (s *Store) GetAspect(defID DefID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`
		SELECT value FROM aspect_metadata WHERE definition_id = ? AND key = ?
	`, defID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ListAspectKeys returns every distinct aspect key observed in metadata.
func (s *Store) ListAspectKeys() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT key FROM aspect_metadata ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ListAspectEntries returns every aspect entry in the store.
func (s *Store) ListAspectEntries() ([]AspectEntry, error) {
	rows, err := s.db.Query("SELECT definition_id, key, value FROM aspect_metadata ORDER BY definition_id, key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AspectEntry
	for rows.Next() {
		var e AspectEntry
		if err := rows.Scan(&e.DefID, &e.Key, &e.Value); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetCallees returns the outgoing call adjacency for a definition,
// in insertion order.
func (s *Store) GetCallees(defID DefID) ([]DefID, error) {
	rows, err := s.db.Query(`
		SELECT to_definition_id FROM call_edges
		WHERE from_definition_id = ?
		ORDER BY rowid
	`, defID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var callees []DefID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		callees = append(callees, DefID(id))
	}
	return callees, rows.Err()
}

// ListCallEdges returns every call edge in the store, in insertion order.
func (s *Store) ListCallEdges() ([]CallEdge, error) {
	rows, err := s.db.Query("SELECT from_definition_id, to_definition_id FROM call_edges ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []CallEdge
	for rows.Next() {
		var e CallEdge
		if err := rows.Scan(&e.FromDefID, &e.ToDefID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ListDefinitions returns every definition in the store.
func (s *Store) ListDefinitions() ([]Definition, error) {
	rows, err := s.db.Query("SELECT id, name, kind, file, exported, is_test FROM definitions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind, &d.File, &d.Exported, &d.IsTest); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// GetAllModulesWithMembers returns every module with its ordered members.
func (s *Store) GetAllModulesWithMembers() ([]ModuleWithMembers, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(parent_id, 0), name, full_path, depth, COALESCE(description, ''), is_test
		FROM modules ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []ModuleWithMembers
	byID := make(map[ModuleID]int)
	for rows.Next() {
		var m ModuleWithMembers
		if err := rows.Scan(&m.ID, &m.ParentID, &m.Name, &m.FullPath, &m.Depth, &m.Description, &m.IsTest); err != nil {
			return nil, err
		}
		byID[m.ID] = len(modules)
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := s.db.Query(`
		SELECT mm.module_id, mm.definition_id, d.name, d.kind, mm.position
		FROM module_members mm
		JOIN definitions d ON d.id = mm.definition_id
		ORDER BY mm.module_id, mm.position
	`)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var moduleID ModuleID
		var member ModuleMember
		if err := memberRows.Scan(&moduleID, &member.DefID, &member.Name, &member.Kind, &member.Position); err != nil {
			return nil, err
		}
		if idx, ok := byID[moduleID]; ok {
			modules[idx].Members = append(modules[idx].Members, member)
		}
	}
	return modules, memberRows.Err()
}

// ListInteractions returns every module interaction.
func (s *Store) ListInteractions() ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, from_module_id, to_module_id, origin, weight, COALESCE(semantic, '')
		FROM interactions ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.FromModuleID, &in.ToModuleID, &in.Origin, &in.Weight, &in.Semantic); err != nil {
			return nil, err
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// FlowRecord is a persisted flow row. Payload carries the full flow
// structure as JSON; the remaining columns exist for lookup.
type FlowRecord struct {
	ID       string
	Name     string
	Slug     string
	EntryDef DefID
	Payload  string
}

// ReplaceFlows atomically replaces all persisted flows with the given set.
// Flows are derived artifacts: they are regenerated, never updated in place.
func (s *Store) ReplaceFlows(records []FlowRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM flows"); err != nil {
		return fmt.Errorf("clearing flows: %w", err)
	}
	for _, r := range records {
		_, err := tx.Exec(`
			INSERT INTO flows (id, name, slug, entry_def, payload)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, r.Name, r.Slug, r.EntryDef, r.Payload)
		if err != nil {
			return fmt.Errorf("inserting flow %s: %w", r.Slug, err)
		}
	}
	return tx.Commit()
}

// ListFlowRecords returns all persisted flows.
func (s *Store) ListFlowRecords() ([]FlowRecord, error) {
	rows, err := s.db.Query("SELECT id, name, slug, entry_def, payload FROM flows ORDER BY slug")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FlowRecord
	for rows.Next() {
		var r FlowRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug, &r.EntryDef, &r.Payload); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetMetadata stores a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

// Stats holds statistics about the stored graph.
type Stats struct {
	ModuleCount      int       `json:"module_count"`
	DefinitionCount  int       `json:"definition_count"`
	CallEdgeCount    int       `json:"call_edge_count"`
	InteractionCount int       `json:"interaction_count"`
	AspectCount      int       `json:"aspect_count"`
	FlowCount        int       `json:"flow_count"`
	IngestedAt       time.Time `json:"ingested_at"`
}

// GetStats returns statistics about the stored graph.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	rows := []struct {
		table string
		dest  *int
	}{
		{"modules", &stats.ModuleCount},
		{"definitions", &stats.DefinitionCount},
		{"call_edges", &stats.CallEdgeCount},
		{"interactions", &stats.InteractionCount},
		{"aspect_metadata", &stats.AspectCount},
		{"flows", &stats.FlowCount},
	}

	for _, r := range rows {
		err := s.db.QueryRow("SELECT COUNT(*) FROM " + r.table).Scan(r.dest)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", r.table, err)
		}
	}

	if ts, err := s.GetMetadata("ingested_at"); err == nil {
		stats.IngestedAt, _ = time.Parse(time.RFC3339, ts)
	}

	return stats, nil
}

// Tx returns the underlying database for advanced queries.
// Use with caution - prefer adding methods to Store instead.
func (s *Store) Tx() *sql.DB {
	return s.db
}

// BeginBatch starts a transaction for batch inserts.
// Call Commit() when done, or Rollback() on error.
func (s *Store) BeginBatch() (*BatchTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &BatchTx{tx: tx}, nil
}

// BatchTx wraps a transaction for batch operations.
type BatchTx struct {
	tx *sql.Tx
}

// Commit commits the batch transaction.
func (b *BatchTx) Commit() error {
	return b.tx.Commit()
}

// Rollback rolls back the batch transaction.
func (b *BatchTx) Rollback() error {
	return b.tx.Rollback()
}

// InsertModule inserts a module within the batch and returns its ID.
func (b *BatchTx) InsertModule(m *Module) (ModuleID, error) {
	var parent interface{}
	if m.ParentID != 0 {
		parent = int64(m.ParentID)
	}
	result, err := b.tx.Exec(`
		INSERT INTO modules (parent_id, name, full_path, depth, description, is_test)
		VALUES (?, ?, ?, ?, ?, ?)
	`, parent, m.Name, m.FullPath, m.Depth, m.Description, m.IsTest)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return ModuleID(id), err
}

// InsertDefinition inserts a definition within the batch and returns its ID.
func (b *BatchTx) InsertDefinition(d *Definition) (DefID, error) {
	result, err := b.tx.Exec(`
		INSERT INTO definitions (name, kind, file, exported, is_test)
		VALUES (?, ?, ?, ?, ?)
	`, d.Name, d.Kind, d.File, d.Exported, d.IsTest)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return DefID(id), err
}

// InsertModuleMember links a definition into a module within the batch.
func (b *BatchTx) InsertModuleMember(moduleID ModuleID, m *ModuleMember) error {
	_, err := b.tx.Exec(`
		INSERT INTO module_members (module_id, definition_id, position)
		VALUES (?, ?, ?)
	`, moduleID, m.DefID, m.Position)
	return err
}

// InsertCallEdge inserts a call edge within the batch.
func (b *BatchTx) InsertCallEdge(edge *CallEdge) error {
	_, err := b.tx.Exec(`
		INSERT INTO call_edges (from_definition_id, to_definition_id)
		VALUES (?, ?)
		ON CONFLICT(from_definition_id, to_definition_id) DO NOTHING
	`, edge.FromDefID, edge.ToDefID)
	return err
}

// InsertInteraction inserts an interaction within the batch and returns its ID.
func (b *BatchTx) InsertInteraction(in *Interaction) (InteractionID, error) {
	result, err := b.tx.Exec(`
		INSERT INTO interactions (from_module_id, to_module_id, origin, weight, semantic)
		VALUES (?, ?, ?, ?, ?)
	`, in.FromModuleID, in.ToModuleID, in.Origin, in.Weight, in.Semantic)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return InteractionID(id), err
}

// SetAspect attaches an aspect value within the batch.
func (b *BatchTx) SetAspect(defID DefID, key, value string) error {
	_, err := b.tx.Exec(`
		INSERT INTO aspect_metadata (definition_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(definition_id, key) DO UPDATE SET value = excluded.value
	`, defID, key, value)
	return err
}
