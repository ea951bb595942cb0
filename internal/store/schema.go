package store

// schema contains the SQL statements to create the flowatlas database schema.
const schema = `
-- Modules table (tree: parent_id is NULL for roots)
CREATE TABLE IF NOT EXISTS modules (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    parent_id   INTEGER,
    name        TEXT NOT NULL,
    full_path   TEXT NOT NULL UNIQUE,
    depth       INTEGER NOT NULL DEFAULT 0,
    description TEXT,
    is_test     INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (parent_id) REFERENCES modules(id)
);

CREATE INDEX IF NOT EXISTS idx_modules_parent ON modules(parent_id);
CREATE INDEX IF NOT EXISTS idx_modules_full_path ON modules(full_path);

-- Definitions table
CREATE TABLE IF NOT EXISTS definitions (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    name     TEXT NOT NULL,
    kind     TEXT NOT NULL,
    file     TEXT NOT NULL,
    exported INTEGER NOT NULL DEFAULT 0,
    is_test  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name);
CREATE INDEX IF NOT EXISTS idx_definitions_kind ON definitions(kind);
CREATE INDEX IF NOT EXISTS idx_definitions_file ON definitions(file);

-- Module membership (a definition belongs to at most one module)
CREATE TABLE IF NOT EXISTS module_members (
    module_id     INTEGER NOT NULL,
    definition_id INTEGER NOT NULL UNIQUE,
    position      INTEGER NOT NULL,
    PRIMARY KEY (module_id, definition_id),
    FOREIGN KEY (module_id) REFERENCES modules(id),
    FOREIGN KEY (definition_id) REFERENCES definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_module_members_module ON module_members(module_id, position);

-- Call edges table
CREATE TABLE IF NOT EXISTS call_edges (
    from_definition_id INTEGER NOT NULL,
    to_definition_id   INTEGER NOT NULL,
    PRIMARY KEY (from_definition_id, to_definition_id),
    FOREIGN KEY (from_definition_id) REFERENCES definitions(id),
    FOREIGN KEY (to_definition_id) REFERENCES definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_call_edges_from ON call_edges(from_definition_id);
CREATE INDEX IF NOT EXISTS idx_call_edges_to ON call_edges(to_definition_id);

-- Aspect metadata: key/value annotations on definitions
CREATE TABLE IF NOT EXISTS aspect_metadata (
    definition_id INTEGER NOT NULL,
    key           TEXT NOT NULL,
    value         TEXT NOT NULL,
    PRIMARY KEY (definition_id, key),
    FOREIGN KEY (definition_id) REFERENCES definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_aspect_metadata_key ON aspect_metadata(key);

-- Module-to-module interactions with provenance
CREATE TABLE IF NOT EXISTS interactions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    from_module_id INTEGER NOT NULL,
    to_module_id   INTEGER NOT NULL,
    origin         TEXT NOT NULL,
    weight         INTEGER NOT NULL DEFAULT 1,
    semantic       TEXT,
    FOREIGN KEY (from_module_id) REFERENCES modules(id),
    FOREIGN KEY (to_module_id) REFERENCES modules(id)
);

CREATE INDEX IF NOT EXISTS idx_interactions_from ON interactions(from_module_id);
CREATE INDEX IF NOT EXISTS idx_interactions_pair ON interactions(from_module_id, to_module_id);
CREATE INDEX IF NOT EXISTS idx_interactions_origin ON interactions(origin);

-- Persisted flows (regenerated wholesale, never mutated in place)
CREATE TABLE IF NOT EXISTS flows (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    slug      TEXT NOT NULL,
    entry_def INTEGER NOT NULL,
    payload   TEXT NOT NULL,
    FOREIGN KEY (entry_def) REFERENCES definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_flows_slug ON flows(slug);

-- Metadata table for store-level info
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`
