package db

// SchemaVersion is the schema version created by a fresh Initialize.
const SchemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id              TEXT PRIMARY KEY,
    store           TEXT NOT NULL,
    organization_id TEXT NOT NULL DEFAULT '',
    payload         JSON NOT NULL,
    created_at      DATETIME NOT NULL,
    synced_at       DATETIME,
    server_seq      INTEGER
);

CREATE INDEX IF NOT EXISTS idx_records_store_pending ON records(store, synced_at);

-- Incrementally maintained unsynced-record counts, one row per store.
-- Updated in the same transaction as every record write and mark-synced
-- so reads never need a full table scan.
CREATE TABLE IF NOT EXISTS pending_counts (
    store   TEXT PRIMARY KEY,
    pending INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_state (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    last_sync_at    DATETIME,
    last_pushed_seq INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_info (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration represents a single schema migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations contains all schema migrations in order.
// Fresh databases get the full schema above; existing databases are
// brought forward one version at a time.
var Migrations = []Migration{
	{
		Version:     2,
		Description: "index records by organization for portal queries",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_records_org ON records(organization_id, store);`,
	},
}
