package serverdb

// ServerSchemaVersion is the current server schema version.
const ServerSchemaVersion = 2

// serverSchema is the base schema applied to fresh databases.
const serverSchema = `
CREATE TABLE IF NOT EXISTS record_log (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    device_id       TEXT NOT NULL,
    record_id       TEXT NOT NULL,
    store           TEXT NOT NULL,
    organization_id TEXT NOT NULL DEFAULT '',
    payload         TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    received_at     TEXT NOT NULL,
    UNIQUE(device_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_record_log_device ON record_log(device_id);

CREATE TABLE IF NOT EXISTS schema_info (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration is a single schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations lists schema changes beyond the base schema, in order.
var Migrations = []Migration{
	{
		Version:     2,
		Description: "index record_log by store for status queries",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_record_log_store ON record_log(store);`,
	},
}
