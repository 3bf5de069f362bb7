package db

import (
	"database/sql"
	"time"
)

// SyncState tracks the last successful push.
type SyncState struct {
	LastSyncAt    *time.Time
	LastPushedSeq int64
}

// GetSyncState returns the current sync state. A fresh database has a
// zero state rather than an error.
func (db *DB) GetSyncState() (*SyncState, error) {
	var s SyncState
	var lastSync sql.NullTime

	err := db.conn.QueryRow(`SELECT last_sync_at, last_pushed_seq FROM sync_state WHERE id = 1`).
		Scan(&lastSync, &s.LastPushedSeq)
	if err == sql.ErrNoRows {
		return &SyncState{}, nil
	}
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		s.LastSyncAt = &lastSync.Time
	}
	return &s, nil
}

// SetLastSync records a completed sync and the highest acked server seq.
func (db *DB) SetLastSync(at time.Time, lastPushedSeq int64) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO sync_state (id, last_sync_at, last_pushed_seq) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET last_sync_at = excluded.last_sync_at,
			                              last_pushed_seq = MAX(last_pushed_seq, excluded.last_pushed_seq)
		`, at.UTC(), lastPushedSeq)
		return err
	})
}
