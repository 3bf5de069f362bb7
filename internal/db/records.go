package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thorbis/fieldsync/internal/models"
)

// Ack pairs a record with the server sequence assigned to it.
type Ack struct {
	RecordID  string
	ServerSeq int64
}

// RecordFilters narrows a GetRecords query.
type RecordFilters struct {
	Synced         *bool
	OrganizationID string
	Since          time.Time
	Limit          int
}

// PutRecord inserts a record and bumps the store's pending counter in
// the same transaction. The record's ID is generated when empty and
// Synced is always persisted as false.
func (db *DB) PutRecord(rec *models.Record) error {
	return db.withWriteLock(func() error {
		if rec.ID == "" {
			id, err := generateRecordID()
			if err != nil {
				return err
			}
			rec.ID = id
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		rec.Synced = false
		rec.SyncedAt = nil

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO records (id, store, organization_id, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, rec.Store, rec.OrganizationID, string(rec.Payload), rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		if err := bumpPending(tx, rec.Store, 1); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetRecords returns records from a store, newest first.
func (db *DB) GetRecords(store models.Store, filters RecordFilters) ([]models.Record, error) {
	query := `SELECT id, store, organization_id, payload, created_at, synced_at, server_seq
	          FROM records WHERE store = ?`
	args := []any{store}

	if filters.Synced != nil {
		if *filters.Synced {
			query += " AND synced_at IS NOT NULL"
		} else {
			query += " AND synced_at IS NULL"
		}
	}
	if filters.OrganizationID != "" {
		query += " AND organization_id = ?"
		args = append(args, filters.OrganizationID)
	}
	if !filters.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filters.Since)
	}

	query += " ORDER BY created_at DESC, rowid DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// PendingRecords returns unsynced records across all stores in insertion
// order, capped at limit (0 = no cap). This is the push queue.
func (db *DB) PendingRecords(limit int) ([]models.Record, error) {
	query := `SELECT id, store, organization_id, payload, created_at, synced_at, server_seq
	          FROM records WHERE synced_at IS NULL ORDER BY rowid ASC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// MarkSynced flips acknowledged records to synced and decrements the
// pending counter of each affected store, all in one transaction.
// Records already synced (or unknown) are skipped without error so
// duplicate acks from a re-push are harmless.
func (db *DB) MarkSynced(acks []Ack) error {
	if len(acks) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		now := time.Now().UTC()
		for _, ack := range acks {
			var store models.Store
			err := tx.QueryRow(`SELECT store FROM records WHERE id = ? AND synced_at IS NULL`, ack.RecordID).Scan(&store)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return fmt.Errorf("lookup record %s: %w", ack.RecordID, err)
			}

			if _, err := tx.Exec(
				`UPDATE records SET synced_at = ?, server_seq = ? WHERE id = ?`,
				now, ack.ServerSeq, ack.RecordID,
			); err != nil {
				return fmt.Errorf("mark synced %s: %w", ack.RecordID, err)
			}
			if err := bumpPending(tx, store, -1); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// PendingCounts reads the incrementally maintained per-store counters.
func (db *DB) PendingCounts() (map[models.Store]int, error) {
	rows, err := db.conn.Query(`SELECT store, pending FROM pending_counts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Store]int)
	for _, s := range models.Stores() {
		counts[s] = 0
	}
	for rows.Next() {
		var store models.Store
		var pending int
		if err := rows.Scan(&store, &pending); err != nil {
			return nil, err
		}
		counts[store] = pending
	}
	return counts, rows.Err()
}

// RecountPending rescans the records table, rewrites the counters, and
// returns the recomputed counts. Used at startup to reconcile counters
// after a crash mid-transaction and by tests to verify the incremental
// bookkeeping.
func (db *DB) RecountPending() (map[models.Store]int, error) {
	counts := make(map[models.Store]int)
	err := db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		rows, err := tx.Query(`SELECT store, COUNT(*) FROM records WHERE synced_at IS NULL GROUP BY store`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var store models.Store
			var n int
			if err := rows.Scan(&store, &n); err != nil {
				rows.Close()
				return err
			}
			counts[store] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, store := range models.Stores() {
			if _, err := tx.Exec(`
				INSERT INTO pending_counts (store, pending) VALUES (?, ?)
				ON CONFLICT(store) DO UPDATE SET pending = excluded.pending
			`, store, counts[store]); err != nil {
				return fmt.Errorf("rewrite counter %s: %w", store, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	for _, s := range models.Stores() {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return counts, nil
}

// DeleteSynced removes acknowledged records from a store. Payments are
// pruned this way after every successful sync; other stores keep their
// synced rows for local querying.
func (db *DB) DeleteSynced(store models.Store) (int64, error) {
	var affected int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`DELETE FROM records WHERE store = ? AND synced_at IS NOT NULL`, store)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	return affected, err
}

// ClearStore removes every record in a store and resets its counter.
func (db *DB) ClearStore(store models.Store) error {
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM records WHERE store = ?`, store); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO pending_counts (store, pending) VALUES (?, 0)
			ON CONFLICT(store) DO UPDATE SET pending = 0
		`, store); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// bumpPending adjusts a store's pending counter inside a transaction.
func bumpPending(tx *sql.Tx, store models.Store, delta int) error {
	_, err := tx.Exec(`
		INSERT INTO pending_counts (store, pending) VALUES (?, MAX(0, ?))
		ON CONFLICT(store) DO UPDATE SET pending = MAX(0, pending + ?)
	`, store, delta, delta)
	if err != nil {
		return fmt.Errorf("bump counter %s: %w", store, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var records []models.Record
	for rows.Next() {
		var rec models.Record
		var payload string
		var syncedAt sql.NullTime
		var serverSeq sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Store, &rec.OrganizationID, &payload, &rec.CreatedAt, &syncedAt, &serverSeq); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		if syncedAt.Valid {
			rec.Synced = true
			rec.SyncedAt = &syncedAt.Time
		}
		if serverSeq.Valid {
			rec.ServerSeq = serverSeq.Int64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
