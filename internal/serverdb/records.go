package serverdb

import (
	"database/sql"
	"fmt"
	"time"
)

// LogRecord is a record as received from a device.
type LogRecord struct {
	DeviceID       string
	RecordID       string
	Store          string
	OrganizationID string
	Payload        string
	CreatedAt      string
}

// IngestResult reports how a pushed record landed.
type IngestResult struct {
	Seq       int64
	Duplicate bool
}

// IngestRecord appends a record to the log. Re-pushing a record the
// server already holds is not an error: the existing seq comes back
// with Duplicate set, so devices can ack and stop retrying.
func (db *ServerDB) IngestRecord(rec LogRecord) (IngestResult, error) {
	if rec.DeviceID == "" || rec.RecordID == "" {
		return IngestResult{}, fmt.Errorf("device_id and record_id are required")
	}

	res, err := db.conn.Exec(`
		INSERT INTO record_log (device_id, record_id, store, organization_id, payload, created_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, record_id) DO NOTHING`,
		rec.DeviceID, rec.RecordID, rec.Store, rec.OrganizationID, rec.Payload, rec.CreatedAt,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return IngestResult{}, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		seq, err := res.LastInsertId()
		if err != nil {
			return IngestResult{}, fmt.Errorf("last insert id: %w", err)
		}
		return IngestResult{Seq: seq}, nil
	}

	var seq int64
	err = db.conn.QueryRow(
		`SELECT seq FROM record_log WHERE device_id = ? AND record_id = ?`,
		rec.DeviceID, rec.RecordID).Scan(&seq)
	if err != nil {
		return IngestResult{}, fmt.Errorf("lookup duplicate seq: %w", err)
	}
	return IngestResult{Seq: seq, Duplicate: true}, nil
}

// DeviceStatus summarizes what the server holds for one device.
type DeviceStatus struct {
	RecordCount    int64
	LastSeq        int64
	LastRecordTime string
}

// StatusForDevice reports record count, highest seq, and newest
// receive time for a device. A device the server has never seen
// yields zeroes.
func (db *ServerDB) StatusForDevice(deviceID string) (*DeviceStatus, error) {
	var st DeviceStatus
	var lastTime sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(seq), 0), MAX(received_at)
		FROM record_log WHERE device_id = ?`, deviceID).
		Scan(&st.RecordCount, &st.LastSeq, &lastTime)
	if err != nil {
		return nil, fmt.Errorf("device status: %w", err)
	}
	if lastTime.Valid {
		st.LastRecordTime = lastTime.String
	}
	return &st, nil
}

// RecordsByStore counts log entries per store across all devices.
func (db *ServerDB) RecordsByStore() (map[string]int64, error) {
	rows, err := db.conn.Query(`SELECT store, COUNT(*) FROM record_log GROUP BY store`)
	if err != nil {
		return nil, fmt.Errorf("count by store: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var store string
		var n int64
		if err := rows.Scan(&store, &n); err != nil {
			return nil, fmt.Errorf("scan store count: %w", err)
		}
		counts[store] = n
	}
	return counts, rows.Err()
}
