package serverdb

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *ServerDB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	db, err := New(conn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(deviceID, recordID, store string) LogRecord {
	return LogRecord{
		DeviceID:  deviceID,
		RecordID:  recordID,
		Store:     store,
		Payload:   `{"k":"v"}`,
		CreatedAt: "2026-08-26T10:00:00Z",
	}
}

func TestIngestAssignsIncreasingSeqs(t *testing.T) {
	db := setupDB(t)

	first, err := db.IngestRecord(testRecord("dev-1", "rec-a", "payments"))
	if err != nil {
		t.Fatalf("IngestRecord: %v", err)
	}
	second, err := db.IngestRecord(testRecord("dev-1", "rec-b", "inventory"))
	if err != nil {
		t.Fatalf("IngestRecord: %v", err)
	}

	if first.Duplicate || second.Duplicate {
		t.Error("fresh records marked duplicate")
	}
	if second.Seq <= first.Seq {
		t.Errorf("seqs not increasing: %d then %d", first.Seq, second.Seq)
	}
}

func TestIngestDuplicateReturnsExistingSeq(t *testing.T) {
	db := setupDB(t)

	first, err := db.IngestRecord(testRecord("dev-1", "rec-a", "payments"))
	if err != nil {
		t.Fatalf("IngestRecord: %v", err)
	}

	again, err := db.IngestRecord(testRecord("dev-1", "rec-a", "payments"))
	if err != nil {
		t.Fatalf("re-push errored: %v", err)
	}
	if !again.Duplicate {
		t.Error("re-push not flagged duplicate")
	}
	if again.Seq != first.Seq {
		t.Errorf("duplicate seq %d, want original %d", again.Seq, first.Seq)
	}

	// Same record ID from another device is a distinct record.
	other, err := db.IngestRecord(testRecord("dev-2", "rec-a", "payments"))
	if err != nil {
		t.Fatalf("IngestRecord other device: %v", err)
	}
	if other.Duplicate || other.Seq == first.Seq {
		t.Errorf("other device should get a fresh seq, got %+v", other)
	}
}

func TestIngestRequiresKeys(t *testing.T) {
	db := setupDB(t)

	if _, err := db.IngestRecord(LogRecord{RecordID: "rec-a"}); err == nil {
		t.Error("missing device_id should error")
	}
	if _, err := db.IngestRecord(LogRecord{DeviceID: "dev-1"}); err == nil {
		t.Error("missing record_id should error")
	}
}

func TestStatusForDevice(t *testing.T) {
	db := setupDB(t)

	empty, err := db.StatusForDevice("dev-unknown")
	if err != nil {
		t.Fatalf("StatusForDevice: %v", err)
	}
	if empty.RecordCount != 0 || empty.LastSeq != 0 {
		t.Errorf("unknown device should be zero, got %+v", empty)
	}

	db.IngestRecord(testRecord("dev-1", "rec-a", "payments"))
	last, _ := db.IngestRecord(testRecord("dev-1", "rec-b", "photos"))
	db.IngestRecord(testRecord("dev-2", "rec-c", "payments"))

	st, err := db.StatusForDevice("dev-1")
	if err != nil {
		t.Fatalf("StatusForDevice: %v", err)
	}
	if st.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", st.RecordCount)
	}
	if st.LastSeq != last.Seq {
		t.Errorf("LastSeq = %d, want %d", st.LastSeq, last.Seq)
	}
	if st.LastRecordTime == "" {
		t.Error("LastRecordTime missing")
	}
}

func TestRecordsByStore(t *testing.T) {
	db := setupDB(t)

	db.IngestRecord(testRecord("dev-1", "rec-a", "payments"))
	db.IngestRecord(testRecord("dev-1", "rec-b", "payments"))
	db.IngestRecord(testRecord("dev-2", "rec-c", "work_orders"))

	counts, err := db.RecordsByStore()
	if err != nil {
		t.Fatalf("RecordsByStore: %v", err)
	}
	if counts["payments"] != 2 || counts["work_orders"] != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := setupDB(t)

	n, err := db.RunMigrations()
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if n != 0 {
		t.Errorf("re-running migrations applied %d steps", n)
	}
}
