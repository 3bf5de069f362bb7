package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/thorbis/fieldsync/internal/models"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func putRecord(t *testing.T, db *DB, store models.Store, payload string) *models.Record {
	t.Helper()
	rec := &models.Record{
		Store:          store,
		OrganizationID: "org-1",
		Payload:        json.RawMessage(payload),
	}
	if err := db.PutRecord(rec); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	return rec
}

func TestOpenReconcilesDriftedCounters(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	putRecord(t, db, models.StorePayments, `{}`)
	putRecord(t, db, models.StorePayments, `{}`)
	putRecord(t, db, models.StorePhotos, `{}`)

	// Simulate a crash that left the counters out of step with the
	// records table.
	if _, err := db.Conn().Exec(`UPDATE pending_counts SET pending = 99 WHERE store = 'payments'`); err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	counts, err := reopened.PendingCounts()
	if err != nil {
		t.Fatalf("PendingCounts: %v", err)
	}
	if counts[models.StorePayments] != 2 {
		t.Errorf("payments counter = %d after reopen, want recount to 2", counts[models.StorePayments])
	}
	if counts[models.StorePhotos] != 1 {
		t.Errorf("photos counter = %d after reopen, want 1", counts[models.StorePhotos])
	}
}

func TestPutRecordGeneratesIDAndStartsUnsynced(t *testing.T) {
	db := setupDB(t)

	rec := putRecord(t, db, models.StorePayments, `{"amount":"12.50"}`)
	if rec.ID == "" {
		t.Fatal("expected generated ID")
	}
	if rec.Synced {
		t.Error("new record must start unsynced")
	}

	got, err := db.GetRecords(models.StorePayments, RecordFilters{})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("expected 1 record with id %s, got %+v", rec.ID, got)
	}
	if got[0].Synced || got[0].SyncedAt != nil {
		t.Error("stored record must be unsynced")
	}
}

func TestPendingCountersTrackWritesAndAcks(t *testing.T) {
	db := setupDB(t)

	putRecord(t, db, models.StorePayments, `{}`)
	p2 := putRecord(t, db, models.StorePayments, `{}`)
	putRecord(t, db, models.StoreInventory, `{}`)

	counts, err := db.PendingCounts()
	if err != nil {
		t.Fatalf("PendingCounts: %v", err)
	}
	if counts[models.StorePayments] != 2 || counts[models.StoreInventory] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if counts[models.StoreDocuments] != 0 {
		t.Errorf("untouched store should read 0, got %d", counts[models.StoreDocuments])
	}

	if err := db.MarkSynced([]Ack{{RecordID: p2.ID, ServerSeq: 7}}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	counts, err = db.PendingCounts()
	if err != nil {
		t.Fatalf("PendingCounts: %v", err)
	}
	if counts[models.StorePayments] != 1 {
		t.Fatalf("expected payments pending 1 after ack, got %d", counts[models.StorePayments])
	}

	// Duplicate ack is a no-op, not a double decrement.
	if err := db.MarkSynced([]Ack{{RecordID: p2.ID, ServerSeq: 7}}); err != nil {
		t.Fatalf("MarkSynced duplicate: %v", err)
	}
	counts, _ = db.PendingCounts()
	if counts[models.StorePayments] != 1 {
		t.Fatalf("duplicate ack changed counter: %v", counts)
	}
}

func TestIncrementalCountersAgreeWithRecount(t *testing.T) {
	db := setupDB(t)

	var recs []*models.Record
	for _, store := range models.Stores() {
		recs = append(recs, putRecord(t, db, store, `{}`))
		recs = append(recs, putRecord(t, db, store, `{}`))
	}
	if err := db.MarkSynced([]Ack{{RecordID: recs[0].ID, ServerSeq: 1}, {RecordID: recs[3].ID, ServerSeq: 2}}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	incremental, err := db.PendingCounts()
	if err != nil {
		t.Fatalf("PendingCounts: %v", err)
	}
	recounted, err := db.RecountPending()
	if err != nil {
		t.Fatalf("RecountPending: %v", err)
	}
	for _, store := range models.Stores() {
		if incremental[store] != recounted[store] {
			t.Errorf("store %s: incremental %d != recount %d", store, incremental[store], recounted[store])
		}
	}
}

func TestPendingRecordsOrderAndMarkSynced(t *testing.T) {
	db := setupDB(t)

	first := putRecord(t, db, models.StoreWorkOrders, `{"n":1}`)
	second := putRecord(t, db, models.StorePhotos, `{"n":2}`)

	pending, err := db.PendingRecords(0)
	if err != nil {
		t.Fatalf("PendingRecords: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("expected insertion order [%s %s], got %+v", first.ID, second.ID, pending)
	}

	if err := db.MarkSynced([]Ack{{RecordID: first.ID, ServerSeq: 10}, {RecordID: second.ID, ServerSeq: 11}}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = db.PendingRecords(0)
	if err != nil {
		t.Fatalf("PendingRecords: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}

	synced := true
	got, err := db.GetRecords(models.StoreWorkOrders, RecordFilters{Synced: &synced})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(got) != 1 || got[0].ServerSeq != 10 || got[0].SyncedAt == nil {
		t.Fatalf("expected synced record with seq 10, got %+v", got)
	}
}

func TestGetRecordsFilters(t *testing.T) {
	db := setupDB(t)

	old := &models.Record{
		Store:          models.StoreCustomers,
		OrganizationID: "org-a",
		Payload:        json.RawMessage(`{}`),
		CreatedAt:      time.Now().Add(-2 * time.Hour),
	}
	if err := db.PutRecord(old); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	fresh := putRecord(t, db, models.StoreCustomers, `{}`)

	got, err := db.GetRecords(models.StoreCustomers, RecordFilters{Since: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("Since filter failed: %+v", got)
	}

	got, err = db.GetRecords(models.StoreCustomers, RecordFilters{OrganizationID: "org-a"})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(got) != 1 || got[0].ID != old.ID {
		t.Fatalf("org filter failed: %+v", got)
	}

	got, err = db.GetRecords(models.StoreCustomers, RecordFilters{Limit: 1})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("limit failed: %+v", got)
	}
}

func TestDeleteSyncedAndClearStore(t *testing.T) {
	db := setupDB(t)

	keep := putRecord(t, db, models.StorePayments, `{}`)
	gone := putRecord(t, db, models.StorePayments, `{}`)
	if err := db.MarkSynced([]Ack{{RecordID: gone.ID, ServerSeq: 3}}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	n, err := db.DeleteSynced(models.StorePayments)
	if err != nil {
		t.Fatalf("DeleteSynced: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned record, got %d", n)
	}
	got, _ := db.GetRecords(models.StorePayments, RecordFilters{})
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("unsynced record should survive prune: %+v", got)
	}

	if err := db.ClearStore(models.StorePayments); err != nil {
		t.Fatalf("ClearStore: %v", err)
	}
	got, _ = db.GetRecords(models.StorePayments, RecordFilters{})
	if len(got) != 0 {
		t.Fatalf("ClearStore left records: %+v", got)
	}
	counts, _ := db.PendingCounts()
	if counts[models.StorePayments] != 0 {
		t.Fatalf("ClearStore left counter at %d", counts[models.StorePayments])
	}
}

func TestSyncState(t *testing.T) {
	db := setupDB(t)

	state, err := db.GetSyncState()
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if state.LastSyncAt != nil || state.LastPushedSeq != 0 {
		t.Fatalf("fresh db should have zero state, got %+v", state)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := db.SetLastSync(at, 42); err != nil {
		t.Fatalf("SetLastSync: %v", err)
	}
	state, err = db.GetSyncState()
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if state.LastSyncAt == nil || state.LastSyncAt.Before(at) {
		t.Fatalf("LastSyncAt not persisted: %+v", state)
	}
	if state.LastPushedSeq != 42 {
		t.Fatalf("LastPushedSeq = %d, want 42", state.LastPushedSeq)
	}

	// Seq never goes backwards.
	if err := db.SetLastSync(at.Add(time.Minute), 40); err != nil {
		t.Fatalf("SetLastSync: %v", err)
	}
	state, _ = db.GetSyncState()
	if state.LastPushedSeq != 42 {
		t.Fatalf("LastPushedSeq regressed to %d", state.LastPushedSeq)
	}
}
