package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/thorbis/fieldsync/internal/bridge"
	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/models"
)

func setupBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	br := bridge.New(database)
	t.Cleanup(func() { br.Close() })
	return br
}

type auditBatch struct {
	Kind    string  `json:"kind"`
	Entries []Entry `json:"entries"`
}

func analyticsBatches(t *testing.T, br *bridge.Bridge) []auditBatch {
	t.Helper()
	recs, err := br.GetRecords(context.Background(), models.StoreAnalytics, db.RecordFilters{})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	batches := make([]auditBatch, len(recs))
	for i, rec := range recs {
		if err := json.Unmarshal(rec.Payload, &batches[i]); err != nil {
			t.Fatalf("unmarshal batch payload: %v", err)
		}
	}
	return batches
}

func TestFullBatchFlushes(t *testing.T) {
	br := setupBridge(t)
	logger := New(br, WithBatchSize(3), WithFlushInterval(0))
	defer logger.Close()

	logger.Log("payment.created", "tech-1", "pay-1", nil)
	logger.Log("payment.created", "tech-1", "pay-2", nil)
	if got := analyticsBatches(t, br); len(got) != 0 {
		t.Fatalf("flushed before the batch filled: %d batches", len(got))
	}

	logger.Log("workorder.closed", "tech-1", "wo-9", json.RawMessage(`{"minutes":42}`))

	batches := analyticsBatches(t, br)
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	b := batches[0]
	if b.Kind != "audit_batch" || len(b.Entries) != 3 {
		t.Fatalf("unexpected batch: kind=%q entries=%d", b.Kind, len(b.Entries))
	}
	for _, e := range b.Entries {
		if e.ID == "" || e.Timestamp.IsZero() {
			t.Errorf("entry missing ID or timestamp: %+v", e)
		}
	}
	if b.Entries[2].Action != "workorder.closed" {
		t.Errorf("entry order not preserved: %+v", b.Entries)
	}
}

func TestCloseFlushesRemainder(t *testing.T) {
	br := setupBridge(t)
	logger := New(br, WithBatchSize(100), WithFlushInterval(0))

	logger.Log("customer.updated", "dispatcher", "cust-3", nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	batches := analyticsBatches(t, br)
	if len(batches) != 1 || len(batches[0].Entries) != 1 {
		t.Fatalf("Close did not flush the remainder: %+v", batches)
	}

	// Close is idempotent.
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestTickerFlushes(t *testing.T) {
	br := setupBridge(t)
	logger := New(br, WithBatchSize(100), WithFlushInterval(20*time.Millisecond))
	defer logger.Close()

	logger.Log("inventory.adjusted", "tech-2", "sku-77", nil)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(analyticsBatches(t, br)) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("ticker never flushed the buffered entry")
}
