// Package bridge mediates all access to the local offline database.
// A single worker goroutine owns the *db.DB; callers submit typed
// requests over a channel and wait on a dedicated reply channel, so the
// database sees strictly serialized operations and concurrent callers
// can never receive each other's replies.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/models"
)

var (
	// ErrWorkerUnavailable is returned when the worker cannot accept
	// or answer a request before the call deadline.
	ErrWorkerUnavailable = errors.New("persistence worker unavailable")

	// ErrClosed is returned for calls made after Close.
	ErrClosed = errors.New("bridge closed")
)

// DefaultCallTimeout bounds every bridge call. A wedged worker surfaces
// as ErrWorkerUnavailable instead of hanging the caller.
const DefaultCallTimeout = 5 * time.Second

// request is the closed set of messages the worker understands. New
// request kinds must be added here and handled in the worker switch.
type request interface{ isRequest() }

type storeRecordReq struct{ rec *models.Record }
type getRecordsReq struct {
	store   models.Store
	filters db.RecordFilters
}
type pendingRecordsReq struct{ limit int }
type markSyncedReq struct{ acks []db.Ack }
type pendingCountsReq struct{}
type clearStoreReq struct{ store models.Store }
type pruneSyncedReq struct{ store models.Store }
type syncStateReq struct{}
type setLastSyncReq struct {
	at  time.Time
	seq int64
}

func (storeRecordReq) isRequest()    {}
func (getRecordsReq) isRequest()     {}
func (pendingRecordsReq) isRequest() {}
func (markSyncedReq) isRequest()     {}
func (pendingCountsReq) isRequest()  {}
func (clearStoreReq) isRequest()     {}
func (pruneSyncedReq) isRequest()    {}
func (syncStateReq) isRequest()      {}
func (setLastSyncReq) isRequest()    {}

// response carries whichever result fields the request produces.
type response struct {
	records []models.Record
	counts  map[models.Store]int
	state   *db.SyncState
	n       int64
	err     error
}

type envelope struct {
	req   request
	reply chan response
}

// Bridge is the message-passing façade over the worker-owned database.
type Bridge struct {
	requests chan envelope
	quit     chan struct{}
	stopped  chan struct{}
	timeout  time.Duration

	closeOnce sync.Once
	db        *db.DB
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithCallTimeout overrides the per-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// New starts the worker goroutine. The bridge takes ownership of the
// database; Close stops the worker and closes it.
func New(database *db.DB, opts ...Option) *Bridge {
	b := &Bridge{
		requests: make(chan envelope),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		timeout:  DefaultCallTimeout,
		db:       database,
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Close stops the worker and closes the database. Idempotent.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.quit)
		<-b.stopped
		err = b.db.Close()
	})
	return err
}

// run is the worker loop. It is the only goroutine that touches b.db.
func (b *Bridge) run() {
	defer close(b.stopped)
	for {
		select {
		case <-b.quit:
			return
		case env := <-b.requests:
			env.reply <- b.handle(env.req)
		}
	}
}

// handle dispatches one request. The switch is exhaustive over the
// request union; an unknown type is a programming error.
func (b *Bridge) handle(req request) response {
	switch req := req.(type) {
	case storeRecordReq:
		return response{err: b.db.PutRecord(req.rec)}
	case getRecordsReq:
		records, err := b.db.GetRecords(req.store, req.filters)
		return response{records: records, err: err}
	case pendingRecordsReq:
		records, err := b.db.PendingRecords(req.limit)
		return response{records: records, err: err}
	case markSyncedReq:
		return response{err: b.db.MarkSynced(req.acks)}
	case pendingCountsReq:
		counts, err := b.db.PendingCounts()
		return response{counts: counts, err: err}
	case clearStoreReq:
		return response{err: b.db.ClearStore(req.store)}
	case pruneSyncedReq:
		n, err := b.db.DeleteSynced(req.store)
		return response{n: n, err: err}
	case syncStateReq:
		state, err := b.db.GetSyncState()
		return response{state: state, err: err}
	case setLastSyncReq:
		return response{err: b.db.SetLastSync(req.at, req.seq)}
	default:
		slog.Error("bridge: unhandled request type", "type", fmt.Sprintf("%T", req))
		return response{err: fmt.Errorf("unhandled request type %T", req)}
	}
}

// call submits a request and waits for its reply. The reply channel is
// buffered so a caller that gives up never blocks the worker.
func (b *Bridge) call(ctx context.Context, req request) (response, error) {
	env := envelope{req: req, reply: make(chan response, 1)}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case b.requests <- env:
	case <-b.quit:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-timer.C:
		return response{}, ErrWorkerUnavailable
	}

	select {
	case resp := <-env.reply:
		return resp, resp.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-timer.C:
		return response{}, ErrWorkerUnavailable
	}
}

// StoreRecord persists a record (ID assigned when empty, Synced false).
func (b *Bridge) StoreRecord(ctx context.Context, rec *models.Record) error {
	_, err := b.call(ctx, storeRecordReq{rec: rec})
	return err
}

// GetRecords queries a store.
func (b *Bridge) GetRecords(ctx context.Context, store models.Store, filters db.RecordFilters) ([]models.Record, error) {
	resp, err := b.call(ctx, getRecordsReq{store: store, filters: filters})
	return resp.records, err
}

// PendingRecords returns the cross-store push queue in insertion order.
func (b *Bridge) PendingRecords(ctx context.Context, limit int) ([]models.Record, error) {
	resp, err := b.call(ctx, pendingRecordsReq{limit: limit})
	return resp.records, err
}

// MarkSynced flips acked records to synced.
func (b *Bridge) MarkSynced(ctx context.Context, acks []db.Ack) error {
	_, err := b.call(ctx, markSyncedReq{acks: acks})
	return err
}

// PendingCounts reads the per-store unsynced counters.
func (b *Bridge) PendingCounts(ctx context.Context) (map[models.Store]int, error) {
	resp, err := b.call(ctx, pendingCountsReq{})
	return resp.counts, err
}

// ClearStore drops every record in a store.
func (b *Bridge) ClearStore(ctx context.Context, store models.Store) error {
	_, err := b.call(ctx, clearStoreReq{store: store})
	return err
}

// PruneSynced removes acknowledged records from a store.
func (b *Bridge) PruneSynced(ctx context.Context, store models.Store) (int64, error) {
	resp, err := b.call(ctx, pruneSyncedReq{store: store})
	return resp.n, err
}

// SyncState reads the last-sync bookkeeping.
func (b *Bridge) SyncState(ctx context.Context) (*db.SyncState, error) {
	resp, err := b.call(ctx, syncStateReq{})
	return resp.state, err
}

// SetLastSync records a completed sync.
func (b *Bridge) SetLastSync(ctx context.Context, at time.Time, lastPushedSeq int64) error {
	_, err := b.call(ctx, setLastSyncReq{at: at, seq: lastPushedSeq})
	return err
}
