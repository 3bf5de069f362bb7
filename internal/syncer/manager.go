// Package syncer coordinates online submission, offline fallback, and
// resync-on-reconnect for offline records.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thorbis/fieldsync/internal/bridge"
	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/syncclient"
)

var (
	// ErrOffline is returned by TriggerSync while disconnected.
	ErrOffline = errors.New("cannot sync while offline")

	// ErrSyncInFlight is returned when a sync is already running.
	ErrSyncInFlight = errors.New("sync already in progress")
)

// RemoteClient is the slice of the sync server API the manager needs.
// *syncclient.Client satisfies it; tests substitute stubs.
type RemoteClient interface {
	SubmitPayment(payment *models.Payment, recordID, organizationID string) (*syncclient.PaymentResponse, error)
	Push(req *syncclient.PushRequest) (*syncclient.PushResponse, error)
	HealthCheck() (*syncclient.HealthResponse, error)
}

// Listener receives sync status snapshots.
type Listener func(models.SyncStatus)

// Manager is the sync orchestrator. It owns the in-process SyncStatus,
// watches connectivity, and fans status changes out to listeners.
// Construct with New and inject where needed; there is deliberately no
// package-level instance.
type Manager struct {
	br       *bridge.Bridge
	client   RemoteClient
	deviceID string
	orgID    string

	batchSize     int
	probeInterval time.Duration
	onlinePinned  bool

	mu        sync.Mutex
	status    models.SyncStatus
	listeners map[int]Listener
	nextID    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithOrganization stamps stored records with an organization ID.
func WithOrganization(orgID string) Option {
	return func(m *Manager) { m.orgID = orgID }
}

// WithDeviceID identifies this device in push requests.
func WithDeviceID(deviceID string) Option {
	return func(m *Manager) { m.deviceID = deviceID }
}

// WithBatchSize caps records per push request.
func WithBatchSize(n int) Option {
	return func(m *Manager) { m.batchSize = n }
}

// WithProbeInterval enables the background connectivity probe.
// Zero disables it; connectivity is then driven by SetOnline only.
func WithProbeInterval(d time.Duration) Option {
	return func(m *Manager) { m.probeInterval = d }
}

// WithInitialOnline pins the starting connectivity and skips the
// reachability check Start would otherwise run.
func WithInitialOnline(online bool) Option {
	return func(m *Manager) {
		m.status.Online = online
		m.onlinePinned = true
	}
}

// New creates a Manager. Call Start before use and Close when done.
func New(br *bridge.Bridge, client RemoteClient, opts ...Option) *Manager {
	m := &Manager{
		br:        br,
		client:    client,
		batchSize: 200,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start loads persisted sync state, measures server reachability, and
// launches the connectivity probe when one is configured. Connectivity
// is never assumed: unless pinned via WithInitialOnline, the manager
// reports offline until a health check has actually succeeded.
func (m *Manager) Start(ctx context.Context) error {
	state, err := m.br.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}
	counts, err := m.br.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("load pending counts: %w", err)
	}

	online := m.status.Online
	if !m.onlinePinned {
		_, healthErr := m.client.HealthCheck()
		online = healthErr == nil
	}

	m.mu.Lock()
	m.status.Online = online
	m.status.LastSync = state.LastSyncAt
	m.applyCountsLocked(counts)
	m.mu.Unlock()

	if m.probeInterval > 0 {
		probeCtx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.probe(probeCtx)
	}
	return nil
}

// Close stops the connectivity probe and drops all listeners. The
// bridge is injected and stays open; its owner closes it.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	m.listeners = make(map[int]Listener)
	m.mu.Unlock()
}

// probe health-checks the server on an interval and feeds SetOnline.
func (m *Manager) probe(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := m.client.HealthCheck()
			if err != nil {
				slog.Debug("connectivity probe failed", "err", err)
			}
			m.SetOnline(err == nil)
		}
	}
}

// SetOnline records a connectivity transition. The offline→online edge
// triggers exactly one background sync.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	if m.status.Online == online {
		m.mu.Unlock()
		return
	}
	m.status.Online = online
	reconnected := online
	m.mu.Unlock()

	m.notify()

	if reconnected {
		go func() {
			if err := m.TriggerSync(context.Background()); err != nil &&
				!errors.Is(err, ErrSyncInFlight) && !errors.Is(err, ErrOffline) {
				slog.Warn("resync after reconnect", "err", err)
			}
		}()
	}
}

// Status returns a snapshot of the current sync status.
func (m *Manager) Status() models.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Clone()
}

// OnStatusChange subscribes to status snapshots. The returned func
// unsubscribes; after that the listener is never called again.
func (m *Manager) OnStatusChange(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify delivers the current snapshot to all listeners. Listeners are
// called outside the lock so they may call back into the manager.
func (m *Manager) notify() {
	m.mu.Lock()
	snapshot := m.status.Clone()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// ProcessPayment tries the network first and falls back to the offline
// queue. The result is successful either way; Offline reports which
// path was taken. Validation failures and local-storage failures are
// the only errors.
func (m *Manager) ProcessPayment(ctx context.Context, payment *models.Payment) (*models.PaymentResult, error) {
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	if m.Status().Online {
		resp, err := m.client.SubmitPayment(payment, "", m.orgID)
		if err == nil {
			return &models.PaymentResult{Success: true, ID: resp.ID}, nil
		}
		slog.Debug("payment submit failed, queueing offline", "err", err)
	}

	payload, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("marshal payment: %w", err)
	}
	rec, err := m.storeRecord(ctx, models.StorePayments, payload)
	if err != nil {
		return nil, fmt.Errorf("queue payment offline: %w", err)
	}
	return &models.PaymentResult{Success: true, Offline: true, ID: rec.ID}, nil
}

// StoreOfflineData queues an arbitrary payload in the given store.
// Available online or offline; queued data rides the next sync.
func (m *Manager) StoreOfflineData(ctx context.Context, store models.Store, payload json.RawMessage) (*models.Record, error) {
	return m.storeRecord(ctx, store, payload)
}

// GetOfflineData queries locally stored records.
func (m *Manager) GetOfflineData(ctx context.Context, store models.Store, filters db.RecordFilters) ([]models.Record, error) {
	return m.br.GetRecords(ctx, store, filters)
}

// ClearOfflineData drops every record in a store, synced or not, and
// resets its pending counter. Unsynced records are lost; callers are
// expected to confirm first.
func (m *Manager) ClearOfflineData(ctx context.Context, store models.Store) error {
	if err := m.br.ClearStore(ctx, store); err != nil {
		return err
	}
	m.refreshCounts(ctx)
	return nil
}

// GetOfflinePayments returns queued, not-yet-synced payments.
func (m *Manager) GetOfflinePayments(ctx context.Context) ([]models.Record, error) {
	unsynced := false
	return m.br.GetRecords(ctx, models.StorePayments, db.RecordFilters{Synced: &unsynced})
}

func (m *Manager) storeRecord(ctx context.Context, store models.Store, payload json.RawMessage) (*models.Record, error) {
	rec := &models.Record{
		Store:          store,
		OrganizationID: m.orgID,
		Payload:        payload,
	}
	if err := m.br.StoreRecord(ctx, rec); err != nil {
		return nil, err
	}
	m.refreshCounts(ctx)
	return rec, nil
}

// TriggerSync pushes every pending record to the server in batches,
// marks acked records synced, prunes delivered payments, and stamps
// LastSync. Fails fast when offline or when a sync is already running.
func (m *Manager) TriggerSync(ctx context.Context) error {
	m.mu.Lock()
	if !m.status.Online {
		m.mu.Unlock()
		return ErrOffline
	}
	if m.status.Syncing {
		m.mu.Unlock()
		return ErrSyncInFlight
	}
	m.status.Syncing = true
	m.mu.Unlock()
	m.notify()

	err := m.syncAll(ctx)

	m.mu.Lock()
	m.status.Syncing = false
	m.mu.Unlock()
	m.notify()
	return err
}

func (m *Manager) syncAll(ctx context.Context) error {
	var maxSeq int64
	pushed := 0

	for {
		pending, err := m.br.PendingRecords(ctx, m.batchSize)
		if err != nil {
			return fmt.Errorf("load pending records: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		req := &syncclient.PushRequest{DeviceID: m.deviceID}
		for _, rec := range pending {
			req.Records = append(req.Records, syncclient.RecordInput{
				RecordID:       rec.ID,
				Store:          string(rec.Store),
				OrganizationID: rec.OrganizationID,
				Payload:        rec.Payload,
				CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
			})
		}

		resp, err := m.client.Push(req)
		if err != nil {
			return fmt.Errorf("push %d records: %w", len(req.Records), err)
		}

		acks := make([]db.Ack, 0, len(resp.Acks)+len(resp.Rejected))
		for _, a := range resp.Acks {
			acks = append(acks, db.Ack{RecordID: a.RecordID, ServerSeq: a.ServerSeq})
			if a.ServerSeq > maxSeq {
				maxSeq = a.ServerSeq
			}
		}
		// A duplicate rejection means the server already has the
		// record; treat it as delivered.
		for _, r := range resp.Rejected {
			if r.Reason == "duplicate" && r.ServerSeq > 0 {
				acks = append(acks, db.Ack{RecordID: r.RecordID, ServerSeq: r.ServerSeq})
				if r.ServerSeq > maxSeq {
					maxSeq = r.ServerSeq
				}
			} else {
				slog.Warn("record rejected by server", "record", r.RecordID, "reason", r.Reason)
			}
		}
		if len(acks) == 0 {
			return fmt.Errorf("server accepted none of %d records", len(req.Records))
		}

		if err := m.br.MarkSynced(ctx, acks); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
		pushed += len(acks)
	}

	now := time.Now().UTC()
	if err := m.br.SetLastSync(ctx, now, maxSeq); err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}

	// Delivered payments are removed locally once acknowledged.
	if _, err := m.br.PruneSynced(ctx, models.StorePayments); err != nil {
		slog.Warn("prune synced payments", "err", err)
	}

	m.mu.Lock()
	m.status.LastSync = &now
	m.mu.Unlock()
	m.refreshCounts(ctx)

	if pushed > 0 {
		slog.Debug("sync complete", "records", pushed, "last_seq", maxSeq)
	}
	return nil
}

// refreshCounts re-reads the per-store counters and notifies listeners.
func (m *Manager) refreshCounts(ctx context.Context) {
	counts, err := m.br.PendingCounts(ctx)
	if err != nil {
		slog.Warn("refresh pending counts", "err", err)
		return
	}
	m.mu.Lock()
	m.applyCountsLocked(counts)
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) applyCountsLocked(counts map[models.Store]int) {
	m.status.PendingByStore = counts
	var total int64
	for _, n := range counts {
		total += int64(n)
	}
	m.status.PendingSync = total
}
