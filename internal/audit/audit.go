// Package audit buffers audit entries and flushes them in batches into
// the analytics store, so audit history rides the normal sync path and
// survives offline periods.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thorbis/fieldsync/internal/bridge"
	"github.com/thorbis/fieldsync/internal/models"
)

// Entry is a single audit event.
type Entry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Actor     string          `json:"actor,omitempty"`
	Resource  string          `json:"resource,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	defaultBatchSize     = 25
	defaultFlushInterval = 30 * time.Second
)

// Logger batches entries and writes each batch as one analytics record
// through the bridge. Flushes happen when the batch fills or on the
// ticker, whichever comes first. Close flushes the remainder.
type Logger struct {
	br        *bridge.Bridge
	batchSize int
	interval  time.Duration

	mu  sync.Mutex
	buf []Entry

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Logger.
type Option func(*Logger)

// WithBatchSize sets how many entries trigger an immediate flush.
func WithBatchSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithFlushInterval sets the background flush cadence. Zero disables
// the ticker; flushes then happen only on a full batch or Close.
func WithFlushInterval(d time.Duration) Option {
	return func(l *Logger) { l.interval = d }
}

// New creates a Logger and starts its flush ticker.
func New(br *bridge.Bridge, opts ...Option) *Logger {
	l := &Logger{
		br:        br,
		batchSize: defaultBatchSize,
		interval:  defaultFlushInterval,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Log queues an audit entry. The entry gets an ID and timestamp here;
// the write to storage happens on the next flush.
func (l *Logger) Log(action, actor, resource string, details json.RawMessage) {
	entry := Entry{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Resource:  resource,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	l.mu.Lock()
	l.buf = append(l.buf, entry)
	full := len(l.buf) >= l.batchSize
	l.mu.Unlock()

	if full {
		if err := l.Flush(context.Background()); err != nil {
			slog.Warn("audit flush on full batch", "err", err)
		}
	}
}

// Flush writes all buffered entries as a single analytics record.
// A failed write puts the batch back so no entry is lost.
func (l *Logger) Flush(ctx context.Context) error {
	l.mu.Lock()
	batch := l.buf
	l.buf = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(struct {
		Kind    string  `json:"kind"`
		Entries []Entry `json:"entries"`
	}{Kind: "audit_batch", Entries: batch})
	if err != nil {
		return fmt.Errorf("marshal audit batch: %w", err)
	}

	rec := &models.Record{Store: models.StoreAnalytics, Payload: payload}
	if err := l.br.StoreRecord(ctx, rec); err != nil {
		l.mu.Lock()
		l.buf = append(batch, l.buf...)
		l.mu.Unlock()
		return fmt.Errorf("store audit batch: %w", err)
	}
	return nil
}

// Close stops the ticker and flushes whatever is buffered.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.quit)
		<-l.done
		err = l.Flush(context.Background())
	})
	return err
}

func (l *Logger) run() {
	defer close(l.done)
	if l.interval <= 0 {
		<-l.quit
		return
	}
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.quit:
			return
		case <-ticker.C:
			if err := l.Flush(context.Background()); err != nil {
				slog.Warn("audit flush", "err", err)
			}
		}
	}
}
