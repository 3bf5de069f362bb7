package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Store identifies a logical offline store. Records in different stores
// share the same envelope and sync path but are queried independently.
type Store string

const (
	StorePayments   Store = "payments"
	StoreCustomers  Store = "customers"
	StoreInventory  Store = "inventory"
	StoreWorkOrders Store = "work_orders"
	StoreDocuments  Store = "documents"
	StorePhotos     Store = "photos"
	StoreAnalytics  Store = "analytics"
)

// Stores returns all known stores in a stable order.
func Stores() []Store {
	return []Store{
		StorePayments,
		StoreCustomers,
		StoreInventory,
		StoreWorkOrders,
		StoreDocuments,
		StorePhotos,
		StoreAnalytics,
	}
}

// ParseStore validates a user-supplied store name.
func ParseStore(s string) (Store, error) {
	for _, store := range Stores() {
		if string(store) == s {
			return store, nil
		}
	}
	return "", fmt.Errorf("unknown store: %q", s)
}

// Record is the envelope for any locally persisted domain object.
// Synced starts false and is flipped true only after the server
// acknowledges the record; nothing else mutates a stored record.
type Record struct {
	ID             string          `json:"id"`
	Store          Store           `json:"store"`
	OrganizationID string          `json:"organization_id"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
	Synced         bool            `json:"synced"`
	SyncedAt       *time.Time      `json:"synced_at,omitempty"`
	ServerSeq      int64           `json:"server_seq,omitempty"`
}

// PaymentMethod enumerates accepted payment instruments.
type PaymentMethod string

const (
	MethodCard  PaymentMethod = "card"
	MethodCash  PaymentMethod = "cash"
	MethodCheck PaymentMethod = "check"
	MethodACH   PaymentMethod = "ach"
)

// Payment is a checkout-style payment captured in the field.
type Payment struct {
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Method     PaymentMethod     `json:"payment_method"`
	CustomerID string            `json:"customer_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Validate checks the payment fields before any network or storage attempt.
func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("payment amount must be positive, got %s", p.Amount)
	}
	if len(p.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", p.Currency)
	}
	switch p.Method {
	case MethodCard, MethodCash, MethodCheck, MethodACH:
	default:
		return fmt.Errorf("unknown payment method: %q", p.Method)
	}
	return nil
}

// PaymentResult reports the outcome of processing a payment.
// Offline is true when the payment was queued locally instead of
// reaching the server.
type PaymentResult struct {
	Success bool   `json:"success"`
	Offline bool   `json:"offline,omitempty"`
	ID      string `json:"id"`
}

// SyncStatus is a point-in-time snapshot of the sync state. It is a
// value type: mutating a snapshot never affects the orchestrator.
type SyncStatus struct {
	Online         bool          `json:"is_online"`
	Syncing        bool          `json:"syncing"`
	PendingSync    int64         `json:"pending_sync"`
	PendingByStore map[Store]int `json:"pending_by_store,omitempty"`
	LastSync       *time.Time    `json:"last_sync,omitempty"`
}

// Clone returns a deep copy so listeners can hold snapshots safely.
func (s SyncStatus) Clone() SyncStatus {
	out := s
	if s.PendingByStore != nil {
		out.PendingByStore = make(map[Store]int, len(s.PendingByStore))
		for k, v := range s.PendingByStore {
			out.PendingByStore[k] = v
		}
	}
	if s.LastSync != nil {
		t := *s.LastSync
		out.LastSync = &t
	}
	return out
}
