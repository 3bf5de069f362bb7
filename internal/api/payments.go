package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/serverdb"
)

// paymentRequest mirrors the client's payment body.
type paymentRequest struct {
	RecordID       string            `json:"record_id,omitempty"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	Method         string            `json:"payment_method"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID        string `json:"id"`
	ServerSeq int64  `json:"server_seq"`
}

// handlePayment processes a payment submitted while the device is
// online. The payment lands in the same record log as pushed offline
// records, so a later offline re-push of the same record ID dedupes.
func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid amount")
		return
	}
	payment := &models.Payment{
		Amount:     amount,
		Currency:   req.Currency,
		Method:     models.PaymentMethod(req.Method),
		CustomerID: req.CustomerID,
		Metadata:   req.Metadata,
	}
	if err := payment.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	deviceID := r.Header.Get("X-Device-ID")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "X-Device-ID header is required")
		return
	}

	recordID := req.RecordID
	if recordID == "" {
		recordID = "pay-" + uuid.NewString()
	}

	payload, err := json.Marshal(payment)
	if err != nil {
		logFor(r.Context()).Error("marshal payment", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to store payment")
		return
	}

	result, err := s.store.IngestRecord(serverdb.LogRecord{
		DeviceID:       deviceID,
		RecordID:       recordID,
		Store:          string(models.StorePayments),
		OrganizationID: req.OrganizationID,
		Payload:        string(payload),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logFor(r.Context()).Error("ingest payment", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to store payment")
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, paymentResponse{ID: recordID, ServerSeq: result.Seq})
}
