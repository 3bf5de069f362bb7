package api

import (
	"encoding/json"
	"net/http"

	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/serverdb"
)

// pushRequest mirrors the client's push body.
type pushRequest struct {
	DeviceID string        `json:"device_id"`
	Records  []recordInput `json:"records"`
}

type recordInput struct {
	RecordID       string          `json:"record_id"`
	Store          string          `json:"store"`
	OrganizationID string          `json:"organization_id,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      string          `json:"created_at"`
}

type pushResponse struct {
	Accepted int            `json:"accepted"`
	Acks     []ackResponse  `json:"acks"`
	Rejected []rejectedItem `json:"rejected,omitempty"`
}

type ackResponse struct {
	RecordID  string `json:"record_id"`
	ServerSeq int64  `json:"server_seq"`
}

type rejectedItem struct {
	RecordID  string `json:"record_id"`
	Reason    string `json:"reason"`
	ServerSeq int64  `json:"server_seq,omitempty"`
}

// handleSyncPush ingests a batch of offline records. Every record is
// answered individually: an ack with its server seq (duplicates get
// the seq already assigned) or a rejection with a reason.
func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = r.Header.Get("X-Device-ID")
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "device_id is required")
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "no records in push")
		return
	}

	resp := pushResponse{Acks: []ackResponse{}}
	for _, in := range req.Records {
		if in.RecordID == "" {
			resp.Rejected = append(resp.Rejected, rejectedItem{Reason: "missing record_id"})
			continue
		}
		if _, err := models.ParseStore(in.Store); err != nil {
			resp.Rejected = append(resp.Rejected, rejectedItem{RecordID: in.RecordID, Reason: "unknown store"})
			continue
		}

		result, err := s.store.IngestRecord(serverdb.LogRecord{
			DeviceID:       req.DeviceID,
			RecordID:       in.RecordID,
			Store:          in.Store,
			OrganizationID: in.OrganizationID,
			Payload:        string(in.Payload),
			CreatedAt:      in.CreatedAt,
		})
		if err != nil {
			logFor(r.Context()).Error("ingest record", "record", in.RecordID, "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to store record")
			return
		}
		if result.Duplicate {
			logFor(r.Context()).Debug("duplicate push", "record", in.RecordID, "seq", result.Seq)
		}
		resp.Acks = append(resp.Acks, ackResponse{RecordID: in.RecordID, ServerSeq: result.Seq})
	}
	resp.Accepted = len(resp.Acks)

	writeJSON(w, http.StatusOK, resp)
}

type syncStatusResponse struct {
	RecordCount    int64  `json:"record_count"`
	LastServerSeq  int64  `json:"last_server_seq"`
	LastRecordTime string `json:"last_record_time,omitempty"`
}

// handleSyncStatus reports the server-side view of one device's records.
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = r.Header.Get("X-Device-ID")
	}
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "device_id is required")
		return
	}

	st, err := s.store.StatusForDevice(deviceID)
	if err != nil {
		logFor(r.Context()).Error("device status", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load status")
		return
	}

	writeJSON(w, http.StatusOK, syncStatusResponse{
		RecordCount:    st.RecordCount,
		LastServerSeq:  st.LastSeq,
		LastRecordTime: st.LastRecordTime,
	})
}
