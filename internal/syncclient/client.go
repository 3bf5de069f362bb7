// Package syncclient is the HTTP client for the fieldsync server.
package syncclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thorbis/fieldsync/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the fieldsync server.
type Client struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	HTTP     *http.Client
}

// New creates a new sync client.
func New(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Payment types ---

// PaymentRequest is the body for POST /api/v1/payments.
type PaymentRequest struct {
	RecordID       string            `json:"record_id,omitempty"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	Method         string            `json:"payment_method"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PaymentResponse is the server's acknowledgement of a payment.
type PaymentResponse struct {
	ID        string `json:"id"`
	ServerSeq int64  `json:"server_seq"`
}

// --- Sync types (mirrors internal/api/sync.go, independently defined) ---

// PushRequest is the body for POST /api/v1/sync/push.
type PushRequest struct {
	DeviceID string        `json:"device_id"`
	Records  []RecordInput `json:"records"`
}

// RecordInput is a single offline record in a push request.
type RecordInput struct {
	RecordID       string          `json:"record_id"`
	Store          string          `json:"store"`
	OrganizationID string          `json:"organization_id,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      string          `json:"created_at"`
}

// PushResponse is the response from a push request.
type PushResponse struct {
	Accepted int              `json:"accepted"`
	Acks     []AckResponse    `json:"acks"`
	Rejected []RejectResponse `json:"rejected,omitempty"`
}

// AckResponse is a single acknowledged record.
type AckResponse struct {
	RecordID  string `json:"record_id"`
	ServerSeq int64  `json:"server_seq"`
}

// RejectResponse is a single rejected record.
type RejectResponse struct {
	RecordID  string `json:"record_id"`
	Reason    string `json:"reason"`
	ServerSeq int64  `json:"server_seq,omitempty"`
}

// SyncStatusResponse is the response from GET /api/v1/sync/status.
type SyncStatusResponse struct {
	RecordCount    int64  `json:"record_count"`
	LastServerSeq  int64  `json:"last_server_seq"`
	LastRecordTime string `json:"last_record_time,omitempty"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
// The connectivity probe uses this as its online signal.
func (c *Client) HealthCheck() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doNoAuth("GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitPayment posts a payment for immediate processing.
func (c *Client) SubmitPayment(payment *models.Payment, recordID, organizationID string) (*PaymentResponse, error) {
	req := PaymentRequest{
		RecordID:       recordID,
		OrganizationID: organizationID,
		Amount:         payment.Amount.String(),
		Currency:       payment.Currency,
		Method:         string(payment.Method),
		CustomerID:     payment.CustomerID,
		Metadata:       payment.Metadata,
	}
	var resp PaymentResponse
	if err := c.do("POST", "/api/v1/payments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push sends queued offline records to the server.
func (c *Client) Push(req *PushRequest) (*PushResponse, error) {
	var resp PushResponse
	if err := c.do("POST", "/api/v1/sync/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncStatus reports the server-side view of this device's records.
func (c *Client) SyncStatus() (*SyncStatusResponse, error) {
	var resp SyncStatusResponse
	if err := c.do("GET", "/api/v1/sync/status?device_id="+c.DeviceID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes an authenticated HTTP request.
func (c *Client) do(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, false)
}

func (c *Client) doRequest(method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
