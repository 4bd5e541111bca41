package archive

import (
	"encoding/json"
	"time"
)

// Outcomes recorded with an archived webhook payload.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// PayloadRecord is the JSON document written for one webhook delivery.
// Payload holds the body when it is valid JSON; RawBody holds it otherwise.
type PayloadRecord struct {
	Version    string          `json:"version"`
	Source     string          `json:"source"`
	Outcome    string          `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	LeadID     int64           `json:"lead_id,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RawBody    string          `json:"raw_body,omitempty"`
}
