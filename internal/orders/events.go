package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventPackRequested = "PackRequested"
	EventPackReady     = "PackReady"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "pack-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

type PackRequestedPayload struct {
	OrderID string `json:"order_id"`
	PackID  string `json:"pack_id"`
}

type PackReadyPayload struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	PackID        string    `json:"pack_id"`
	Email         string    `json:"email"`
	DownloadURL   string    `json:"download_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	FilesIncluded int       `json:"files_included"`
	SizeBytes     int64     `json:"size_bytes"`
}

// NewEnvelope wraps payload in a v1 envelope with a fresh event id.
func NewEnvelope(eventType, producer, correlationID, traceID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}
