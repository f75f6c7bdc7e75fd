// Package domain defines the telemetry event shared by the emitters, the Kafka producer and the Loki worker.
package domain

import (
	"encoding/json"
	"time"
)

// Event is a single telemetry event (pairing outcome, command handled, http request, ...).
type Event struct {
	ID        string          `json:"id"`
	Sender    string          `json:"sender,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
