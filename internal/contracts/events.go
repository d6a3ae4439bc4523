package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id,omitempty"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}
