// Package eventstream defines transport-neutral events emitted by the
// ingestion pipeline after chunks are persisted, plus the publisher contract
// for shipping them to an event stream backend.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeChunksPersisted is emitted after a staged batch is flushed
	// to the vector store.
	EventTypeChunksPersisted = "bookvec.chunks.persisted"
)

// ChunksPersistedEvent describes the outcome of one persist attempt.
type ChunksPersistedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// Provider is the vector store backend the batch was written to.
	Provider string `json:"provider"`

	// BookID is the owning book, when the batch carried one.
	BookID string `json:"book_id,omitempty"`

	// ChunkIDs are the ids attempted in this batch, in write order.
	ChunkIDs []string `json:"chunk_ids"`

	// Written and Failed mirror the persist result's row counts.
	Written int `json:"written"`
	Failed  int `json:"failed"`

	// DurationMs is the wall-clock duration of the persist attempt.
	DurationMs int64 `json:"duration_ms"`
}
