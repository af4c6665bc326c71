// Package vector defines the store contract for persisting text chunks with
// their embeddings and answering nearest-neighbor queries over them.
package vector

import (
	"context"
	"time"
)

// Node is a unit of retrievable text staged for persistence: the chunk text,
// its position in the source document, and the embedding produced for it by
// an external model. Dimensionality is not validated here; a mismatch
// surfaces as an insert failure at the store.
type Node struct {
	// ID is the caller-assigned unique identifier of the chunk.
	ID string

	// Text is the chunk payload, stored as a large-text column.
	Text string

	// PageNum is the chunk's position in the source document.
	PageNum int

	// BookID references the owning book. Empty persists as NULL, a known
	// upstream gap that is preserved rather than rejected.
	BookID string

	// Embedding is the vector representation of Text.
	Embedding []float64
}

// Match is one query hit: the reconstructed chunk plus its similarity score
// and owning book name.
type Match struct {
	ID         string
	Text       string
	PageNum    int
	BookName   string
	Similarity float64
}

// QueryRequest carries the per-call search parameters. TopK and
// SimilarityFloor are always supplied explicitly by the caller, never read
// from ambient session state.
type QueryRequest struct {
	// Embedding is the query vector. Must be non-empty and match the
	// schema's configured dimensionality.
	Embedding []float64

	// TopK bounds the raw ranked rows fetched before the floor filter is
	// applied, so fewer than TopK results may be returned even when more
	// qualifying rows exist lower in the full ranking.
	TopK int

	// Approximate selects index-assisted approximate search over an exact
	// full-scan distance computation.
	Approximate bool

	// SimilarityFloor keeps only rows with 1 - distance >= floor.
	// Values are in [0, 1].
	SimilarityFloor float64
}

// QueryResult is the ordered outcome of one similarity query, closest first.
type QueryResult struct {
	Matches []Match

	// Elapsed is the wall-clock duration of the whole query round trip.
	Elapsed time.Duration
}

// RowError records a single chunk that failed to persist.
type RowError struct {
	ID  string
	Err error
}

// PersistResult reports the outcome of one persist attempt. Per-row failures
// are aggregated here rather than aborting the batch.
type PersistResult struct {
	// Staged is the number of nodes drained from the staging buffer.
	Staged int

	// Written is the number of rows successfully inserted and committed.
	Written int

	// Failed is the number of rows whose insert failed.
	Failed int

	// Errors holds the per-row failures, in attempt order.
	Errors []RowError
}

// Store persists staged chunk nodes and answers similarity queries.
//
// Add is pure in-memory staging with no I/O. Persist flushes the stage in a
// single transaction. Query executes one distance-ranked round trip. Delete
// is a reserved slot and always fails with ErrDeleteUnsupported.
//
// A Store instance provides no internal synchronization for the staging
// buffer; concurrent Add/Persist on the same instance must be serialized by
// the caller.
type Store interface {
	// Add stages nodes for the next Persist and returns the ids staged by
	// this call. A node with an already-staged id replaces the prior entry.
	Add(nodes []Node) []string

	// Persist writes every staged node in one transaction. Individual row
	// failures are counted in the result and do not abort the batch; a
	// connection or commit failure is returned and leaves the stage intact.
	Persist(ctx context.Context) (*PersistResult, error)

	// Query runs one nearest-neighbor search. Backend failures are logged
	// and converted into an empty result so the retrieval path stays
	// non-fatal for the surrounding pipeline.
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)

	// Delete is reserved and always returns ErrDeleteUnsupported.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
