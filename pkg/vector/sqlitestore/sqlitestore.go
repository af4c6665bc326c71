// Package sqlitestore implements vector.Store on SQLite with the sqlite-vec
// extension. It mirrors the Oracle backend's staging and persist semantics
// while running fully in-process, which also makes it the store used by the
// behavioral test suites.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/vecenc"
	"github.com/papyri/bookvec/pkg/vector"
)

// DefaultTopK bounds the raw ranked rows when the request leaves TopK unset.
const DefaultTopK = 10

const insertChunkSQL = `INSERT INTO chunks (id, chunk, page_num, book_id) VALUES (?, ?, ?, ?)`

const searchSQL = `SELECT c.id, c.chunk, c.page_num, v.distance, b.name
FROM vec_chunks v
INNER JOIN chunks c ON c.rowid = v.rowid
INNER JOIN books b ON b.id = c.book_id
WHERE v.embedding MATCH ? AND v.k = ?
ORDER BY v.distance`

// Config holds configuration for the SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the vector column width. Required.
	Dimensions int

	// Tracer wraps Query in a span. Defaults to the no-op tracer.
	Tracer tracing.Tracer
}

// Store implements vector.Store on SQLite/sqlite-vec.
//
// vec0 KNN search is always an exact scan; the Approximate request flag is
// accepted and ignored.
type Store struct {
	db     *sql.DB
	codec  vecenc.Codec
	stage  *vector.Stage
	tracer tracing.Tracer
	logger *zap.Logger
}

// New opens the database, verifies sqlite-vec is loaded, and creates the
// schema. vec0 stores float32 elements, so this backend always encodes at
// 32-bit precision regardless of the deployment-wide codec setting.
func New(c Config, logger *zap.Logger) (*Store, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			chunk TEXT NOT NULL,
			page_num INTEGER,
			book_id TEXT REFERENCES books(id)
		)`,
		fmt.Sprintf(
			`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(embedding float[%d] distance_metric=cosine)`,
			c.Dimensions,
		),
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	codec, err := vecenc.New(vecenc.Bits32)
	if err != nil {
		db.Close()
		return nil, err
	}

	tracer := c.Tracer
	if tracer == nil {
		tracer = tracing.NewNoop()
	}

	logger.Info("sqlite-vec store initialized",
		zap.String("db_path", c.DBPath),
		zap.Int("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:     db,
		codec:  codec,
		stage:  vector.NewStage(),
		tracer: tracer,
		logger: logger,
	}, nil
}

// Add stages nodes in memory and returns the ids staged by this call.
func (s *Store) Add(nodes []vector.Node) []string {
	return s.stage.Put(nodes)
}

// Persist writes every staged node inside one transaction. A failed row is
// counted and logged but does not abort the batch; the stage is cleared
// after the commit regardless of row failures.
func (s *Store) Persist(ctx context.Context) (*vector.PersistResult, error) {
	if s.stage.Len() == 0 {
		return &vector.PersistResult{}, nil
	}

	nodes := s.stage.Nodes()
	res := &vector.PersistResult{Staged: len(nodes)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning persist transaction: %v", vector.ErrConnection, err)
	}

	s.logger.Info("persisting staged chunks", zap.Int("count", len(nodes)))

	for _, n := range nodes {
		if err := s.insertChunk(ctx, tx, n); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, vector.RowError{ID: n.ID, Err: err})
			s.logger.Error("chunk insert failed", zap.String("id", n.ID), zap.Error(err))
			continue
		}
		res.Written++
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("committing persist transaction: %w", err)
	}

	s.stage.Reset()

	if res.Failed > 0 {
		s.logger.Warn("persist completed with row failures",
			zap.Int("written", res.Written),
			zap.Int("failed", res.Failed),
		)
	}

	return res, nil
}

// insertChunk writes one chunk row plus its embedding, keeping the two
// tables consistent when the embedding insert fails.
func (s *Store) insertChunk(ctx context.Context, tx *sql.Tx, n vector.Node) error {
	var bookID sql.NullString
	if n.BookID != "" {
		bookID = sql.NullString{String: n.BookID, Valid: true}
	}

	result, err := tx.ExecContext(ctx, insertChunkSQL, n.ID, n.Text, n.PageNum, bookID)
	if err != nil {
		return fmt.Errorf("inserting chunk row: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting chunk rowid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_chunks(rowid, embedding) VALUES (?, ?)`,
		rowID, s.codec.Encode(n.Embedding),
	); err != nil {
		if _, derr := tx.ExecContext(ctx, `DELETE FROM chunks WHERE rowid = ?`, rowID); derr != nil {
			return fmt.Errorf("inserting embedding: %w (orphaned chunk row cleanup also failed: %v)", err, derr)
		}
		return fmt.Errorf("inserting embedding: %w", err)
	}

	return nil
}

// Query executes one KNN round trip and filters the top-k rows by the
// similarity floor. Backend failures are logged and converted into an empty
// result.
func (s *Store) Query(ctx context.Context, req vector.QueryRequest) (*vector.QueryResult, error) {
	start := time.Now()

	ctx, span := s.tracer.StartSpan(ctx, "sqlite_vector_store.query")
	defer span.End()
	span.SetAttribute("openinference.span.kind", "RETRIEVER")
	span.SetAttribute("tool.name", "sqlite_vector_store")

	res := &vector.QueryResult{}

	matches, err := s.search(ctx, req)
	if err != nil {
		span.SetError(err)
		s.logger.Error("vector query failed", zap.Error(err))
		res.Elapsed = time.Since(start)
		return res, nil
	}

	res.Matches = matches
	res.Elapsed = time.Since(start)
	return res, nil
}

func (s *Store) search(ctx context.Context, req vector.QueryRequest) ([]vector.Match, error) {
	if len(req.Embedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	rows, err := s.db.QueryContext(ctx, searchSQL, s.codec.Encode(req.Embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var ranked []vector.Match
	for rows.Next() {
		var (
			id       string
			text     string
			pageNum  int
			distance float64
			bookName string
		)
		if err := rows.Scan(&id, &text, &pageNum, &distance, &bookName); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}

		ranked = append(ranked, vector.Match{
			ID:         id,
			Text:       text,
			PageNum:    pageNum,
			BookName:   bookName,
			Similarity: vector.Similarity(distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}

	return vector.FilterByFloor(ranked, req.SimilarityFloor), nil
}

// Delete is a reserved slot; chunk removal is not implemented.
func (s *Store) Delete(_ context.Context, id string) error {
	return fmt.Errorf("deleting chunk %q: %w", id, vector.ErrDeleteUnsupported)
}

// UpsertBook creates or renames a book row for the seed pipeline.
func (s *Store) UpsertBook(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`, id, name)
	if err != nil {
		return fmt.Errorf("upserting book %s: %w", id, err)
	}
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}
