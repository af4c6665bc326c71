// Package oraclestore implements vector.Store against Oracle Database 23ai
// using its native VECTOR column type and VECTOR_DISTANCE search.
package oraclestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	go_ora "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/vecenc"
	"github.com/papyri/bookvec/pkg/vector"
)

// DefaultTopK bounds the raw ranked rows when the request leaves TopK unset.
const DefaultTopK = 10

const insertChunkSQL = `INSERT INTO CHUNKS (ID, CHUNK, VEC, PAGE_NUM, BOOK_ID) VALUES (:1, :2, :3, :4, :5)`

const upsertBookSQL = `MERGE INTO BOOKS B
USING (SELECT :1 AS ID, :2 AS NAME FROM DUAL) S
ON (B.ID = S.ID)
WHEN MATCHED THEN UPDATE SET B.NAME = S.NAME
WHEN NOT MATCHED THEN INSERT (ID, NAME) VALUES (S.ID, S.NAME)`

// searchSQL builds the single nearest-neighbor statement. The query vector is
// the only bound parameter; topK and the APPROXIMATE clause are part of the
// statement text because Oracle does not allow binds in the FETCH clause.
func searchSQL(topK int, approximate bool) string {
	clause := ""
	if approximate {
		clause = "APPROXIMATE "
	}
	return fmt.Sprintf(`SELECT C.ID, C.CHUNK, C.PAGE_NUM, VECTOR_DISTANCE(C.VEC, :1, COSINE) AS D, B.NAME
FROM CHUNKS C, BOOKS B
WHERE C.BOOK_ID = B.ID
ORDER BY D
FETCH %sFIRST %d ROWS ONLY`, clause, topK)
}

// Config holds connection settings for the Oracle store.
type Config struct {
	// DSN is a full go-ora connection URL. When set it takes precedence
	// over the individual fields below.
	DSN string

	// Server, Port and Service identify the database listener.
	Server  string
	Port    int
	Service string

	// User and Password authenticate the session.
	User     string
	Password string

	// WalletPath points at encrypted wallet material for mTLS connections
	// (e.g. Autonomous Database). Optional.
	WalletPath string

	// WalletPassword unlocks the wallet. Optional.
	WalletPassword string

	// Tracer wraps Query in a span. Defaults to the no-op tracer.
	Tracer tracing.Tracer
}

// dsn resolves the connection URL from the config.
func (c Config) dsn() string {
	if c.DSN != "" {
		return withWallet(c.DSN, c.WalletPath, c.WalletPassword)
	}

	options := map[string]string{}
	if c.WalletPath != "" {
		options["wallet"] = c.WalletPath
	}
	if c.WalletPassword != "" {
		options["wallet password"] = c.WalletPassword
	}

	return go_ora.BuildUrl(c.Server, c.Port, c.Service, c.User, c.Password, options)
}

// withWallet folds wallet options into an already-built connection URL.
func withWallet(dsn, walletPath, walletPassword string) string {
	if walletPath == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}

	q := u.Query()
	q.Set("wallet", walletPath)
	if walletPassword != "" {
		q.Set("wallet password", walletPassword)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Store implements vector.Store on Oracle 23ai.
//
// The staging buffer is unsynchronized; concurrent Add/Persist on one Store
// must be serialized by the caller. Query and Persist each run as one
// independent round trip against the pooled connection.
type Store struct {
	db     *sql.DB
	codec  vecenc.Codec
	stage  *vector.Stage
	tracer tracing.Tracer
	logger *zap.Logger
}

// New opens a pooled connection to Oracle and verifies it is reachable.
// The codec's precision must match the VEC column's element format for the
// lifetime of the schema.
func New(ctx context.Context, c Config, codec vecenc.Codec, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("oracle", c.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening oracle database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging oracle database: %v", vector.ErrConnection, err)
	}

	tracer := c.Tracer
	if tracer == nil {
		tracer = tracing.NewNoop()
	}

	logger.Info("oracle vector store initialized",
		zap.String("service", c.Service),
		zap.Int("precision_bits", int(codec.Precision())),
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
// No I/O happens until Persist.
func (s *Store) Add(nodes []vector.Node) []string {
	return s.stage.Put(nodes)
}

// Persist writes every staged node as an individual row insert inside one
// transaction. A failed row is counted and logged but does not abort the
// batch; the transaction is committed as a whole and the stage is cleared
// even when every row failed. A connection or commit failure propagates and
// leaves the stage intact.
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
		var bookID sql.NullString
		if n.BookID != "" {
			bookID = sql.NullString{String: n.BookID, Valid: true}
		}

		blob := s.codec.Encode(n.Embedding)
		if _, err := tx.ExecContext(ctx, insertChunkSQL, n.ID, n.Text, blob, n.PageNum, bookID); err != nil {
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

// Query executes one distance-ranked round trip and filters the top-k rows
// by the similarity floor. Any backend failure is logged, recorded on the
// span, and converted into an empty result so retrieval stays non-fatal for
// the caller.
func (s *Store) Query(ctx context.Context, req vector.QueryRequest) (*vector.QueryResult, error) {
	start := time.Now()

	ctx, span := s.tracer.StartSpan(ctx, "oracle_vector_store.query")
	defer span.End()
	span.SetAttribute("openinference.span.kind", "RETRIEVER")
	span.SetAttribute("tool.name", "oracle_vector_store")
	span.SetAttribute("tool.description", "Oracle DB 23ai")

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

	s.logger.Debug("vector query completed",
		zap.Int("matches", len(matches)),
		zap.Duration("elapsed", res.Elapsed),
	)

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

	rows, err := s.db.QueryContext(ctx, searchSQL(topK, req.Approximate), s.codec.Encode(req.Embedding))
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
		// Scanning CHUNK reads the CLOB to completion before the row is
		// wrapped into a match.
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

	// The floor applies to the already-limited top-k rows, so fewer than
	// topK results may come back even when more qualifying rows exist
	// lower in the full ranking.
	return vector.FilterByFloor(ranked, req.SimilarityFloor), nil
}

// Delete is a reserved slot; chunk removal is not implemented.
func (s *Store) Delete(_ context.Context, id string) error {
	return fmt.Errorf("deleting chunk %q: %w", id, vector.ErrDeleteUnsupported)
}

// UpsertBook creates or renames a book row. Books normally pre-exist; this
// is ingestion glue for the seed pipeline, not part of the Store contract.
func (s *Store) UpsertBook(ctx context.Context, id, name string) error {
	if _, err := s.db.ExecContext(ctx, upsertBookSQL, id, name); err != nil {
		return fmt.Errorf("upserting book %s: %w", id, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
