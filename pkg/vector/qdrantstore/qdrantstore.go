// Package qdrantstore implements vector.Store against a Qdrant collection.
// Qdrant has no relational join, so the owning book is carried as point
// payload rather than resolved at query time.
package qdrantstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/vector"
)

const (
	// DefaultCollection is the collection used when none is configured.
	DefaultCollection = "chunks"

	// DefaultTopK bounds the raw ranked rows when the request leaves TopK
	// unset.
	DefaultTopK = 10

	// grpcPort is Qdrant's default gRPC port (HTTP is 6333).
	grpcPort = 6334
)

// Config holds connection settings for the Qdrant store.
type Config struct {
	// URL is the Qdrant server URL, e.g. "http://localhost:6334".
	URL string

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the vector width used when the collection is created.
	Dimensions int

	// Tracer wraps Query in a span. Defaults to the no-op tracer.
	Tracer tracing.Tracer
}

// Store implements vector.Store on Qdrant.
//
// Persist has no transaction boundary here: points are upserted one at a
// time with per-row failure counting, matching the batch tolerance of the
// SQL backends without their commit atomicity.
type Store struct {
	client     *qdrant.Client
	collection string
	stage      *vector.Stage
	tracer     tracing.Tracer
	logger     *zap.Logger
}

// New connects to Qdrant and ensures the collection exists with cosine
// distance.
func New(ctx context.Context, c Config, logger *zap.Logger) (*Store, error) {
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions must be configured")
	}

	parsed, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant URL: %w", err)
	}

	port := grpcPort
	if p := parsed.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n != 6333 {
			port = n
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   parsed.Hostname(),
		Port:                   port,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	if _, err := client.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection existence: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	tracer := c.Tracer
	if tracer == nil {
		tracer = tracing.NewNoop()
	}

	logger.Info("qdrant vector store initialized",
		zap.String("collection", collection),
		zap.Int("dimensions", c.Dimensions),
	)

	return &Store{
		client:     client,
		collection: collection,
		stage:      vector.NewStage(),
		tracer:     tracer,
		logger:     logger,
	}, nil
}

// pointID maps a chunk id onto Qdrant's numeric point id space.
func pointID(id string) uint64 {
	h := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(h[:8])
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func buildPayload(n vector.Node) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value)
	payload["id"], _ = qdrant.NewValue(n.ID)
	payload["chunk"], _ = qdrant.NewValue(n.Text)
	payload["page_num"], _ = qdrant.NewValue(float64(n.PageNum))
	payload["book_id"], _ = qdrant.NewValue(n.BookID)
	return payload
}

// Add stages nodes in memory and returns the ids staged by this call.
func (s *Store) Add(nodes []vector.Node) []string {
	return s.stage.Put(nodes)
}

// Persist upserts every staged node, counting per-point failures without
// aborting the batch, and clears the stage afterwards.
func (s *Store) Persist(ctx context.Context) (*vector.PersistResult, error) {
	if s.stage.Len() == 0 {
		return &vector.PersistResult{}, nil
	}

	nodes := s.stage.Nodes()
	res := &vector.PersistResult{Staged: len(nodes)}

	s.logger.Info("persisting staged chunks", zap.Int("count", len(nodes)))

	for _, n := range nodes {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points: []*qdrant.PointStruct{
				{
					Id:      qdrant.NewIDNum(pointID(n.ID)),
					Vectors: qdrant.NewVectors(toFloat32(n.Embedding)...),
					Payload: buildPayload(n),
				},
			},
		})
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, vector.RowError{ID: n.ID, Err: err})
			s.logger.Error("chunk upsert failed", zap.String("id", n.ID), zap.Error(err))
			continue
		}
		res.Written++
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

// Query runs one KNN round trip limited to top-k points, then filters by the
// similarity floor. Backend failures are logged and converted into an empty
// result.
func (s *Store) Query(ctx context.Context, req vector.QueryRequest) (*vector.QueryResult, error) {
	start := time.Now()

	ctx, span := s.tracer.StartSpan(ctx, "qdrant_vector_store.query")
	defer span.End()
	span.SetAttribute("openinference.span.kind", "RETRIEVER")
	span.SetAttribute("tool.name", "qdrant_vector_store")

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

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(toFloat32(req.Embedding)...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	var ranked []vector.Match
	for _, point := range points {
		payload := point.Payload

		// Cosine scores from Qdrant are similarities already; book names
		// are not resolvable without a join, so the book id stands in.
		ranked = append(ranked, vector.Match{
			ID:         payload["id"].GetStringValue(),
			Text:       payload["chunk"].GetStringValue(),
			PageNum:    int(payload["page_num"].GetDoubleValue()),
			BookName:   payload["book_id"].GetStringValue(),
			Similarity: float64(point.Score),
		})
	}

	return vector.FilterByFloor(ranked, req.SimilarityFloor), nil
}

// Delete is a reserved slot; chunk removal is not implemented.
func (s *Store) Delete(_ context.Context, id string) error {
	return fmt.Errorf("deleting chunk %q: %w", id, vector.ErrDeleteUnsupported)
}

// Close releases the client connection.
func (s *Store) Close() error {
	s.stage.Reset()
	return s.client.Close()
}
