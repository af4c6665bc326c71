package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/vecenc"
	"github.com/papyri/bookvec/pkg/vector"
	"github.com/papyri/bookvec/pkg/vector/oraclestore"
	"github.com/papyri/bookvec/pkg/vector/pgstore"
	"github.com/papyri/bookvec/pkg/vector/qdrantstore"
	"github.com/papyri/bookvec/pkg/vector/sqlitestore"
)

// NewStoreOpts selects and configures a vector store backend.
type NewStoreOpts struct {
	// Provider is one of "oracle", "postgres", "sqlite", "qdrant".
	Provider string

	// Target is the backend's connection target: a DSN for oracle, a
	// connection string for postgres, a file path for sqlite, a server URL
	// for qdrant.
	Target string

	// Dimensions is the embedding width for backends that create schema.
	Dimensions int

	// PrecisionBits is the vector element width (32 or 64) for backends
	// that bind the binary wire format.
	PrecisionBits int

	// WalletPath points at Oracle wallet material for mTLS connections.
	// Ignored by other providers.
	WalletPath string

	Tracer tracing.Tracer
	Logger *zap.Logger
}

// NewStore constructs the configured vector store backend.
func NewStore(ctx context.Context, o *NewStoreOpts) (vector.Store, error) {
	switch o.Provider {
	case "oracle":
		codec, err := vecenc.New(vecenc.Precision(o.PrecisionBits))
		if err != nil {
			return nil, err
		}
		return oraclestore.New(ctx, oraclestore.Config{
			DSN:        o.Target,
			WalletPath: o.WalletPath,
			Tracer:     o.Tracer,
		}, codec, o.Logger)
	case "postgres":
		return pgstore.New(ctx, pgstore.Config{
			ConnString: o.Target,
			Dimensions: o.Dimensions,
			Tracer:     o.Tracer,
		}, o.Logger)
	case "sqlite":
		return sqlitestore.New(sqlitestore.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
			Tracer:     o.Tracer,
		}, o.Logger)
	case "qdrant":
		return qdrantstore.New(ctx, qdrantstore.Config{
			URL:        o.Target,
			Dimensions: o.Dimensions,
			Tracer:     o.Tracer,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.Provider)
	}
}
