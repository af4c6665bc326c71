package vector

import "errors"

var (
	// ErrDeleteUnsupported is returned by every Store's Delete. The slot is
	// reserved in the interface but no backend implements removal yet.
	ErrDeleteUnsupported = errors.New("delete is not supported by this vector store")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")
)
