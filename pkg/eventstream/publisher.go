package eventstream

import "context"

// Publisher publishes persist events to an event stream backend.
type Publisher interface {
	PublishChunksPersisted(ctx context.Context, event *ChunksPersistedEvent) error
	Close() error
}
