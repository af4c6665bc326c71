package nop_test

import (
	"context"
	"errors"
	"testing"

	"github.com/papyri/bookvec/pkg/eventstream"
	"github.com/papyri/bookvec/pkg/eventstream/nop"
)

func TestPublishAcceptsEvent(t *testing.T) {
	p := nop.NewPublisher()
	defer p.Close()

	err := p.PublishChunksPersisted(context.Background(), &eventstream.ChunksPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeChunksPersisted,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPublishRejectsNil(t *testing.T) {
	p := nop.NewPublisher()
	defer p.Close()

	if err := p.PublishChunksPersisted(context.Background(), nil); !errors.Is(err, eventstream.ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}
