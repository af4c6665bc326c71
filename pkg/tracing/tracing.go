// Package tracing provides an optional span-level tracing seam for the
// retrieval path. Stores receive a Tracer at construction; when tracing is
// disabled they get the no-op implementation instead of branching on a flag.
package tracing

import "context"

// Span is one traced unit of work.
type Span interface {
	// SetAttribute attaches a string attribute to the span.
	SetAttribute(key, value string)

	// SetError marks the span as failed and records the error.
	SetError(err error)

	// End completes the span.
	End()
}

// Tracer starts spans. Implementations must be safe for concurrent use.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) SetError(error)              {}
func (noopSpan) End()                        {}

type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

// NewNoop returns a Tracer whose spans do nothing. This is the default when
// tracing is disabled.
func NewNoop() Tracer {
	return noopTracer{}
}
