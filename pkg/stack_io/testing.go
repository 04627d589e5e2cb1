// pkg/stack_io/testing.go

package stack_io

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

// NewTestContext creates a RuntimeContext suitable for testing
func NewTestContext(t testing.TB) *RuntimeContext {
	_, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), t.Name())
	return &RuntimeContext{
		Ctx:        context.Background(),
		Log:        zaptest.NewLogger(t),
		Span:       span,
		Timestamp:  time.Now(),
		Command:    t.Name(),
		Attributes: make(map[string]string),
	}
}
