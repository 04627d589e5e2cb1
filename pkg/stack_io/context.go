// pkg/stack_io/context.go

package stack_io

import (
	"context"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/shared"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-invocation context, logger and span
// through every operation. There is exactly one per process run.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Attributes map[string]string
}

// NewContext opens the command span and scopes the global logger to it.
func NewContext(parent context.Context, cmdName string) *RuntimeContext {
	ctx, span := telemetry.Start(parent, cmdName)
	traceID := span.SpanContext().TraceID().String()

	logger := zap.L().With(
		zap.String("command", cmdName),
		zap.String("trace_id", traceID),
	).Named(cmdName)

	return &RuntimeContext{
		Ctx:        ctx,
		Span:       span,
		Log:        logger,
		Timestamp:  time.Now(),
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// End logs outcome and closes the command span with key attributes.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	duration := time.Since(rc.Timestamp)
	var err error
	if errPtr != nil {
		err = *errPtr
	}

	if err == nil {
		rc.Log.Debug("Command completed", zap.Duration("duration", duration))
	} else {
		rc.Log.Debug("Command failed", zap.Duration("duration", duration), zap.Error(err))
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("args", strings.Join(os.Args[1:], " ")),
		attribute.String("version", shared.Version),
		attribute.String("error_type", classifyError(err)),
	}
	for k, v := range rc.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	rc.Span.SetAttributes(attrs...)
	if err != nil {
		rc.Span.RecordError(err)
	}
}

// LogRuntimeExecutionContext records who is running the command.
func LogRuntimeExecutionContext(rc *RuntimeContext) {
	currentUser, err := user.Current()
	if err != nil {
		rc.Log.Debug("Failed to get current user", zap.Error(err))
		return
	}
	rc.Log.Debug("User context",
		zap.String("username", currentUser.Username),
		zap.Int("effective_uid", os.Geteuid()),
	)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	switch stack_err.CategoryOf(err) {
	case stack_err.CategoryValidation:
		return "validation"
	case stack_err.CategoryPrecondition:
		return "precondition"
	case stack_err.CategoryExternal:
		return "external"
	case stack_err.CategoryUser:
		return "user"
	case stack_err.CategoryPermission:
		return "permission"
	default:
		return "system"
	}
}
