package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitDisabledUsesNoop(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Init("infrastack-test"))
	assert.False(t, IsEnabled())

	ctx, span := Start(context.Background(), "noop", attribute.String("k", "v"))
	defer span.End()
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestInitEnabledWritesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".infrastack"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".infrastack", "telemetry_on"), nil, 0o600))

	require.NoError(t, Init("infrastack-test"))
	_, span := Start(context.Background(), "radio.status")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(home, ".infrastack", "telemetry", "telemetry.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "radio.status")
}

func TestStartStepTagsStation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".infrastack"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".infrastack", "telemetry_on"), nil, 0o600))
	require.NoError(t, Init("infrastack-test"))

	_, span := StartStep(context.Background(), "deploy", "dataset", 340, "azuracast")
	EndStep(span, errors.New("zfs create failed"))
	require.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(home, ".infrastack", "telemetry", "telemetry.jsonl"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "radio.deploy.dataset")
	assert.Contains(t, out, "station.ctid")
	assert.Contains(t, out, "zfs create failed")
}
