package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedJournal(t *testing.T) *Journal {
	j := New(filepath.Join(t.TempDir(), "journal"))
	j.Now = func() time.Time { return time.Date(2025, 3, 14, 10, 15, 0, 0, time.UTC) }
	return j
}

func TestLoadMissing(t *testing.T) {
	j := fixedJournal(t)
	e, err := j.Load(340)
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.False(t, e.Done("dataset"))
	assert.Empty(t, e.LastStep())
}

func TestBeginMarkLoad(t *testing.T) {
	j := fixedJournal(t)
	e, err := j.Begin(OpDeploy, 340, Entry{Platform: "azuracast", Hostname: "azuracast-main", Dataset: "hdd-pool/x"}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, e.OperationID)

	require.NoError(t, j.MarkStep(e, "dataset"))
	require.NoError(t, j.MarkStep(e, "container"))
	require.NoError(t, j.MarkStep(e, "dataset"))

	got, err := j.Load(340)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"dataset", "container"}, got.Steps)
	assert.Equal(t, "container", got.LastStep())
	assert.Equal(t, "hdd-pool/x", got.Dataset)
	assert.Equal(t, e.OperationID, got.OperationID)
	assert.True(t, got.Done("dataset"))
	assert.False(t, got.Done("start"))
}

func TestBeginResume(t *testing.T) {
	j := fixedJournal(t)
	first, err := j.Begin(OpDeploy, 340, Entry{}, false)
	require.NoError(t, err)
	require.NoError(t, j.MarkStep(first, "dataset"))

	resumed, err := j.Begin(OpDeploy, 340, Entry{}, true)
	require.NoError(t, err)
	assert.Equal(t, first.OperationID, resumed.OperationID)
	assert.True(t, resumed.Done("dataset"))

	fresh, err := j.Begin(OpDeploy, 340, Entry{}, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.OperationID, fresh.OperationID)
	assert.Empty(t, fresh.Steps)

	// a different operation is never resumed
	other, err := j.Begin(OpRemove, 340, Entry{}, true)
	require.NoError(t, err)
	assert.Equal(t, OpRemove, other.Operation)
	assert.Empty(t, other.Steps)
}

func TestClear(t *testing.T) {
	j := fixedJournal(t)
	_, err := j.Begin(OpDeploy, 340, Entry{}, false)
	require.NoError(t, err)
	require.NoError(t, j.Clear(340))
	_, statErr := os.Stat(filepath.Join(j.Dir, "340.yaml"))
	assert.True(t, os.IsNotExist(statErr))
	require.NoError(t, j.Clear(340))
}
