package execute

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestExecRunnerRun(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), false, 0)

	out, err := r.Run(context.Background(), Options{Command: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecRunnerExitCode(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), false, 0)

	out, err := r.Run(context.Background(), Options{Command: "sh", Args: []string{"-c", "echo 'error: nope' >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, out, "error: nope")
	assert.Contains(t, OutputOf(err), "error: nope")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), false, 0)
	_, err := r.Run(context.Background(), Options{Command: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.Equal(t, -1, ExitCode(err))
}

func TestExecRunnerDryRunSkipsMutating(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), true, 0)

	out, err := r.Run(context.Background(), Options{Command: "false", Mutating: true})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = r.Run(context.Background(), Options{Command: "false"})
	require.Error(t, err, "queries still run in dry-run mode")
}

func TestExecRunnerTimeout(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), false, 50*time.Millisecond)
	_, err := r.Run(context.Background(), Options{Command: "sleep", Args: []string{"5"}})
	require.Error(t, err)
}

func TestExecRunnerStream(t *testing.T) {
	r := NewExecRunner(zaptest.NewLogger(t), false, 0)
	var out bytes.Buffer
	require.NoError(t, r.Stream(context.Background(), Options{Command: "echo", Args: []string{"line"}}, &out, &out))
	assert.Equal(t, "line\n", out.String())
}

func TestFakeRunner(t *testing.T) {
	f := NewFakeRunner().
		On("pct status", FakeResponse{Output: "status: running\n"}).
		On("pct status 999", FakeResponse{Output: "does not exist", ExitCode: 2})

	out, err := f.Run(context.Background(), Options{Command: "pct", Args: []string{"status", "340"}})
	require.NoError(t, err)
	assert.Equal(t, "status: running\n", out)

	_, err = f.Run(context.Background(), Options{Command: "pct", Args: []string{"status", "999"}})
	assert.Equal(t, 2, ExitCode(err))

	assert.Equal(t, []string{"pct status 340", "pct status 999"}, f.Called("pct status"))
	assert.Equal(t, 1, f.IndexOf("pct status 999"))
	assert.Equal(t, -1, f.IndexOf("zfs"))
}

func TestFakeRunnerDryRun(t *testing.T) {
	f := NewFakeRunner().
		On("zfs", FakeResponse{Output: "cannot open: dataset does not exist", ExitCode: 1})
	f.DryRun = true

	out, err := f.Run(context.Background(), Options{Command: "zfs", Args: []string{"create", "tank/a"}, Mutating: true})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = f.Run(context.Background(), Options{Command: "zfs", Args: []string{"get", "mountpoint", "tank/a"}})
	assert.Equal(t, 1, ExitCode(err))

	assert.Equal(t, []string{"zfs create tank/a", "zfs get mountpoint tank/a"}, f.Calls)
}
