package zfs_management

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ds = "hdd-pool/container-data/azuracast-media/main-station"

func TestSnapshotName(t *testing.T) {
	t.Parallel()
	name := SnapshotName(time.Date(2026, 10, 18, 9, 5, 3, 0, time.UTC))
	assert.Equal(t, "backup-20261018-090503", name)
	assert.Regexp(t, regexp.MustCompile(`^backup-\d{8}-\d{6}$`), name)
}

func TestCreateDatasetIdempotent(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().On("zfs list -H -o name "+ds, execute.FakeResponse{Output: ds + "\n"})
	c := NewClient(f)

	created, err := c.CreateDataset(context.Background(), ds, DatasetProperties{"compression": "lz4"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, f.Called("zfs create"))
}

func TestCreateDatasetNew(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().
		On("zfs list", execute.FakeResponse{Output: "cannot open '" + ds + "': dataset does not exist", ExitCode: 1})
	c := NewClient(f)

	created, err := c.CreateDataset(context.Background(), ds, DatasetProperties{"recordsize": "1M", "compression": "lz4"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"zfs create -p -o compression=lz4 -o recordsize=1M " + ds}, f.Called("zfs create"))
}

func TestCreateDatasetRaceAlreadyExists(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().
		On("zfs list", execute.FakeResponse{Output: "dataset does not exist", ExitCode: 1}).
		On("zfs create", execute.FakeResponse{Output: "cannot create: dataset already exists", ExitCode: 1})

	created, err := NewClient(f).CreateDataset(context.Background(), ds, nil)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateDatasetFailure(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().
		On("zfs list", execute.FakeResponse{Output: "dataset does not exist", ExitCode: 1}).
		On("zfs create", execute.FakeResponse{Output: "cannot create: out of space", ExitCode: 1})

	_, err := NewClient(f).CreateDataset(context.Background(), ds, nil)
	require.Error(t, err)
	assert.True(t, stack_err.IsExternal(err))
}

func TestMountpoint(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().On("zfs get", execute.FakeResponse{Output: "/" + ds + "\n"})
	mp, err := NewClient(f).Mountpoint(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "/"+ds, mp)

	missing := execute.NewFakeRunner().On("zfs get", execute.FakeResponse{Output: "dataset does not exist", ExitCode: 1})
	_, err = NewClient(missing).Mountpoint(context.Background(), ds)
	assert.True(t, stack_err.IsPrecondition(err))
}

func TestDestroyDataset(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner()
	require.NoError(t, NewClient(f).DestroyDataset(context.Background(), ds, true))
	assert.Equal(t, []string{"zfs destroy -r " + ds}, f.Calls)

	missing := execute.NewFakeRunner().On("zfs destroy", execute.FakeResponse{Output: "dataset does not exist", ExitCode: 1})
	err := NewClient(missing).DestroyDataset(context.Background(), ds, false)
	assert.True(t, stack_err.IsPrecondition(err))
}

func TestCreateSnapshot(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner()
	full, err := NewClient(f).CreateSnapshot(context.Background(), ds, "backup-20261018-090503")
	require.NoError(t, err)
	assert.Equal(t, ds+"@backup-20261018-090503", full)
	assert.Equal(t, []string{"zfs snapshot " + full}, f.Calls)
}

func TestListSnapshots(t *testing.T) {
	t.Parallel()
	out := ds + "@backup-20261017-010000\t1760662800\t1024\n" +
		ds + "@backup-20261018-010000\t1760749200\t2048\n" +
		"garbage line\n"
	f := execute.NewFakeRunner().On("zfs list -H -p -t snapshot", execute.FakeResponse{Output: out})

	snaps, err := NewClient(f).ListSnapshots(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "backup-20261017-010000", snaps[0].Name)
	assert.Equal(t, ds, snaps[0].Dataset)
	assert.Equal(t, int64(1760662800), snaps[0].Created.Unix())
	assert.Equal(t, ds+"@backup-20261018-010000", snaps[1].FullName())
}
