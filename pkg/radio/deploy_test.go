package radio

import (
	"os"
	"testing"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/journal"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCTID(t *testing.T) {
	h := newHarness(t, "")
	h.seed(340, "azuracast", "main")
	h.status(341, running)

	tests := []struct {
		name    string
		ctid    int
		wantErr bool
	}{
		{"lower bound", 100, false},
		{"upper bound", 999999, false},
		{"below range", 99, true},
		{"above range", 1000000, true},
		{"in inventory", 340, true},
		{"live container", 341, true},
		{"unused", 342, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.m.ValidateCTID(h.rc, tt.ctid)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStationName(t *testing.T) {
	valid := []string{"a", "main", "main-station", "radio-1", "abcdefghijklmnopqrstuvwxyz012345"}
	invalid := []string{"", "-main", "main-", "Main", "main_station", "main station",
		"abcdefghijklmnopqrstuvwxyz0123456"}
	for _, n := range valid {
		assert.NoError(t, ValidateStationName(n), n)
	}
	for _, n := range invalid {
		err := ValidateStationName(n)
		assert.True(t, stack_err.IsValidation(err), n)
	}
}

func TestDeploy_CreatesExactlyOneRow(t *testing.T) {
	h := newHarness(t, "")

	st, err := h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main-station"})
	require.NoError(t, err)
	assert.Equal(t, "azuracast-main-station", st.Hostname)

	rows, err := h.store.List(h.rc.Ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 340, rows[0].CTID)
	assert.Equal(t, "azuracast", rows[0].Platform)
	assert.Equal(t, "azuracast-main-station", rows[0].Hostname)
	assert.Equal(t, "dhcp", rows[0].IP)
	assert.Equal(t, "azuracast station main-station", rows[0].Description)
	assert.Equal(t, "hdd-pool/container-data/azuracast-media/main-station", rows[0].DatasetPath)

	// steps run in order
	order := []string{
		"zfs create -p",
		"pct create 340",
		"pct set 340 -mp0 /hdd-pool/container-data/azuracast-media/main-station,mp=/var/azuracast",
		"pct start 340",
		"pct push 340",
		"pct exec 340 -- bash -c set -euo pipefail",
	}
	last := -1
	for _, prefix := range order {
		idx := h.run.IndexOf(prefix)
		require.GreaterOrEqual(t, idx, 0, prefix)
		assert.Greater(t, idx, last, prefix)
		last = idx
	}

	creates := h.run.Called("zfs create")
	require.Len(t, creates, 1)
	assert.Contains(t, creates[0], "-o recordsize=128K")
	assert.Contains(t, creates[0], "-o quota=500G")
	assert.Contains(t, h.run.Called("pct create")[0], "--net0 name=eth0,bridge=vmbr0,ip=dhcp ")
	assert.Len(t, h.run.Called("pct push 340"), 2)

	info, err := os.Stat(h.m.Creds.Path(340))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	creds, err := h.m.Creds.Read(340)
	require.NoError(t, err)
	assert.NotEmpty(t, creds["MYSQL_PASSWORD"])

	entry, err := h.m.Journal.Load(340)
	require.NoError(t, err)
	assert.Nil(t, entry, "journal is cleared on success")
}

func TestDeploy_StaticIPAndOverrides(t *testing.T) {
	h := newHarness(t, "")
	st, err := h.m.Deploy(h.rc, DeployOptions{
		Platform: "libretime", CTID: 341, Name: "night",
		Cores: 6, MemoryMB: 3072, QuotaGB: 50, IPSuffix: "41",
	})
	require.NoError(t, err)
	assert.Equal(t, "192.168.2.41", st.IP)

	create := h.run.Called("pct create 341")
	require.Len(t, create, 1)
	assert.Contains(t, create[0], "--cores 6 --memory 3072")
	assert.Contains(t, create[0], "ip=192.168.2.41/24,gw=192.168.2.1")
	assert.Contains(t, h.run.Called("zfs create")[0], "-o quota=50G")
}

func TestDeploy_RejectsBeforeAnySideEffect(t *testing.T) {
	tests := []struct {
		name  string
		opts  DeployOptions
		setup func(h *harness)
		check func(t *testing.T, err error)
	}{
		{
			name:  "bad name",
			opts:  DeployOptions{Platform: "azuracast", CTID: 340, Name: "Main_Station"},
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsValidation(err)) },
		},
		{
			name:  "unknown platform",
			opts:  DeployOptions{Platform: "icecast", CTID: 340, Name: "main"},
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsValidation(err)) },
		},
		{
			name:  "ctid out of range",
			opts:  DeployOptions{Platform: "azuracast", CTID: 42, Name: "main"},
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsValidation(err)) },
		},
		{
			name:  "bad ip suffix",
			opts:  DeployOptions{Platform: "azuracast", CTID: 340, Name: "main", IPSuffix: "300"},
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsValidation(err)) },
		},
		{
			name:  "ctid in inventory",
			opts:  DeployOptions{Platform: "azuracast", CTID: 340, Name: "main"},
			setup: func(h *harness) { h.seed(340, "libretime", "other") },
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsPrecondition(err)) },
		},
		{
			name:  "container already exists",
			opts:  DeployOptions{Platform: "azuracast", CTID: 340, Name: "main"},
			setup: func(h *harness) { h.status(340, stopped) },
			check: func(t *testing.T, err error) { assert.True(t, stack_err.IsPrecondition(err)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			if tt.setup != nil {
				tt.setup(h)
			}
			before := h.count()
			_, err := h.m.Deploy(h.rc, tt.opts)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, stack_err.ExitFailure, stack_err.GetExitCode(err))
			assert.Empty(t, h.run.Called("zfs create"))
			assert.Empty(t, h.run.Called("pct create"))
			assert.Equal(t, before, h.count())
		})
	}
}

func TestDeploy_FailureNamesStepAndResumes(t *testing.T) {
	h := newHarness(t, "")
	h.run.On("pct create", failure)

	_, err := h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "container" failed`)
	assert.Zero(t, h.count())

	entry, err := h.m.Journal.Load(340)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, journal.OpDeploy, entry.Operation)
	assert.Equal(t, []string{StepDataset}, entry.Steps)
	assert.Equal(t, "hdd-pool/container-data/azuracast-media/main", entry.Dataset)

	// fix the cause and resume
	h.run.On("pct create", execute.FakeResponse{})
	_, err = h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main", Resume: true})
	require.NoError(t, err)

	assert.Len(t, h.run.Called("zfs create"), 1, "dataset step is not repeated")
	assert.Len(t, h.run.Called("pct create"), 2)
	assert.Equal(t, 1, h.count())
}

func TestDeploy_ResumeAfterInstallReusesSecrets(t *testing.T) {
	h := newHarness(t, "")
	h.run.On("pct exec 340 -- bash -c cat /opt/azuracast/.env",
		execute.FakeResponse{Output: "MYSQL_PASSWORD=\"pw1\"\nMYSQL_ROOT_PASSWORD=\"pw2\"\n"})

	entry, err := h.m.Journal.Begin(journal.OpDeploy, 340, journal.Entry{
		Platform: "azuracast", Hostname: "azuracast-main",
		Dataset: "hdd-pool/container-data/azuracast-media/main",
	}, false)
	require.NoError(t, err)
	for _, s := range []string{StepDataset, StepContainer, StepMount, StepStart, StepInstall} {
		require.NoError(t, h.m.Journal.MarkStep(entry, s))
	}

	_, err = h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main", Resume: true})
	require.NoError(t, err)

	assert.Empty(t, h.run.Called("pct create"))
	creds, err := h.m.Creds.Read(340)
	require.NoError(t, err)
	assert.Equal(t, "pw1", creds["MYSQL_PASSWORD"])
	assert.Equal(t, 1, h.count())
}

func TestDeploy_ResumeWithoutJournal(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main", Resume: true})
	require.Error(t, err)
	assert.True(t, stack_err.IsPrecondition(err))
}

func TestDeploy_MountQueriesExistingDataset(t *testing.T) {
	h := newHarness(t, "")
	h.m.DryRun = true
	h.run.DryRun = true
	h.run.On("zfs list -H -o name", execute.FakeResponse{Output: "hdd-pool/container-data/azuracast-media/main\n"})
	h.run.On("zfs get", execute.FakeResponse{Output: "/mnt/media/main\n"})

	_, err := h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main"})
	require.NoError(t, err)
	assert.Len(t, h.run.Called("zfs get"), 1)
	assert.NotEmpty(t, h.run.Called("pct set 340 -mp0 /mnt/media/main,mp=/var/azuracast"))
}

func TestDeploy_DryRunWritesNothingLocally(t *testing.T) {
	h := newHarness(t, "")
	h.m.DryRun = true
	h.run.DryRun = true
	// nothing was created, so queries keep seeing missing objects
	h.run.On("zfs get", noDataset)

	_, err := h.m.Deploy(h.rc, DeployOptions{Platform: "azuracast", CTID: 340, Name: "main"})
	require.NoError(t, err)
	assert.Empty(t, h.run.Called("zfs get"))
	assert.NotEmpty(t, h.run.Called("pct set 340 -mp0 /hdd-pool/container-data/azuracast-media/main,mp=/var/azuracast"))
	assert.Zero(t, h.count())
	assert.False(t, h.m.Creds.Exists(340))
	entry, err := h.m.Journal.Load(340)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Contains(t, h.stdout.String(), "[dry-run]")
}
