package radio

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/config"
	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/interaction"
	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/output"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/stretchr/testify/require"
)

var (
	notFound = execute.FakeResponse{
		Output:   "Configuration file 'nodes/pve/lxc/340.conf' does not exist",
		ExitCode: 2,
	}
	running      = execute.FakeResponse{Output: "status: running\n"}
	stopped      = execute.FakeResponse{Output: "status: stopped\n"}
	failure      = execute.FakeResponse{Output: "command failed: something broke", ExitCode: 1}
	noDataset    = execute.FakeResponse{Output: "cannot open 'x': dataset does not exist", ExitCode: 1}
	fixedNow     = time.Date(2025, 3, 14, 10, 15, 0, 0, time.UTC)
	snapshotName = `backup-\d{8}-\d{6}`
)

type harness struct {
	t      *testing.T
	m      *Manager
	run    *execute.FakeRunner
	store  *inventory.CSVStore
	cfg    *config.Config
	rc     *stack_io.RuntimeContext
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newHarness builds a Manager over a fake runner where every container and
// dataset is absent until a test says otherwise. input feeds the prompts.
func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		RootDir:   dir,
		StateDir:  filepath.Join(dir, "state"),
		Inventory: config.InventoryConfig{Path: filepath.Join(dir, "inventory", "stations.csv"), Backend: "csv"},
		ZFS:       config.ZFSConfig{Pool: "hdd-pool"},
		Proxmox: config.ProxmoxConfig{
			Template:      "local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst",
			RootfsStorage: "local-lvm",
			Bridge:        "vmbr0",
		},
		Network: config.NetworkConfig{Prefix: "192.168.2", CIDR: 24, Gateway: "192.168.2.1"},
		Backup:  config.BackupConfig{Storage: "backup-storage", Mode: "snapshot", Compress: "zstd"},
		Metrics: config.MetricsConfig{TextfileDir: filepath.Join(dir, "metrics")},
	}

	run := execute.NewFakeRunner()
	run.On("pct status", notFound)
	run.On("pct config", notFound)
	run.On("zfs list -H -o name", noDataset)

	store := inventory.NewCSVStore(cfg.Inventory.Path)
	var stdout, stderr bytes.Buffer
	m := NewManager(cfg, store, run,
		interaction.NewPrompter(strings.NewReader(input), &bytes.Buffer{}),
		output.New(&stdout, &stderr))
	m.Now = func() time.Time { return fixedNow }
	m.Euid = func() int { return 0 }
	m.StagingDir = dir

	return &harness{
		t: t, m: m, run: run, store: store, cfg: cfg,
		rc:     stack_io.NewTestContext(t),
		stdout: &stdout,
		stderr: &stderr,
	}
}

// seed appends a station row with an explicit dataset.
func (h *harness) seed(ctid int, platform, name string) inventory.Station {
	h.t.Helper()
	st := inventory.Station{
		CTID:        ctid,
		Platform:    platform,
		Hostname:    platform + "-" + name,
		IP:          "dhcp",
		Description: platform + " station " + name,
		Created:     fixedNow,
		Status:      "active",
		DatasetPath: inventory.DatasetPath("hdd-pool", platform, name),
	}
	require.NoError(h.t, h.store.Append(h.rc.Ctx, st))
	return st
}

func (h *harness) count() int {
	h.t.Helper()
	n, err := inventory.Count(h.rc.Ctx, h.store)
	require.NoError(h.t, err)
	return n
}

func (h *harness) status(ctid int, resp execute.FakeResponse) {
	h.run.On("pct status "+strconv.Itoa(ctid), resp)
}
