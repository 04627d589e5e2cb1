package proxmox

import (
	"bytes"
	"context"
	"testing"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		resp    execute.FakeResponse
		want    ContainerStatus
		wantErr bool
	}{
		{name: "running", resp: execute.FakeResponse{Output: "status: running\n"}, want: StatusRunning},
		{name: "stopped", resp: execute.FakeResponse{Output: "status: stopped\n"}, want: StatusStopped},
		{name: "garbled", resp: execute.FakeResponse{Output: "???\n"}, want: StatusUnknown},
		{
			name: "missing",
			resp: execute.FakeResponse{Output: "Configuration file 'nodes/pve/lxc/340.conf' does not exist\n", ExitCode: 2},
			want: StatusNotFound,
		},
		{name: "tool failure", resp: execute.FakeResponse{Output: "ipcc_send_rec failed", ExitCode: 255}, want: StatusUnknown, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := execute.NewFakeRunner().On("pct status 340", tt.resp)
			got, err := NewClient(f).Status(context.Background(), 340)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stack_err.IsExternal(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestExists(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().
		On("pct status 340", execute.FakeResponse{Output: "status: stopped"}).
		On("pct status 341", execute.FakeResponse{Output: "does not exist", ExitCode: 2})
	c := NewClient(f)

	ok, err := c.Exists(context.Background(), 340)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), 341)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfig(t *testing.T) {
	t.Parallel()
	out := `arch: amd64
cores: 4
features: keyctl=1,nesting=1
hostname: azuracast-main-station
memory: 4096
mp0: /hdd-pool/container-data/azuracast-media/main-station,mp=/var/azuracast/stations
net0: name=eth0,bridge=vmbr0,gw=192.168.2.1,ip=192.168.2.40/24,type=veth
ostype: debian
rootfs: local-lvm:vm-340-disk-0,size=50G
swap: 512
`
	f := execute.NewFakeRunner().On("pct config 340", execute.FakeResponse{Output: out})
	cfg, err := NewClient(f).Config(context.Background(), 340)
	require.NoError(t, err)

	assert.Equal(t, "azuracast-main-station", cfg.Hostname)
	assert.Equal(t, 4, cfg.Cores)
	assert.Equal(t, 4096, cfg.Memory)
	assert.Equal(t, 512, cfg.Swap)
	assert.Equal(t, "debian", cfg.OSType)
	assert.Contains(t, cfg.Raw["mp0"], "mp=/var/azuracast/stations")

	missing := execute.NewFakeRunner().On("pct config", execute.FakeResponse{Output: "does not exist", ExitCode: 2})
	_, err = NewClient(missing).Config(context.Background(), 999)
	assert.True(t, stack_err.IsPrecondition(err))
}

func TestCreateArgs(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner()
	err := NewClient(f).Create(context.Background(), CreateOptions{
		CTID:          340,
		Template:      "local:vztmpl/debian.tar.zst",
		Hostname:      "azuracast-main-station",
		Cores:         4,
		Memory:        4096,
		Swap:          512,
		RootfsStorage: "local-lvm",
		DiskGB:        50,
		Bridge:        "vmbr0",
		IP:            "192.168.2.40/24",
		Gateway:       "192.168.2.1",
		Unprivileged:  true,
		Nesting:       true,
		OnBoot:        true,
	})
	require.NoError(t, err)
	require.Len(t, f.Calls, 1)
	assert.Equal(t, "pct create 340 local:vztmpl/debian.tar.zst --hostname azuracast-main-station --cores 4 --memory 4096 --swap 512 "+
		"--rootfs local-lvm:50 --net0 name=eth0,bridge=vmbr0,ip=192.168.2.40/24,gw=192.168.2.1 --unprivileged 1 --onboot 1 "+
		"--features nesting=1,keyctl=1", f.Calls[0])
}

func TestNetSpecDHCP(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "name=eth0,bridge=vmbr0,ip=dhcp", netSpec(CreateOptions{Bridge: "vmbr0", IP: "dhcp", Gateway: "192.168.2.1"}))
}

func TestLifecycleCommands(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner()
	c := NewClient(f)
	ctx := context.Background()

	require.NoError(t, c.SetMountpoint(ctx, 340, 0, "/hdd-pool/x", "/var/azuracast/stations"))
	require.NoError(t, c.Start(ctx, 340))
	require.NoError(t, c.Stop(ctx, 340))
	require.NoError(t, c.Destroy(ctx, 340))
	require.NoError(t, c.Push(ctx, 340, "/tmp/a", "/root/a", "0644"))
	_, err := c.Exec(ctx, 340, "echo hi")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pct set 340 -mp0 /hdd-pool/x,mp=/var/azuracast/stations",
		"pct start 340",
		"pct stop 340",
		"pct destroy 340 --purge",
		"pct push 340 /tmp/a /root/a --perms 0644",
		"pct exec 340 -- bash -c echo hi",
	}, f.Calls)
}

func TestDestroyMissing(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().On("pct destroy", execute.FakeResponse{Output: "CT 340 does not exist", ExitCode: 2})
	err := NewClient(f).Destroy(context.Background(), 340)
	assert.True(t, stack_err.IsPrecondition(err))
}

func TestExecStream(t *testing.T) {
	t.Parallel()
	f := execute.NewFakeRunner().On("pct exec 340", execute.FakeResponse{Output: "log line\n"})
	var buf bytes.Buffer
	require.NoError(t, NewClient(f).ExecStream(context.Background(), 340, "journalctl -n 5", &buf, &buf))
	assert.Equal(t, "log line\n", buf.String())
}
