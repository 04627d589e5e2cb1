// pkg/proxmox/types.go
package proxmox

import "strconv"

// ContainerStatus is the live state reported by `pct status`, independent
// of anything recorded in the inventory.
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not-found"
	StatusUnknown  ContainerStatus = "unknown"
)

// ContainerConfig is the subset of `pct config` the CLI reports, plus the
// raw key/value pairs.
type ContainerConfig struct {
	CTID     int
	Hostname string
	Cores    int
	Memory   int // MiB
	Swap     int // MiB
	OSType   string
	Rootfs   string
	Net0     string
	Raw      map[string]string
}

// CreateOptions are the `pct create` parameters the radio deploy uses.
type CreateOptions struct {
	CTID          int
	Template      string
	Hostname      string
	Cores         int
	Memory        int // MiB
	Swap          int // MiB
	RootfsStorage string
	DiskGB        int
	Bridge        string
	// IP is "dhcp" or an address in CIDR notation.
	IP           string
	Gateway      string
	Unprivileged bool
	Nesting      bool
	OnBoot       bool
	Description  string
}

// BackupOptions parameterize vzdump.
type BackupOptions struct {
	Storage  string
	Mode     string // snapshot | suspend | stop
	Compress string // zstd | gzip | lzo | 0
}

// BackupVolume is one line of `pvesm list --content backup`.
type BackupVolume struct {
	VolID  string
	Format string
	Size   int64
	VMID   int
}

func itoa(i int) string { return strconv.Itoa(i) }
