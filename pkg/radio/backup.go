// pkg/radio/backup.go

package radio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/TecnoSoul/InfraStack/pkg/zfs_management"
	cerr "github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type BackupKind string

const (
	BackupContainer   BackupKind = "container"
	BackupApplication BackupKind = "application"
	BackupFull        BackupKind = "full"
)

// ParseBackupKind accepts container, application or full.
func ParseBackupKind(s string) (BackupKind, error) {
	switch k := BackupKind(s); k {
	case BackupContainer, BackupApplication, BackupFull:
		return k, nil
	default:
		return "", stack_err.NewValidationError(
			fmt.Sprintf("invalid backup type %q", s), "use container, application or full")
	}
}

// BackupResult describes what one backup produced.
type BackupResult struct {
	CTID        int
	Kind        BackupKind
	Archive     string
	AppExport   string
	Snapshot    string
	Duration    time.Duration
	Application bool
}

// Backup backs up one station and exports the result as metrics.
func (m *Manager) Backup(rc *stack_io.RuntimeContext, ctid int, kind BackupKind) (*BackupResult, error) {
	if err := CheckCTIDRange(ctid); err != nil {
		return nil, err
	}
	st, err := m.Store.Find(rc.Ctx, ctid)
	if err != nil && !cerr.Is(err, inventory.ErrNotFound) {
		return nil, err
	}
	if st == nil {
		if kind != BackupContainer {
			return nil, stack_err.NewPreconditionError(
				fmt.Sprintf("CTID %d not found in inventory", ctid),
				"application and full backups need the inventory record")
		}
		m.Out.Warn("CTID %d is not in the inventory; backing up the container only", ctid)
		st = &inventory.Station{CTID: ctid}
	}

	res, err := m.backupOne(rc, *st, kind)
	m.flushMetrics(rc)
	if err != nil {
		return nil, err
	}
	m.reportBackup(res)
	return res, nil
}

// BackupAll backs up every station, continuing past failures.
func (m *Manager) BackupAll(rc *stack_io.RuntimeContext, kind BackupKind) error {
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		m.Out.Warn("No stations to back up")
		return nil
	}

	var result *multierror.Error
	for _, st := range rows {
		m.Out.Step("Backing up %s (CTID %d, %s)", st.Hostname, st.CTID, kind)
		res, err := m.backupOne(rc, st, kind)
		if err != nil {
			m.Out.Error("Backup of CTID %d failed: %v", st.CTID, err)
			result = multierror.Append(result, fmt.Errorf("ctid %d: %w", st.CTID, err))
			continue
		}
		m.reportBackup(res)
	}
	m.flushMetrics(rc)
	return summarize(m, "backup", len(rows), result)
}

func (m *Manager) backupOne(rc *stack_io.RuntimeContext, st inventory.Station, kind BackupKind) (*BackupResult, error) {
	logger := otelzap.Ctx(rc.Ctx)
	start := m.Now()
	res := &BackupResult{CTID: st.CTID, Kind: kind}

	exists, err := m.PCT.Exists(rc.Ctx, st.CTID)
	if err == nil && !exists {
		err = stack_err.NewPreconditionError(fmt.Sprintf("container %d does not exist", st.CTID))
	}

	if err == nil {
		switch kind {
		case BackupContainer:
			err = m.backupContainer(rc, res)
		case BackupApplication:
			err = m.backupApplication(rc, st, res)
		case BackupFull:
			err = m.backupFull(rc, st, res)
		default:
			_, err = ParseBackupKind(string(kind))
		}
	}

	res.Duration = m.Now().Sub(start)
	m.Metrics.Observe(st.CTID, st.Platform, string(kind), err == nil, res.Duration, start)
	logger.Info("Backup finished",
		zap.Int("ctid", st.CTID),
		zap.String("kind", string(kind)),
		zap.Duration("duration", res.Duration),
		zap.Error(err))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Manager) backupContainer(rc *stack_io.RuntimeContext, res *BackupResult) error {
	out, err := m.PCT.Backup(rc.Ctx, res.CTID, proxmox.BackupOptions{
		Storage:  m.Config.Backup.Storage,
		Mode:     m.Config.Backup.Mode,
		Compress: m.Config.Backup.Compress,
	})
	if err != nil {
		return err
	}
	res.Archive = archiveFromVzdump(out)
	return nil
}

// backupApplication runs the platform export. Platforms without one are a
// warning, not a failure.
func (m *Manager) backupApplication(rc *stack_io.RuntimeContext, st inventory.Station, res *BackupResult) error {
	plat, err := m.Platforms.Lookup(st.Platform)
	if err != nil {
		m.Out.Warn("No application backup for platform %q", st.Platform)
		return nil
	}
	script, file, err := plat.BackupScript(m.Now().Format(zfs_management.SnapshotTimeLayout))
	if err != nil {
		return err
	}
	if script == "" {
		m.Out.Warn("No application backup for platform %q", st.Platform)
		return nil
	}
	if err := m.requireRunning(rc, st.CTID); err != nil {
		return err
	}
	if _, err := m.PCT.Exec(rc.Ctx, st.CTID, script); err != nil {
		return err
	}
	res.Application = true
	res.AppExport = file
	return nil
}

// backupFull is a container backup followed by exactly one snapshot of the
// media dataset.
func (m *Manager) backupFull(rc *stack_io.RuntimeContext, st inventory.Station, res *BackupResult) error {
	if err := m.backupContainer(rc, res); err != nil {
		return err
	}
	dataset := st.Dataset(m.pool())
	if dataset == "" {
		m.Out.Warn("Cannot resolve the dataset for CTID %d; skipping snapshot", st.CTID)
		return nil
	}
	snap, err := m.ZFS.CreateSnapshot(rc.Ctx, dataset, zfs_management.SnapshotName(m.Now()))
	if err != nil {
		return err
	}
	res.Snapshot = snap
	return nil
}

func (m *Manager) reportBackup(res *BackupResult) {
	m.Out.Success("Backup of CTID %d (%s) finished in %s", res.CTID, res.Kind, res.Duration.Round(time.Second))
	if res.Archive != "" {
		m.Out.Info("Archive: %s", res.Archive)
	}
	if res.AppExport != "" {
		m.Out.Info("Application export: %s (inside the container)", res.AppExport)
	}
	if res.Snapshot != "" {
		m.Out.Info("Snapshot: %s", res.Snapshot)
	}
}

func (m *Manager) flushMetrics(rc *stack_io.RuntimeContext) {
	if m.DryRun {
		return
	}
	paths, err := m.Metrics.WriteTextfiles(m.Config.Metrics.TextfileDir)
	if err != nil {
		m.Out.Warn("Could not write backup metrics: %v", err)
		return
	}
	if len(paths) > 0 {
		otelzap.Ctx(rc.Ctx).Debug("Backup metrics written", zap.Strings("paths", paths))
	}
}

// BackupListing is what ListBackups found.
type BackupListing struct {
	Archives  []proxmox.BackupVolume
	Snapshots []zfs_management.Snapshot
}

// ListBackups lists the vzdump archives for ctid, or for every container
// when ctid is zero. For a single inventoried station it also lists the
// backup snapshots of its media dataset.
func (m *Manager) ListBackups(rc *stack_io.RuntimeContext, ctid int) (*BackupListing, error) {
	if ctid != 0 {
		if err := CheckCTIDRange(ctid); err != nil {
			return nil, err
		}
	}
	storage := m.Config.Backup.Storage
	volumes, err := m.PCT.ListBackups(rc.Ctx, storage, ctid)
	if err != nil {
		return nil, err
	}
	listing := &BackupListing{Archives: volumes}

	if len(volumes) == 0 {
		if ctid != 0 {
			m.Out.Warn("No backups found for CTID %d on %s", ctid, storage)
		} else {
			m.Out.Warn("No container backups found on %s", storage)
		}
	} else {
		rows := make([][]string, 0, len(volumes))
		for _, v := range volumes {
			rows = append(rows, []string{
				v.VolID, v.Format, humanize.IBytes(uint64(v.Size)), strconv.Itoa(v.VMID),
			})
		}
		m.Out.StatusTable([]string{"VOLID", "FORMAT", "SIZE", "CTID"}, rows)
	}

	if ctid == 0 {
		return listing, nil
	}
	snaps, err := m.backupSnapshots(rc, ctid)
	if err != nil {
		return nil, err
	}
	listing.Snapshots = snaps
	if len(snaps) > 0 {
		rows := make([][]string, 0, len(snaps))
		for _, s := range snaps {
			rows = append(rows, []string{s.FullName(), s.Created.Format(time.DateTime), snapshotSize(s.Used)})
		}
		m.Out.StatusTable([]string{"SNAPSHOT", "CREATED", "USED"}, rows)
	}
	return listing, nil
}

// backupSnapshots returns the backup-* snapshots of the station's dataset.
// Stations outside the inventory, or without a dataset, have none.
func (m *Manager) backupSnapshots(rc *stack_io.RuntimeContext, ctid int) ([]zfs_management.Snapshot, error) {
	st, err := m.Store.Find(rc.Ctx, ctid)
	if cerr.Is(err, inventory.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dataset := st.Dataset(m.pool())
	if dataset == "" {
		return nil, nil
	}

	all, err := m.ZFS.ListSnapshots(rc.Ctx, dataset)
	if err != nil {
		if stack_err.IsPrecondition(err) {
			m.Out.Warn("Dataset %s does not exist; no snapshots to list", dataset)
			return nil, nil
		}
		return nil, err
	}
	var snaps []zfs_management.Snapshot
	for _, s := range all {
		if strings.HasPrefix(s.Name, zfs_management.SnapshotPrefix) {
			snaps = append(snaps, s)
		}
	}
	return snaps, nil
}

// snapshotSize renders zfs -p byte counts.
func snapshotSize(used string) string {
	n, err := strconv.ParseUint(used, 10, 64)
	if err != nil {
		return used
	}
	return humanize.IBytes(n)
}

// archiveFromVzdump pulls the archive path out of vzdump's log.
func archiveFromVzdump(output string) string {
	const marker = "creating vzdump archive '"
	for _, line := range strings.Split(output, "\n") {
		_, rest, ok := strings.Cut(line, marker)
		if !ok {
			continue
		}
		if archive, _, ok := strings.Cut(rest, "'"); ok {
			return archive
		}
	}
	return ""
}
