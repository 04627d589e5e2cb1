// pkg/zfs_management/types.go
package zfs_management

import "time"

// SnapshotPrefix marks snapshots taken by radio backups.
const SnapshotPrefix = "backup-"

// SnapshotTimeLayout gives backup-YYYYMMDD-HHMMSS names; one-second
// granularity is the collision boundary.
const SnapshotTimeLayout = "20060102-150405"

// Snapshot is one entry of `zfs list -t snapshot`.
type Snapshot struct {
	Dataset string
	Name    string
	Created time.Time
	Used    string
}

// FullName returns dataset@name.
func (s Snapshot) FullName() string {
	return s.Dataset + "@" + s.Name
}

// DatasetProperties are passed as -o key=value on create.
type DatasetProperties map[string]string
