// cmd/radio/backup.go

package radio

import (
	"fmt"
	"strconv"

	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
)

var (
	backupCTID int
	backupAll  bool
	backupType string
	backupList bool
)

// BackupCmd backs up stations or lists existing container backups.
var BackupCmd = &cobra.Command{
	Use:   "backup [CTID]",
	Short: "Back up stations or list existing backups",
	Long: `Backup types:
  container    vzdump of the whole container (default)
  application  the platform's own export, run inside the container
  full         vzdump followed by a snapshot of the media dataset

--list shows the container backups on the backup storage, for one CTID
(given with -i or as an argument) or for all of them. For a single station
it also shows the backup snapshots of its media dataset.`,
	Example: `  infrastack radio backup -i 340
  infrastack radio backup -a -t full
  infrastack radio backup -l 340`,
	Args: cobra.MaximumNArgs(1),
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		ctid := backupCTID
		if len(args) == 1 {
			if !backupList {
				return stack_err.NewValidationError("a positional CTID is only accepted with --list", "use -i CTID")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return stack_err.NewValidationError(fmt.Sprintf("invalid CTID %q", args[0]))
			}
			ctid = n
		}

		if backupList {
			_, err := m.ListBackups(rc, ctid)
			return err
		}

		kind, err := stations.ParseBackupKind(backupType)
		if err != nil {
			return err
		}
		if backupAll {
			return m.BackupAll(rc, kind)
		}
		if !cmd.Flags().Changed("ctid") {
			return stack_err.NewValidationError("nothing to back up", "pass -i CTID or -a")
		}
		_, err = m.Backup(rc, ctid, kind)
		return err
	}),
}

func init() {
	BackupCmd.Flags().IntVarP(&backupCTID, "ctid", "i", 0, "Container to back up")
	BackupCmd.Flags().BoolVarP(&backupAll, "all", "a", false, "Back up every station")
	BackupCmd.Flags().StringVarP(&backupType, "type", "t", string(stations.BackupContainer), "Backup type: container, application or full")
	BackupCmd.Flags().BoolVarP(&backupList, "list", "l", false, "List existing container backups")
	BackupCmd.MarkFlagsMutuallyExclusive("ctid", "all")
	BackupCmd.MarkFlagsMutuallyExclusive("list", "all")
}
