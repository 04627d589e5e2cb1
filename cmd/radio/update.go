// cmd/radio/update.go

package radio

import (
	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
)

var (
	updateCTID     int
	updatePlatform string
	updateAll      bool
)

// UpdateCmd pulls and restarts the compose stack of one or more stations.
var UpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the platform inside station containers",
	Long: `Run the platform's update procedure inside running containers. With
--platform or --all, every matching station is attempted and failures are
reported together at the end.`,
	Args: cobra.NoArgs,
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		switch {
		case cmd.Flags().Changed("ctid"):
			return m.Update(rc, updateCTID)
		case updatePlatform != "":
			return m.UpdatePlatform(rc, updatePlatform)
		default:
			return m.UpdateAll(rc)
		}
	}),
}

func init() {
	UpdateCmd.Flags().IntVarP(&updateCTID, "ctid", "i", 0, "Update one container")
	UpdateCmd.Flags().StringVarP(&updatePlatform, "platform", "p", "", "Update every station of this platform")
	UpdateCmd.Flags().BoolVarP(&updateAll, "all", "a", false, "Update every station")
	UpdateCmd.MarkFlagsOneRequired("ctid", "platform", "all")
	UpdateCmd.MarkFlagsMutuallyExclusive("ctid", "platform", "all")
}
