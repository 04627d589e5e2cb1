// cmd/radio/status.go

package radio

import (
	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
)

var (
	statusAll      bool
	statusPlatform string
	statusCTID     int
)

// StatusCmd reports live container state for stations.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live status of stations",
	Long: `Without flags, or with --all, every inventory row is listed with its live
container state. --platform narrows the table to one platform and --ctid
shows the details of a single container.`,
	Args: cobra.NoArgs,
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		switch {
		case cmd.Flags().Changed("ctid"):
			_, err := m.StatusSingle(rc, statusCTID)
			return err
		case statusPlatform != "":
			_, err := m.StatusByPlatform(rc, statusPlatform)
			return err
		default:
			_, err := m.StatusAll(rc)
			return err
		}
	}),
}

func init() {
	StatusCmd.Flags().BoolVarP(&statusAll, "all", "a", false, "Show every station (default)")
	StatusCmd.Flags().StringVarP(&statusPlatform, "platform", "p", "", "Only stations of this platform")
	StatusCmd.Flags().IntVarP(&statusCTID, "ctid", "i", 0, "Show one container in detail")
	StatusCmd.MarkFlagsMutuallyExclusive("all", "platform", "ctid")
}
