// cmd/radio/info.go

package radio

import (
	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
)

var (
	infoCTID    int
	infoSummary bool
)

// InfoCmd prints what the inventory knows, without touching containers.
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show inventory information",
	Long: `Without flags the whole inventory is listed. --ctid shows one station with
its dataset, credentials file and any unfinished journal entry. --summary
counts stations per platform.`,
	Args: cobra.NoArgs,
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		switch {
		case cmd.Flags().Changed("ctid"):
			return m.Info(rc, infoCTID)
		case infoSummary:
			_, err := m.Summary(rc)
			return err
		default:
			_, err := m.List(rc)
			return err
		}
	}),
}

func init() {
	InfoCmd.Flags().IntVarP(&infoCTID, "ctid", "i", 0, "Show one station")
	InfoCmd.Flags().BoolVarP(&infoSummary, "summary", "s", false, "Count stations per platform")
	InfoCmd.MarkFlagsMutuallyExclusive("ctid", "summary")
}
