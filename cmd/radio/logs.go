// cmd/radio/logs.go

package radio

import (
	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
)

var logsOpts stations.LogsOptions

// LogsCmd shows container or application logs of a station.
var LogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show station logs",
	Long: `Show the container's system journal, the platform's compose logs, or
both. --follow streams until interrupted and needs a single log type.`,
	Example: `  infrastack radio logs -i 340
  infrastack radio logs -i 340 -t container -n 200
  infrastack radio logs -i 340 -f -s web`,
	Args: cobra.NoArgs,
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		return m.Logs(rc, logsOpts)
	}),
}

func init() {
	LogsCmd.Flags().IntVarP(&logsOpts.CTID, "ctid", "i", 0, "Container to read logs from")
	LogsCmd.Flags().StringVarP(&logsOpts.Kind, "type", "t", "application", "Log type: container, application or both")
	LogsCmd.Flags().IntVarP(&logsOpts.Lines, "lines", "n", stations.DefaultLogLines, "Number of lines to show")
	LogsCmd.Flags().BoolVarP(&logsOpts.Follow, "follow", "f", false, "Stream new lines until interrupted")
	LogsCmd.Flags().StringVarP(&logsOpts.Service, "service", "s", "", "Compose service (default: the platform's main service)")
	_ = LogsCmd.MarkFlagRequired("ctid")
}
