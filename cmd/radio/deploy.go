// cmd/radio/deploy.go

package radio

import (
	"strconv"
	"strings"

	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deployOpts stations.DeployOptions

// DeployCmd provisions a new station.
var DeployCmd = &cobra.Command{
	Use:   "deploy <platform>",
	Short: "Deploy a new radio station container",
	Long: `Create the media dataset, the LXC container and the platform's compose
stack, then record the station in the inventory.

A failed deploy is not rolled back. Fix the cause and rerun with --resume to
continue from the last completed step.`,
	Example: `  infrastack radio deploy azuracast -i 340 -n main-station -p 140
  infrastack radio deploy libretime -i 341 -n night-shift -m 8192 -q 400`,
	Args: cobra.ExactArgs(1),
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		opts := deployOpts
		opts.Platform = strings.ToLower(args[0])
		rc.Attributes["ctid"] = strconv.Itoa(opts.CTID)
		rc.Attributes["platform"] = opts.Platform

		rc.Log.Info("Deploying station",
			zap.String("platform", opts.Platform),
			zap.Int("ctid", opts.CTID),
			zap.String("name", opts.Name),
			zap.Bool("resume", opts.Resume))

		_, err := m.Deploy(rc, opts)
		return err
	}),
}

func init() {
	DeployCmd.Flags().IntVarP(&deployOpts.CTID, "ctid", "i", 0, "Container ID (100-999999)")
	DeployCmd.Flags().StringVarP(&deployOpts.Name, "name", "n", "", "Station name, used for the hostname and dataset")
	DeployCmd.Flags().IntVarP(&deployOpts.Cores, "cores", "c", 0, "CPU cores (default: platform default)")
	DeployCmd.Flags().IntVarP(&deployOpts.MemoryMB, "memory", "m", 0, "Memory in MiB (default: platform default)")
	DeployCmd.Flags().IntVarP(&deployOpts.QuotaGB, "quota", "q", 0, "Media dataset quota in GiB (default: platform default)")
	DeployCmd.Flags().StringVarP(&deployOpts.IPSuffix, "ip", "p", "", "Last octet of a static address; omit for DHCP")
	DeployCmd.Flags().BoolVar(&deployOpts.Resume, "resume", false, "Continue an interrupted deploy from its journal")

	_ = DeployCmd.MarkFlagRequired("ctid")
	_ = DeployCmd.MarkFlagRequired("name")
}
