// cmd/radio/remove.go

package radio

import (
	"strconv"

	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	removeOpts     stations.RemoveOptions
	removePurgeAll bool
)

// RemoveCmd destroys stations.
var RemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a station container",
	Long: `Stop and destroy a station's container, then drop it from the inventory
and delete its credentials file. The media dataset is kept unless --data is
given, which asks for a second confirmation.

--purge-all destroys every inventoried container after typing DELETE.
Datasets are never touched by --purge-all.`,
	Example: `  infrastack radio remove -i 340
  infrastack radio remove -i 340 --data --yes
  infrastack radio remove --purge-all`,
	Args: cobra.NoArgs,
	RunE: run(func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error {
		if removePurgeAll {
			rc.Attributes["purge_all"] = "true"
			res, err := m.PurgeAll(rc)
			if res != nil {
				rc.Log.Info("Purge finished", zap.Int("destroyed", res.Destroyed), zap.Int("failed", res.Failed))
			}
			return err
		}

		rc.Attributes["ctid"] = strconv.Itoa(removeOpts.CTID)
		res, err := m.Remove(rc, removeOpts)
		if res != nil {
			rc.Log.Info("Remove finished",
				zap.Int("ctid", removeOpts.CTID),
				zap.Bool("container_destroyed", res.ContainerDestroyed),
				zap.Bool("dataset_destroyed", res.DatasetDestroyed))
		}
		return err
	}),
}

func init() {
	RemoveCmd.Flags().IntVarP(&removeOpts.CTID, "ctid", "i", 0, "Container to remove")
	RemoveCmd.Flags().BoolVarP(&removeOpts.Data, "data", "d", false, "Also destroy the media dataset")
	RemoveCmd.Flags().BoolVarP(&removeOpts.Yes, "yes", "y", false, "Answer yes to the confirmations")
	RemoveCmd.Flags().BoolVar(&removePurgeAll, "purge-all", false, "Destroy every inventoried container")
	RemoveCmd.MarkFlagsOneRequired("ctid", "purge-all")
	RemoveCmd.MarkFlagsMutuallyExclusive("ctid", "purge-all")
}
