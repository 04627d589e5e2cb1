// cmd/radio/radio.go

package radio

import (
	"os"

	"github.com/TecnoSoul/InfraStack/pkg/config"
	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/interaction"
	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/output"
	stations "github.com/TecnoSoul/InfraStack/pkg/radio"
	"github.com/TecnoSoul/InfraStack/pkg/stack_cli"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RadioCmd groups the radio station lifecycle commands.
var RadioCmd = &cobra.Command{
	Use:   "radio",
	Short: "Deploy and manage radio station containers",
	Long: `Radio commands deploy AzuraCast and LibreTime stations into Proxmox LXC
containers, report their status, update and back them up, show their logs
and remove them. Every station is recorded in the inventory.`,
	RunE: stack_cli.Wrap(func(rc *stack_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}),
}

func init() {
	RadioCmd.AddCommand(DeployCmd)
	RadioCmd.AddCommand(StatusCmd)
	RadioCmd.AddCommand(UpdateCmd)
	RadioCmd.AddCommand(BackupCmd)
	RadioCmd.AddCommand(LogsCmd)
	RadioCmd.AddCommand(InfoCmd)
	RadioCmd.AddCommand(RemoveCmd)
}

// managerFor builds the Manager a command runs against and a func that
// releases it. Tests swap it for one backed by a fake runner.
var managerFor = newManager

func newManager(rc *stack_io.RuntimeContext, cmd *cobra.Command) (*stations.Manager, func(), error) {
	configFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := inventory.Open(cfg.Inventory)
	if err != nil {
		return nil, nil, err
	}

	rc.Log.Debug("Using inventory",
		zap.String("backend", cfg.Inventory.Backend),
		zap.String("path", cfg.Inventory.Path),
		zap.Bool("dry_run", dryRun))

	if !interaction.IsTerminal(os.Stdin) {
		rc.Log.Debug("stdin is not a terminal; confirmations are read from it as plain lines")
	}

	runner := execute.NewExecRunner(rc.Log, dryRun, cfg.Exec.Timeout)
	m := stations.NewManager(cfg, store, runner, interaction.Stdio(), output.Stdio())
	m.DryRun = dryRun
	m.StagingDir = cfg.StateDir

	release := func() {
		if err := store.Close(); err != nil {
			rc.Log.Warn("Failed to close inventory", zap.Error(err))
		}
	}
	return m, release, nil
}

// run wraps a command body that needs a Manager.
func run(fn func(rc *stack_io.RuntimeContext, m *stations.Manager, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return stack_cli.Wrap(func(rc *stack_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		m, release, err := managerFor(rc, cmd)
		if err != nil {
			return err
		}
		defer release()
		return fn(rc, m, cmd, args)
	})
}
