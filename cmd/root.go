/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"

	"github.com/TecnoSoul/InfraStack/cmd/radio"
	"github.com/TecnoSoul/InfraStack/pkg/logger"
	"github.com/TecnoSoul/InfraStack/pkg/output"
	"github.com/TecnoSoul/InfraStack/pkg/shared"
	"github.com/TecnoSoul/InfraStack/pkg/stack_cli"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RootCmd is the base command for infrastack.
var RootCmd = &cobra.Command{
	Use:   shared.BinaryName,
	Short: "Manage radio station containers on a Proxmox host",
	Long: `infrastack deploys, inspects, backs up and removes radio station
containers (AzuraCast, LibreTime) on Proxmox LXC with ZFS media datasets.
Stations are tracked in a local inventory.`,
	Version:       shared.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logger.SetLevel(zapcore.DebugLevel)
		}
	},
	RunE: stack_cli.Wrap(func(rc *stack_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		output.Stdio().Warn("No subcommand provided. Try `%s help`.", shared.BinaryName)
		return cmd.Help()
	}),
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file (default $INFRASTACK_ROOT/infrastack.yaml)")
	RootCmd.PersistentFlags().Bool("dry-run", false, "Log mutating commands instead of running them")
	RootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	RegisterCommands()
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.AddCommand(radio.RadioCmd)
}

// Execute runs the root command under ctx and returns the process exit
// code. Declining a confirmation is not a failure.
func Execute(ctx context.Context) int {
	err := RootCmd.ExecuteContext(ctx)
	if err == nil {
		return stack_err.ExitOK
	}

	log := logger.L()
	if stack_err.IsUserCancelled(err) {
		log.Warn("Operation cancelled", zap.Error(err))
		output.Stdio().Warn("%v", err)
		return stack_err.ExitOK
	}

	log.Error("Command failed", zap.Error(err))
	printError(output.Stdio(), err)
	return stack_err.GetExitCode(err)
}

func printError(p *output.Printer, err error) {
	p.Error("%v", err)
	for _, hint := range cerr.GetAllHints(err) {
		fmt.Fprintf(p.Err, "  hint: %s\n", hint)
	}
}
