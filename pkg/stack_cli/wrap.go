// pkg/stack_cli/wrap.go

package stack_cli

import (
	"context"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunFunc is the body of a command.
type RunFunc func(rc *stack_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap gives every command a RuntimeContext, a span, panic recovery and
// outcome logging. The command context (cancelled on SIGINT by main) is
// the parent of rc.Ctx.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		rc := stack_io.NewContext(parent, cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		stack_io.LogRuntimeExecutionContext(rc)

		err = fn(rc, cmd, args)
		if err != nil && stack_err.CategoryOf(err) == stack_err.CategorySystem {
			err = cerr.WithStack(err)
		}
		return err
	}
}
