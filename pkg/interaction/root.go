// pkg/interaction/root.go
package interaction

import (
	"os"
	"strings"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// RequireRoot fails with a permission error unless euid is 0. euid is
// passed in so callers can substitute it in tests; production passes
// os.Geteuid().
func RequireRoot(rc *stack_io.RuntimeContext, commandName string, euid int) error {
	if euid == 0 {
		return nil
	}
	otelzap.Ctx(rc.Ctx).Info("Root privileges required",
		zap.String("command", commandName),
		zap.Int("current_uid", euid))

	return stack_err.NewPermissionError(commandName, "run",
		"re-run with sudo: sudo "+strings.Join(os.Args, " "))
}
