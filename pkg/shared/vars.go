// pkg/shared/vars.go

package shared

// Version is overridden at build time with -ldflags "-X .../shared.Version=...".
var Version = "dev"

const (
	BinaryName = "infrastack"
	EnvPrefix  = "INFRASTACK"

	// EnvConfig points at an alternative config file.
	EnvConfig = "INFRASTACK_CONFIG"
	// EnvRoot overrides the root directory for inventory, credentials and state.
	EnvRoot = "INFRASTACK_ROOT"

	DefaultRootDir = "/opt/infrastack"
)
