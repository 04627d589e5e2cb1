// pkg/proxmox/pct.go
package proxmox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Client wraps pct, vzdump and pvesm.
type Client struct {
	Runner execute.Runner
}

// NewClient returns a Proxmox client on runner.
func NewClient(runner execute.Runner) *Client {
	return &Client{Runner: runner}
}

func notFound(output string) bool {
	return strings.Contains(output, "does not exist")
}

func (c *Client) pct(ctx context.Context, mutating bool, args ...string) (string, error) {
	return c.Runner.Run(ctx, execute.Options{Command: "pct", Args: args, Mutating: mutating})
}

// Status queries the live state of ctid. A container that does not exist
// yields StatusNotFound with a nil error; unparseable or failed queries
// yield StatusUnknown along with the error.
func (c *Client) Status(ctx context.Context, ctid int) (ContainerStatus, error) {
	out, err := c.pct(ctx, false, "status", itoa(ctid))
	if err != nil {
		if notFound(out) {
			return StatusNotFound, nil
		}
		return StatusUnknown, stack_err.NewExternalError("pct status", err, out)
	}
	return parseStatus(out), nil
}

func parseStatus(output string) ContainerStatus {
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || strings.TrimSpace(key) != "status" {
			continue
		}
		switch strings.TrimSpace(value) {
		case "running":
			return StatusRunning
		case "stopped":
			return StatusStopped
		}
	}
	return StatusUnknown
}

// Exists reports whether ctid is a container on this node.
func (c *Client) Exists(ctx context.Context, ctid int) (bool, error) {
	status, err := c.Status(ctx, ctid)
	if err != nil {
		return false, err
	}
	return status != StatusNotFound, nil
}

// Config returns the parsed `pct config` of ctid.
func (c *Client) Config(ctx context.Context, ctid int) (*ContainerConfig, error) {
	out, err := c.pct(ctx, false, "config", itoa(ctid))
	if err != nil {
		if notFound(out) {
			return nil, stack_err.NewPreconditionError(fmt.Sprintf("container %d does not exist", ctid))
		}
		return nil, stack_err.NewExternalError("pct config", err, out)
	}
	return parseConfig(ctid, out), nil
}

func parseConfig(ctid int, output string) *ContainerConfig {
	cfg := &ContainerConfig{CTID: ctid, Raw: map[string]string{}}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		cfg.Raw[key] = value
		switch key {
		case "hostname":
			cfg.Hostname = value
		case "cores":
			cfg.Cores, _ = strconv.Atoi(value)
		case "memory":
			cfg.Memory, _ = strconv.Atoi(value)
		case "swap":
			cfg.Swap, _ = strconv.Atoi(value)
		case "ostype":
			cfg.OSType = value
		case "rootfs":
			cfg.Rootfs = value
		case "net0":
			cfg.Net0 = value
		}
	}
	return cfg
}

// Create runs `pct create`.
func (c *Client) Create(ctx context.Context, opts CreateOptions) error {
	logger := otelzap.Ctx(ctx)

	args := []string{"create", itoa(opts.CTID), opts.Template,
		"--hostname", opts.Hostname,
		"--cores", itoa(opts.Cores),
		"--memory", itoa(opts.Memory),
		"--swap", itoa(opts.Swap),
		"--rootfs", fmt.Sprintf("%s:%d", opts.RootfsStorage, opts.DiskGB),
		"--net0", netSpec(opts),
		"--unprivileged", boolFlag(opts.Unprivileged),
		"--onboot", boolFlag(opts.OnBoot),
	}
	if opts.Nesting {
		args = append(args, "--features", "nesting=1,keyctl=1")
	}
	if opts.Description != "" {
		args = append(args, "--description", opts.Description)
	}

	logger.Info("Creating LXC container",
		zap.Int("ctid", opts.CTID),
		zap.String("hostname", opts.Hostname),
		zap.Int("cores", opts.Cores),
		zap.Int("memory_mb", opts.Memory),
		zap.Int("disk_gb", opts.DiskGB))

	out, err := c.pct(ctx, true, args...)
	if err != nil {
		return stack_err.NewExternalError("pct create", err, out)
	}
	return nil
}

func netSpec(opts CreateOptions) string {
	spec := fmt.Sprintf("name=eth0,bridge=%s,ip=%s", opts.Bridge, opts.IP)
	if opts.IP != "dhcp" && opts.Gateway != "" {
		spec += ",gw=" + opts.Gateway
	}
	return spec
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SetMountpoint binds hostPath into the container as mp<index>.
func (c *Client) SetMountpoint(ctx context.Context, ctid, index int, hostPath, ctPath string) error {
	out, err := c.pct(ctx, true, "set", itoa(ctid),
		fmt.Sprintf("-mp%d", index), fmt.Sprintf("%s,mp=%s", hostPath, ctPath))
	if err != nil {
		return stack_err.NewExternalError("pct set", err, out)
	}
	return nil
}

// Start starts ctid.
func (c *Client) Start(ctx context.Context, ctid int) error {
	out, err := c.pct(ctx, true, "start", itoa(ctid))
	if err != nil {
		return stack_err.NewExternalError("pct start", err, out)
	}
	return nil
}

// Stop stops ctid.
func (c *Client) Stop(ctx context.Context, ctid int) error {
	out, err := c.pct(ctx, true, "stop", itoa(ctid))
	if err != nil {
		return stack_err.NewExternalError("pct stop", err, out)
	}
	return nil
}

// Destroy removes ctid and its root disk. Mountpoints that reference
// external datasets are not touched by pct.
func (c *Client) Destroy(ctx context.Context, ctid int) error {
	out, err := c.pct(ctx, true, "destroy", itoa(ctid), "--purge")
	if err != nil {
		if notFound(out) {
			return stack_err.NewPreconditionError(fmt.Sprintf("container %d does not exist", ctid))
		}
		return stack_err.NewExternalError("pct destroy", err, out)
	}
	return nil
}

// Exec runs script with bash inside ctid and returns its output.
func (c *Client) Exec(ctx context.Context, ctid int, script string) (string, error) {
	out, err := c.pct(ctx, true, "exec", itoa(ctid), "--", "bash", "-c", script)
	if err != nil {
		return out, stack_err.NewExternalError(fmt.Sprintf("pct exec %d", ctid), err, out)
	}
	return out, nil
}

// ExecStream runs script inside ctid with output passed through.
func (c *Client) ExecStream(ctx context.Context, ctid int, script string, stdout, stderr io.Writer) error {
	err := c.Runner.Stream(ctx, execute.Options{
		Command: "pct",
		Args:    []string{"exec", itoa(ctid), "--", "bash", "-c", script},
	}, stdout, stderr)
	if err != nil {
		return stack_err.NewExternalError(fmt.Sprintf("pct exec %d", ctid), err, execute.OutputOf(err))
	}
	return nil
}

// Push copies a host file into ctid.
func (c *Client) Push(ctx context.Context, ctid int, src, dst, perms string) error {
	args := []string{"push", itoa(ctid), src, dst}
	if perms != "" {
		args = append(args, "--perms", perms)
	}
	out, err := c.pct(ctx, true, args...)
	if err != nil {
		return stack_err.NewExternalError("pct push", err, out)
	}
	return nil
}
