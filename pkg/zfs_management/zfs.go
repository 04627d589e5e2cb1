// pkg/zfs_management/zfs.go
package zfs_management

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Client wraps the zfs command.
type Client struct {
	Runner execute.Runner
}

// NewClient returns a zfs client on runner.
func NewClient(runner execute.Runner) *Client {
	return &Client{Runner: runner}
}

// SnapshotName returns the backup snapshot name for t.
func SnapshotName(t time.Time) string {
	return SnapshotPrefix + t.Format(SnapshotTimeLayout)
}

func isMissing(output string) bool {
	return strings.Contains(output, "does not exist")
}

// DatasetExists reports whether name is a dataset.
func (c *Client) DatasetExists(ctx context.Context, name string) (bool, error) {
	out, err := c.Runner.Run(ctx, execute.Options{
		Command: "zfs",
		Args:    []string{"list", "-H", "-o", "name", name},
	})
	if err != nil {
		if isMissing(out) {
			return false, nil
		}
		return false, stack_err.NewExternalError("zfs list", err, out)
	}
	return strings.TrimSpace(out) == name, nil
}

// CreateDataset creates name with props and parents. It is idempotent: an
// existing dataset is left untouched and reported with created=false.
func (c *Client) CreateDataset(ctx context.Context, name string, props DatasetProperties) (bool, error) {
	logger := otelzap.Ctx(ctx)

	if name == "" {
		return false, stack_err.NewValidationError("dataset name cannot be empty")
	}

	exists, err := c.DatasetExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Info("ZFS dataset already exists, skipping create", zap.String("dataset", name))
		return false, nil
	}

	args := []string{"create", "-p"}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-o", k+"="+props[k])
	}
	args = append(args, name)

	out, err := c.Runner.Run(ctx, execute.Options{Command: "zfs", Args: args, Mutating: true})
	if err != nil {
		if strings.Contains(out, "already exists") {
			logger.Info("ZFS dataset appeared concurrently, treating as success", zap.String("dataset", name))
			return false, nil
		}
		return false, stack_err.NewExternalError("zfs create", err, out)
	}

	logger.Info("ZFS dataset created", zap.String("dataset", name), zap.Any("properties", props))
	return true, nil
}

// Mountpoint returns the dataset's mountpoint property.
func (c *Client) Mountpoint(ctx context.Context, name string) (string, error) {
	out, err := c.Runner.Run(ctx, execute.Options{
		Command: "zfs",
		Args:    []string{"get", "-H", "-o", "value", "mountpoint", name},
	})
	if err != nil {
		if isMissing(out) {
			return "", stack_err.NewPreconditionError(fmt.Sprintf("dataset %s does not exist", name))
		}
		return "", stack_err.NewExternalError("zfs get", err, out)
	}
	mp := strings.TrimSpace(out)
	if mp == "" || mp == "-" {
		mp = DefaultMountpoint(name)
	}
	return mp, nil
}

// DefaultMountpoint is where zfs mounts name when no mountpoint property
// is set on it or its parents.
func DefaultMountpoint(name string) string {
	return "/" + name
}

// DestroyDataset destroys name. A missing dataset is reported as a
// precondition failure so the caller can decide whether that matters.
func (c *Client) DestroyDataset(ctx context.Context, name string, recursive bool) error {
	logger := otelzap.Ctx(ctx)
	if name == "" {
		return stack_err.NewValidationError("dataset name cannot be empty")
	}

	args := []string{"destroy"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, name)

	logger.Info("Destroying ZFS dataset", zap.String("dataset", name), zap.Bool("recursive", recursive))
	out, err := c.Runner.Run(ctx, execute.Options{Command: "zfs", Args: args, Mutating: true})
	if err != nil {
		if isMissing(out) {
			return stack_err.NewPreconditionError(fmt.Sprintf("dataset %s does not exist", name))
		}
		return stack_err.NewExternalError("zfs destroy", err, out)
	}
	logger.Info("ZFS dataset destroyed", zap.String("dataset", name))
	return nil
}

// CreateSnapshot takes dataset@name.
func (c *Client) CreateSnapshot(ctx context.Context, dataset, name string) (string, error) {
	full := dataset + "@" + name
	out, err := c.Runner.Run(ctx, execute.Options{
		Command:  "zfs",
		Args:     []string{"snapshot", full},
		Mutating: true,
	})
	if err != nil {
		return "", stack_err.NewExternalError("zfs snapshot", err, out)
	}
	otelzap.Ctx(ctx).Info("ZFS snapshot created", zap.String("snapshot", full))
	return full, nil
}

// ListSnapshots returns the snapshots directly under dataset, oldest first.
func (c *Client) ListSnapshots(ctx context.Context, dataset string) ([]Snapshot, error) {
	out, err := c.Runner.Run(ctx, execute.Options{
		Command: "zfs",
		Args:    []string{"list", "-H", "-p", "-t", "snapshot", "-o", "name,creation,used", "-s", "creation", "-d", "1", dataset},
	})
	if err != nil {
		if isMissing(out) {
			return nil, stack_err.NewPreconditionError(fmt.Sprintf("dataset %s does not exist", dataset))
		}
		return nil, stack_err.NewExternalError("zfs list", err, out)
	}
	return parseSnapshots(out), nil
}

func parseSnapshots(output string) []Snapshot {
	snapshots := make([]Snapshot, 0)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		ds, name, ok := strings.Cut(fields[0], "@")
		if !ok {
			continue
		}
		snap := Snapshot{Dataset: ds, Name: name, Used: fields[2]}
		if epoch, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			snap.Created = time.Unix(epoch, 0)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
