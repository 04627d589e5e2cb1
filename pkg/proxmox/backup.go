// pkg/proxmox/backup.go
package proxmox

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Backup runs vzdump for ctid. Failures are returned, never retried.
func (c *Client) Backup(ctx context.Context, ctid int, opts BackupOptions) (string, error) {
	args := []string{itoa(ctid), "--storage", opts.Storage, "--mode", opts.Mode}
	if opts.Compress != "" {
		args = append(args, "--compress", opts.Compress)
	}

	otelzap.Ctx(ctx).Info("Starting container backup",
		zap.Int("ctid", ctid),
		zap.String("storage", opts.Storage),
		zap.String("mode", opts.Mode),
		zap.String("compress", opts.Compress))

	out, err := c.Runner.Run(ctx, execute.Options{Command: "vzdump", Args: args, Mutating: true})
	if err != nil {
		return out, stack_err.NewExternalError("vzdump", err, out)
	}
	return out, nil
}

// BackupPattern is the vzdump archive name prefix for ctid.
func BackupPattern(ctid int) string {
	return fmt.Sprintf("vzdump-lxc-%d-", ctid)
}

// ListBackups lists backup volumes on storage. With ctid > 0 only that
// container's LXC archives are returned; otherwise every LXC archive.
func (c *Client) ListBackups(ctx context.Context, storage string, ctid int) ([]BackupVolume, error) {
	out, err := c.Runner.Run(ctx, execute.Options{
		Command: "pvesm",
		Args:    []string{"list", storage, "--content", "backup"},
	})
	if err != nil {
		return nil, stack_err.NewExternalError("pvesm list", err, out)
	}

	pattern := "vzdump-lxc-"
	if ctid > 0 {
		pattern = BackupPattern(ctid)
	}

	var volumes []BackupVolume
	for _, v := range parseVolumes(out) {
		if strings.Contains(v.VolID, pattern) {
			volumes = append(volumes, v)
		}
	}
	return volumes, nil
}

func parseVolumes(output string) []BackupVolume {
	var volumes []BackupVolume
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Volid" {
			continue
		}
		v := BackupVolume{VolID: fields[0], Format: fields[1]}
		v.Size, _ = strconv.ParseInt(fields[3], 10, 64)
		if len(fields) >= 5 {
			v.VMID, _ = strconv.Atoi(fields[4])
		}
		volumes = append(volumes, v)
	}
	return volumes
}
