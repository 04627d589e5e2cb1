package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("INFRASTACK_ROOT", root)
	t.Setenv("INFRASTACK_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.RootDir)
	assert.Equal(t, filepath.Join(root, "inventory", "stations.csv"), cfg.Inventory.Path)
	assert.Equal(t, "csv", cfg.Inventory.Backend)
	assert.Equal(t, "hdd-pool", cfg.ZFS.Pool)
	assert.Equal(t, 24, cfg.Network.CIDR)
	assert.Equal(t, filepath.Join(root, "credentials"), cfg.CredentialsDir())
	assert.Equal(t, filepath.Join(root, "state", "journal"), cfg.JournalDir())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("INFRASTACK_ROOT", root)

	file := filepath.Join(root, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
zfs:
  pool: tank
backup:
  storage: pbs
exec:
  timeout: 90s
`), 0o600))
	t.Setenv("INFRASTACK_CONFIG", file)
	t.Setenv("INFRASTACK_BACKUP_STORAGE", "nfs-backups")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tank", cfg.ZFS.Pool)
	assert.Equal(t, "nfs-backups", cfg.Backup.Storage, "env wins over file")
	assert.Equal(t, 90*time.Second, cfg.Exec.Timeout)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("INFRASTACK_ROOT", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("INFRASTACK_ROOT", t.TempDir())
	t.Setenv("INFRASTACK_INVENTORY_BACKEND", "postgres")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory.backend")
}
