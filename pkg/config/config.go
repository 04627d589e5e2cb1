// pkg/config/config.go
//
// Configuration is layered: built-in defaults, then an optional YAML file
// (INFRASTACK_CONFIG or --config, else <root>/infrastack.yaml), then
// INFRASTACK_* environment variables. Keys use dots in files and
// underscores in env vars (inventory.path -> INFRASTACK_INVENTORY_PATH).

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

type Config struct {
	RootDir   string          `mapstructure:"root_dir"`
	StateDir  string          `mapstructure:"state_dir"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	ZFS       ZFSConfig       `mapstructure:"zfs"`
	Proxmox   ProxmoxConfig   `mapstructure:"proxmox"`
	Network   NetworkConfig   `mapstructure:"network"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Exec      ExecConfig      `mapstructure:"exec"`
}

type InventoryConfig struct {
	Path    string `mapstructure:"path"`
	Backend string `mapstructure:"backend"` // csv | sqlite
}

type ZFSConfig struct {
	Pool string `mapstructure:"pool"`
}

type ProxmoxConfig struct {
	Template      string `mapstructure:"template"`
	RootfsStorage string `mapstructure:"rootfs_storage"`
	Bridge        string `mapstructure:"bridge"`
}

type NetworkConfig struct {
	Prefix  string `mapstructure:"prefix"` // first three octets, e.g. 192.168.2
	CIDR    int    `mapstructure:"cidr"`
	Gateway string `mapstructure:"gateway"`
}

type BackupConfig struct {
	Storage  string `mapstructure:"storage"`
	Mode     string `mapstructure:"mode"`
	Compress string `mapstructure:"compress"`
}

type MetricsConfig struct {
	TextfileDir string `mapstructure:"textfile_dir"`
}

type ExecConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// CredentialsDir holds the per-CTID credential files.
func (c *Config) CredentialsDir() string {
	return filepath.Join(c.RootDir, "credentials")
}

// JournalDir holds the per-CTID lifecycle journals.
func (c *Config) JournalDir() string {
	return filepath.Join(c.StateDir, "journal")
}

func setDefaults(v *viper.Viper, root string) {
	v.SetDefault("root_dir", root)
	v.SetDefault("state_dir", filepath.Join(root, "state"))
	v.SetDefault("inventory.path", filepath.Join(root, "inventory", "stations.csv"))
	v.SetDefault("inventory.backend", "csv")
	v.SetDefault("zfs.pool", "hdd-pool")
	v.SetDefault("proxmox.template", "local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst")
	v.SetDefault("proxmox.rootfs_storage", "local-lvm")
	v.SetDefault("proxmox.bridge", "vmbr0")
	v.SetDefault("network.prefix", "192.168.2")
	v.SetDefault("network.cidr", 24)
	v.SetDefault("network.gateway", "192.168.2.1")
	v.SetDefault("backup.storage", "backup-storage")
	v.SetDefault("backup.mode", "snapshot")
	v.SetDefault("backup.compress", "zstd")
	v.SetDefault("metrics.textfile_dir", "")
	v.SetDefault("exec.timeout", time.Duration(0))
}

// Load resolves the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	root := os.Getenv(shared.EnvRoot)
	if root == "" {
		root = shared.DefaultRootDir
	}
	setDefaults(v, root)

	v.SetEnvPrefix(shared.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv(shared.EnvConfig)
	}
	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(root, "infrastack.yaml")
	}
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		// only a missing implicit file is tolerated
		if _, statErr := os.Stat(configFile); explicit || !errors.Is(statErr, os.ErrNotExist) {
			return nil, cerr.Wrapf(err, "failed to read config %s", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerr.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the few settings that would otherwise fail deep inside
// an operation.
func (c *Config) Validate() error {
	switch c.Inventory.Backend {
	case "csv", "sqlite":
	default:
		return cerr.Newf("inventory.backend must be csv or sqlite, got %q", c.Inventory.Backend)
	}
	if c.Inventory.Path == "" {
		return cerr.New("inventory.path must not be empty")
	}
	if c.ZFS.Pool == "" {
		return cerr.New("zfs.pool must not be empty")
	}
	if c.Network.CIDR < 1 || c.Network.CIDR > 32 {
		return cerr.Newf("network.cidr out of range: %d", c.Network.CIDR)
	}
	return nil
}
