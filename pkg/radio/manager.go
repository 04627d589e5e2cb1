// pkg/radio/manager.go

// Package radio implements the lifecycle of radio station containers:
// deploy, status, update, backup, logs, info and remove. Each operation is
// a single pass over the inventory and the host tools; nothing is kept in
// memory between invocations.
package radio

import (
	"os"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/config"
	"github.com/TecnoSoul/InfraStack/pkg/credentials"
	"github.com/TecnoSoul/InfraStack/pkg/execute"
	"github.com/TecnoSoul/InfraStack/pkg/interaction"
	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/journal"
	"github.com/TecnoSoul/InfraStack/pkg/metrics"
	"github.com/TecnoSoul/InfraStack/pkg/output"
	"github.com/TecnoSoul/InfraStack/pkg/platform"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/zfs_management"
)

// Manager wires the collaborators every operation needs.
type Manager struct {
	Config    *config.Config
	Store     inventory.Store
	PCT       *proxmox.Client
	ZFS       *zfs_management.Client
	Platforms *platform.Registry
	Journal   *journal.Journal
	Creds     *credentials.Store
	Prompt    *interaction.Prompter
	Out       *output.Printer
	Metrics   *metrics.BackupRecorder

	// DryRun skips local state writes; the runner skips mutating commands.
	DryRun bool
	// StagingDir holds files pushed into containers. Empty means os.TempDir.
	StagingDir string

	Now  func() time.Time
	Euid func() int
}

// NewManager builds a Manager on runner with the built-in platforms.
func NewManager(cfg *config.Config, store inventory.Store, runner execute.Runner, prompt *interaction.Prompter, out *output.Printer) *Manager {
	return &Manager{
		Config:    cfg,
		Store:     store,
		PCT:       proxmox.NewClient(runner),
		ZFS:       zfs_management.NewClient(runner),
		Platforms: platform.Default(),
		Journal:   journal.New(cfg.JournalDir()),
		Creds:     credentials.New(cfg.CredentialsDir()),
		Prompt:    prompt,
		Out:       out,
		Metrics:   metrics.NewBackupRecorder(),
		Now:       time.Now,
		Euid:      os.Geteuid,
	}
}

func (m *Manager) pool() string { return m.Config.ZFS.Pool }
