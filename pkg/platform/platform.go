// pkg/platform/platform.go

// Package platform describes the radio application stacks that can be
// deployed into a container: resource defaults, dataset tuning, the compose
// file and the commands run inside the container.
package platform

import (
	"sort"
	"strconv"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"mvdan.cc/sh/v3/syntax"
)

// Platform is one deployable application type.
type Platform struct {
	Name        string
	Description string

	// container defaults, overridable per deploy
	Cores    int
	MemoryMB int
	SwapMB   int
	DiskGB   int
	// QuotaGB caps the media dataset.
	QuotaGB int

	Compression string
	Recordsize  string

	// AppDir holds the compose project inside the container.
	AppDir string
	// MediaPath is where the media dataset is mounted inside the container.
	MediaPath string
	// BackupDir receives application exports inside the container.
	BackupDir string
	// DefaultService is the compose service used when logs name none.
	DefaultService string

	Compose func(Credentials) *ComposeFile

	// CredentialKeys are generated at deploy time and written to the
	// credentials file.
	CredentialKeys []string

	InstallSteps []string
	UpdateSteps  []string
	// BackupCommand is run inside the app dir; %s is the export file path.
	BackupCommand string
	// BackupExt is the export file extension.
	BackupExt string
}

// Credentials are the generated secrets for one station.
type Credentials map[string]string

// DatasetProperties returns the zfs create properties for a media dataset.
func (p *Platform) DatasetProperties(quotaGB int) map[string]string {
	props := map[string]string{}
	if p.Compression != "" {
		props["compression"] = p.Compression
	}
	if p.Recordsize != "" {
		props["recordsize"] = p.Recordsize
	}
	if quotaGB <= 0 {
		quotaGB = p.QuotaGB
	}
	if quotaGB > 0 {
		props["quota"] = strconv.Itoa(quotaGB) + "G"
	}
	return props
}

// ComposePath is the compose file location inside the container.
func (p *Platform) ComposePath() string { return p.AppDir + "/docker-compose.yml" }

// EnvPath is the compose .env location inside the container.
func (p *Platform) EnvPath() string { return p.AppDir + "/.env" }

// InstallScript prepares the app dir and brings the stack up. The compose
// and env files are pushed before it runs.
func (p *Platform) InstallScript() (string, error) {
	return p.inAppDir(p.InstallSteps)
}

// UpdateScript pulls newer images and recreates the stack.
func (p *Platform) UpdateScript() (string, error) {
	return p.inAppDir(p.UpdateSteps)
}

// BackupScript exports application data to BackupDir; stamp names the file.
func (p *Platform) BackupScript(stamp string) (script, file string, err error) {
	if p.BackupCommand == "" {
		return "", "", nil
	}
	file = p.BackupDir + "/" + p.Name + "-" + stamp + p.BackupExt
	qdir, err := Quote(p.BackupDir)
	if err != nil {
		return "", "", err
	}
	qfile, err := Quote(file)
	if err != nil {
		return "", "", err
	}
	body, err := p.inAppDir([]string{
		"mkdir -p " + qdir,
		strings.ReplaceAll(p.BackupCommand, "%s", qfile),
	})
	return body, file, err
}

// LogsScript tails compose logs. An empty service falls back to
// DefaultService; with neither set, every service is tailed.
func (p *Platform) LogsScript(lines int, follow bool, service string) (string, error) {
	cmd := "docker compose logs --no-color --tail " + strconv.Itoa(lines)
	if follow {
		cmd += " -f"
	}
	if service == "" {
		service = p.DefaultService
	}
	if service != "" {
		q, err := Quote(service)
		if err != nil {
			return "", err
		}
		cmd += " " + q
	}
	return p.inAppDir([]string{cmd})
}

func (p *Platform) inAppDir(steps []string) (string, error) {
	dir, err := Quote(p.AppDir)
	if err != nil {
		return "", err
	}
	return "set -euo pipefail\ncd " + dir + "\n" + strings.Join(steps, "\n"), nil
}

// Quote renders s as a single bash word.
func Quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", cerr.Wrapf(err, "cannot quote %q for bash", s)
	}
	return q, nil
}

// Registry maps platform names to descriptions.
type Registry struct {
	platforms map[string]*Platform
}

func NewRegistry() *Registry {
	return &Registry{platforms: map[string]*Platform{}}
}

// Default returns a registry with the built-in platforms.
func Default() *Registry {
	r := NewRegistry()
	r.Register(AzuraCast())
	r.Register(LibreTime())
	return r
}

// Register adds or replaces a platform.
func (r *Registry) Register(p *Platform) {
	r.platforms[p.Name] = p
}

// Lookup returns the platform or an error listing the known names.
func (r *Registry) Lookup(name string) (*Platform, error) {
	if p, ok := r.platforms[name]; ok {
		return p, nil
	}
	return nil, cerr.Newf("unknown platform %q (supported: %s)", name, strings.Join(r.Names(), ", "))
}

func (r *Registry) Has(name string) bool {
	_, ok := r.platforms[name]
	return ok
}

// Names lists registered platforms alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.platforms))
	for n := range r.platforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
