// pkg/radio/deploy.go

package radio

import (
	"fmt"
	"os"

	"github.com/TecnoSoul/InfraStack/pkg/credentials"
	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/journal"
	"github.com/TecnoSoul/InfraStack/pkg/platform"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	"github.com/TecnoSoul/InfraStack/pkg/telemetry"
	"github.com/TecnoSoul/InfraStack/pkg/zfs_management"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Deploy steps, in order. Each is recorded in the journal once done.
const (
	StepDataset     = "dataset"
	StepContainer   = "container"
	StepMount       = "mount"
	StepStart       = "start"
	StepInstall     = "install"
	StepCredentials = "credentials"
	StepInventory   = "inventory"
)

// DeploySteps lists the deploy steps in execution order.
var DeploySteps = []string{StepDataset, StepContainer, StepMount, StepStart, StepInstall, StepCredentials, StepInventory}

type DeployOptions struct {
	Platform string
	CTID     int
	Name     string
	// zero means the platform default
	Cores    int
	MemoryMB int
	QuotaGB  int
	// IPSuffix is the last octet of a static address; empty means dhcp.
	IPSuffix string
	Resume   bool
}

type deployment struct {
	opts     DeployOptions
	plat     *platform.Platform
	hostname string
	dataset  string
	ip       string
	net0IP   string
	entry    *journal.Entry
	creds    platform.Credentials

	// datasetCreated is set when this run created the dataset.
	datasetCreated bool
}

// Deploy provisions a station end to end. A failure names the step that
// failed and leaves the journal in place; nothing is rolled back.
func (m *Manager) Deploy(rc *stack_io.RuntimeContext, opts DeployOptions) (*inventory.Station, error) {
	logger := otelzap.Ctx(rc.Ctx)

	plat, err := m.Platforms.Lookup(opts.Platform)
	if err != nil {
		return nil, stack_err.NewValidationError(err.Error())
	}
	if err := ValidateStationName(opts.Name); err != nil {
		return nil, err
	}
	if err := CheckCTIDRange(opts.CTID); err != nil {
		return nil, err
	}
	if opts.Cores < 0 || opts.MemoryMB < 0 || opts.QuotaGB < 0 {
		return nil, stack_err.NewValidationError("cores, memory and quota must be positive")
	}

	d := &deployment{
		opts:     opts,
		plat:     plat,
		hostname: opts.Platform + "-" + opts.Name,
		dataset:  inventory.DatasetPath(m.pool(), opts.Platform, opts.Name),
	}
	if d.ip, d.net0IP, err = m.resolveIP(opts.IPSuffix); err != nil {
		return nil, err
	}

	if err := m.beginDeploy(rc, d); err != nil {
		return nil, err
	}

	logger.Info("Deploying station",
		zap.Int("ctid", opts.CTID),
		zap.String("platform", opts.Platform),
		zap.String("hostname", d.hostname),
		zap.String("dataset", d.dataset),
		zap.String("ip", d.ip),
		zap.Strings("completed_steps", d.entry.Steps))
	m.Out.Info("Deploying %s (CTID %d) as %s", plat.Description, opts.CTID, d.hostname)

	steps := []struct {
		name string
		fn   func(*stack_io.RuntimeContext, *deployment) error
	}{
		{StepDataset, m.stepDataset},
		{StepContainer, m.stepContainer},
		{StepMount, m.stepMount},
		{StepStart, m.stepStart},
		{StepInstall, m.stepInstall},
		{StepCredentials, m.stepCredentials},
		{StepInventory, m.stepInventory},
	}
	for _, s := range steps {
		if d.entry.Done(s.name) {
			m.Out.Info("Skipping %s (already completed)", s.name)
			continue
		}
		m.Out.Step("%s", s.name)
		ctx, span := telemetry.StartStep(rc.Ctx, "deploy", s.name, opts.CTID, opts.Platform)
		stepRC := *rc
		stepRC.Ctx = ctx
		err := s.fn(&stepRC, d)
		telemetry.EndStep(span, err)
		if err != nil {
			m.Out.Error("Deploy failed at step %q; re-run with --resume after fixing the cause", s.name)
			return nil, stack_err.WrapStep(err, s.name)
		}
		if err := m.markStep(d.entry, s.name); err != nil {
			return nil, err
		}
	}

	if !m.DryRun {
		if err := m.Journal.Clear(opts.CTID); err != nil {
			logger.Warn("Failed to clear deploy journal", zap.Error(err))
		}
	}

	st := m.stationRecord(d)
	m.Out.Success("Station %s deployed in container %d", d.hostname, opts.CTID)
	if d.ip != "dhcp" {
		m.Out.Info("Web interface: http://%s/", d.ip)
	}
	m.Out.Info("Credentials: %s", m.Creds.Path(opts.CTID))
	return &st, nil
}

// beginDeploy validates the CTID and opens (or resumes) the journal entry.
func (m *Manager) beginDeploy(rc *stack_io.RuntimeContext, d *deployment) error {
	ctid := d.opts.CTID
	seed := journal.Entry{Platform: d.opts.Platform, Hostname: d.hostname, Dataset: d.dataset}

	if !d.opts.Resume {
		if err := m.ValidateCTID(rc, ctid); err != nil {
			return err
		}
	} else {
		existing, err := m.Journal.Load(ctid)
		if err != nil {
			return err
		}
		if existing == nil || existing.Operation != journal.OpDeploy {
			return stack_err.NewPreconditionError(
				fmt.Sprintf("no interrupted deploy recorded for CTID %d", ctid),
				"run deploy without --resume")
		}
		if existing.Hostname != d.hostname {
			return stack_err.NewPreconditionError(
				fmt.Sprintf("journal for CTID %d belongs to %s, not %s", ctid, existing.Hostname, d.hostname))
		}
		if _, err := m.Store.Find(rc.Ctx, ctid); err == nil {
			return stack_err.NewPreconditionError(fmt.Sprintf("CTID %d already exists in inventory", ctid))
		} else if !cerr.Is(err, inventory.ErrNotFound) {
			return err
		}
	}

	if m.DryRun {
		d.entry = &journal.Entry{Operation: journal.OpDeploy, CTID: ctid}
		return nil
	}
	entry, err := m.Journal.Begin(journal.OpDeploy, ctid, seed, d.opts.Resume)
	if err != nil {
		return err
	}
	d.entry = entry
	return nil
}

func (m *Manager) markStep(e *journal.Entry, step string) error {
	if m.DryRun {
		e.Steps = append(e.Steps, step)
		return nil
	}
	return m.Journal.MarkStep(e, step)
}

func (m *Manager) stepDataset(rc *stack_io.RuntimeContext, d *deployment) error {
	created, err := m.ZFS.CreateDataset(rc.Ctx, d.dataset, d.plat.DatasetProperties(d.opts.QuotaGB))
	if err != nil {
		return err
	}
	d.datasetCreated = created
	if !created {
		m.Out.Warn("Dataset %s already exists, reusing it", d.dataset)
	}
	return nil
}

func (m *Manager) stepContainer(rc *stack_io.RuntimeContext, d *deployment) error {
	if d.opts.Resume {
		exists, err := m.PCT.Exists(rc.Ctx, d.opts.CTID)
		if err != nil {
			return err
		}
		if exists {
			m.Out.Info("Container %d already exists, continuing", d.opts.CTID)
			return nil
		}
	}
	return m.PCT.Create(rc.Ctx, proxmox.CreateOptions{
		CTID:          d.opts.CTID,
		Template:      m.Config.Proxmox.Template,
		Hostname:      d.hostname,
		Cores:         orDefault(d.opts.Cores, d.plat.Cores),
		Memory:        orDefault(d.opts.MemoryMB, d.plat.MemoryMB),
		Swap:          d.plat.SwapMB,
		RootfsStorage: m.Config.Proxmox.RootfsStorage,
		DiskGB:        d.plat.DiskGB,
		Bridge:        m.Config.Proxmox.Bridge,
		IP:            d.net0IP,
		Gateway:       m.Config.Network.Gateway,
		Unprivileged:  true,
		Nesting:       true,
		OnBoot:        true,
		Description:   fmt.Sprintf("%s: %s", d.plat.Description, d.opts.Name),
	})
}

func (m *Manager) stepMount(rc *stack_io.RuntimeContext, d *deployment) error {
	var mp string
	if m.DryRun && d.datasetCreated {
		// the create was skipped, so there is nothing to query yet
		mp = zfs_management.DefaultMountpoint(d.dataset)
	} else {
		var err error
		if mp, err = m.ZFS.Mountpoint(rc.Ctx, d.dataset); err != nil {
			return err
		}
	}
	return m.PCT.SetMountpoint(rc.Ctx, d.opts.CTID, 0, mp, d.plat.MediaPath)
}

func (m *Manager) stepStart(rc *stack_io.RuntimeContext, d *deployment) error {
	status, err := m.PCT.Status(rc.Ctx, d.opts.CTID)
	if err != nil {
		return err
	}
	if status == proxmox.StatusRunning {
		return nil
	}
	return m.PCT.Start(rc.Ctx, d.opts.CTID)
}

func (m *Manager) stepInstall(rc *stack_io.RuntimeContext, d *deployment) error {
	creds, err := m.deployCredentials(rc, d)
	if err != nil {
		return err
	}
	compose, err := d.plat.Compose(creds).Marshal()
	if err != nil {
		return err
	}
	env, err := credentials.Encode(creds)
	if err != nil {
		return err
	}

	appDir, err := platform.Quote(d.plat.AppDir)
	if err != nil {
		return err
	}
	if _, err := m.PCT.Exec(rc.Ctx, d.opts.CTID, "mkdir -p "+appDir); err != nil {
		return err
	}
	if err := m.pushContent(rc, d.opts.CTID, compose, d.plat.ComposePath(), "0644"); err != nil {
		return err
	}
	if err := m.pushContent(rc, d.opts.CTID, []byte(env), d.plat.EnvPath(), "0600"); err != nil {
		return err
	}

	script, err := d.plat.InstallScript()
	if err != nil {
		return err
	}
	m.Out.Info("Installing %s inside container %d (this can take a while)", d.plat.Name, d.opts.CTID)
	_, err = m.PCT.Exec(rc.Ctx, d.opts.CTID, script)
	return err
}

// deployCredentials generates fresh secrets, or recovers the ones already
// pushed into the container when resuming after the install step.
func (m *Manager) deployCredentials(rc *stack_io.RuntimeContext, d *deployment) (platform.Credentials, error) {
	if d.creds != nil {
		return d.creds, nil
	}
	if d.entry.Done(StepInstall) {
		envPath, err := platform.Quote(d.plat.EnvPath())
		if err != nil {
			return nil, err
		}
		out, err := m.PCT.Exec(rc.Ctx, d.opts.CTID, "cat "+envPath)
		if err != nil {
			return nil, err
		}
		values, err := credentials.Decode(out)
		if err != nil {
			return nil, err
		}
		d.creds = values
		return d.creds, nil
	}
	values, err := credentials.Generate(d.plat.CredentialKeys)
	if err != nil {
		return nil, err
	}
	d.creds = values
	return d.creds, nil
}

func (m *Manager) pushContent(rc *stack_io.RuntimeContext, ctid int, content []byte, dst, perms string) error {
	dir := m.StagingDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return cerr.Wrap(err, "create staging directory")
	}
	f, err := os.CreateTemp(dir, "infrastack-push-*")
	if err != nil {
		return cerr.Wrap(err, "create staging file")
	}
	defer os.Remove(f.Name()) //nolint:errcheck
	if _, err := f.Write(content); err != nil {
		f.Close()
		return cerr.Wrap(err, "write staging file")
	}
	if err := f.Close(); err != nil {
		return cerr.Wrap(err, "close staging file")
	}
	return m.PCT.Push(rc.Ctx, ctid, f.Name(), dst, perms)
}

func (m *Manager) stepCredentials(rc *stack_io.RuntimeContext, d *deployment) error {
	creds, err := m.deployCredentials(rc, d)
	if err != nil {
		return err
	}
	values := map[string]string{
		"CTID":     fmt.Sprint(d.opts.CTID),
		"PLATFORM": d.plat.Name,
		"HOSTNAME": d.hostname,
	}
	if d.ip != "dhcp" {
		values["URL"] = "http://" + d.ip + "/"
	}
	for k, v := range creds {
		values[k] = v
	}
	if m.DryRun {
		m.Out.Info("[dry-run] would write %s", m.Creds.Path(d.opts.CTID))
		return nil
	}
	return m.Creds.Write(d.opts.CTID, values)
}

func (m *Manager) stepInventory(rc *stack_io.RuntimeContext, d *deployment) error {
	st := m.stationRecord(d)
	if m.DryRun {
		m.Out.Info("[dry-run] would add CTID %d to inventory", st.CTID)
		return nil
	}
	if err := m.Store.Append(rc.Ctx, st); err != nil {
		if cerr.Is(err, inventory.ErrDuplicate) && d.opts.Resume {
			return nil
		}
		return err
	}
	return nil
}

func (m *Manager) stationRecord(d *deployment) inventory.Station {
	return inventory.Station{
		CTID:        d.opts.CTID,
		Platform:    d.plat.Name,
		Hostname:    d.hostname,
		IP:          d.ip,
		Description: fmt.Sprintf("%s station %s", d.plat.Name, d.opts.Name),
		Created:     m.Now(),
		Status:      "active",
		DatasetPath: d.dataset,
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

