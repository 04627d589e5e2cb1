// pkg/radio/remove.go

package radio

import (
	"fmt"

	"github.com/TecnoSoul/InfraStack/pkg/interaction"
	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/journal"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Remove steps recorded in the journal, besides the inventory,
// credentials and dataset steps shared with deploy.
const (
	StepStop    = "stop"
	StepDestroy = "destroy"
)

// PurgeConfirmation must be typed literally to purge every station.
const PurgeConfirmation = "DELETE"

type RemoveOptions struct {
	CTID int
	// Data also destroys the media dataset, after a second confirmation.
	Data bool
	// Yes answers both confirmations.
	Yes bool
}

// RemoveResult reports what Remove actually deleted.
type RemoveResult struct {
	ContainerDestroyed bool
	InventoryRemoved   bool
	DatasetDestroyed   bool
	Dataset            string
}

// Remove destroys a station's container and forgets it. The inventory row
// is only removed once the container is gone, and the dataset only after
// that. A CTID with no inventory row can still be cleaned up from its
// deploy journal.
func (m *Manager) Remove(rc *stack_io.RuntimeContext, opts RemoveOptions) (*RemoveResult, error) {
	logger := otelzap.Ctx(rc.Ctx)

	if err := interaction.RequireRoot(rc, "radio remove", m.Euid()); err != nil {
		return nil, err
	}
	if err := CheckCTIDRange(opts.CTID); err != nil {
		return nil, err
	}
	ctid := opts.CTID

	st, err := m.Store.Find(rc.Ctx, ctid)
	if err != nil && !cerr.Is(err, inventory.ErrNotFound) {
		return nil, err
	}
	entry, err := m.Journal.Load(ctid)
	if err != nil {
		return nil, err
	}
	live, err := m.PCT.Status(rc.Ctx, ctid)
	if err != nil {
		return nil, err
	}

	res := &RemoveResult{}
	hostname := ""
	switch {
	case st != nil:
		res.Dataset = st.Dataset(m.pool())
		hostname = st.Hostname
	case entry != nil:
		res.Dataset = entry.Dataset
		hostname = entry.Hostname
		m.Out.Warn("CTID %d is not in the inventory; using the %s journal for cleanup", ctid, entry.Operation)
	case live == proxmox.StatusNotFound:
		return nil, stack_err.NewPreconditionError(
			fmt.Sprintf("CTID %d not found in inventory or on this node", ctid))
	default:
		m.Out.Warn("Container %d exists but is not in the inventory", ctid)
	}

	m.Out.Warn("About to remove container %d %s (status: %s)", ctid, hostname, live)
	if opts.Data && res.Dataset != "" {
		m.Out.Warn("Dataset %s will also be destroyed", res.Dataset)
	}
	if !opts.Yes {
		ok, err := m.Prompt.Confirm(rc.Ctx, fmt.Sprintf("Remove container %d?", ctid), false)
		if err != nil {
			return nil, err
		}
		if !ok {
			m.Out.Info("Removal cancelled; nothing was changed")
			return nil, stack_err.NewUserCancelledError("radio remove")
		}
	}

	seed := journal.Entry{Dataset: res.Dataset, Hostname: hostname}
	if st != nil {
		seed.Platform = st.Platform
	} else if entry != nil {
		seed.Platform = entry.Platform
	}
	rj, err := m.beginRemove(ctid, seed)
	if err != nil {
		return nil, err
	}

	if live == proxmox.StatusRunning {
		m.Out.Step("Stopping container %d", ctid)
		if err := m.PCT.Stop(rc.Ctx, ctid); err != nil {
			return res, stack_err.WrapStep(err, StepStop)
		}
		if err := m.markStep(rj, StepStop); err != nil {
			return res, err
		}
	}

	if live == proxmox.StatusNotFound {
		m.Out.Info("Container %d is already absent", ctid)
		res.ContainerDestroyed = true
	} else {
		m.Out.Step("Destroying container %d", ctid)
		destroyed, err := m.destroyContainer(rc, ctid)
		if err != nil {
			return res, stack_err.WrapStep(err, StepDestroy)
		}
		res.ContainerDestroyed = destroyed
	}
	if err := m.markStep(rj, StepDestroy); err != nil {
		return res, err
	}

	if st != nil {
		if err := m.forget(rc, ctid); err != nil {
			return res, stack_err.WrapStep(err, StepInventory)
		}
		res.InventoryRemoved = true
	}
	if err := m.markStep(rj, StepInventory); err != nil {
		return res, err
	}

	if !m.DryRun {
		if err := m.Creds.Remove(ctid); err != nil {
			logger.Warn("Failed to remove credentials file", zap.Int("ctid", ctid), zap.Error(err))
		}
	}
	if err := m.markStep(rj, StepCredentials); err != nil {
		return res, err
	}

	if opts.Data {
		destroyed, err := m.removeDataset(rc, res.Dataset, opts.Yes)
		if err != nil {
			return res, stack_err.WrapStep(err, StepDataset)
		}
		res.DatasetDestroyed = destroyed
	} else if res.Dataset != "" {
		m.Out.Info("Dataset %s retained; remove it later with --data", res.Dataset)
	}

	if !m.DryRun {
		if err := m.Journal.Clear(ctid); err != nil {
			logger.Warn("Failed to clear journal", zap.Int("ctid", ctid), zap.Error(err))
		}
	}
	m.Out.Success("Container %d removed", ctid)
	return res, nil
}

func (m *Manager) beginRemove(ctid int, seed journal.Entry) (*journal.Entry, error) {
	if m.DryRun {
		return &journal.Entry{Operation: journal.OpRemove, CTID: ctid}, nil
	}
	return m.Journal.Begin(journal.OpRemove, ctid, seed, false)
}

// destroyContainer treats a container that vanished in the meantime as
// destroyed.
func (m *Manager) destroyContainer(rc *stack_io.RuntimeContext, ctid int) (bool, error) {
	err := m.PCT.Destroy(rc.Ctx, ctid)
	if err == nil {
		return true, nil
	}
	if stack_err.IsPrecondition(err) {
		m.Out.Info("Container %d is already absent", ctid)
		return true, nil
	}
	return false, err
}

func (m *Manager) forget(rc *stack_io.RuntimeContext, ctid int) error {
	if m.DryRun {
		m.Out.Info("[dry-run] would remove CTID %d from inventory", ctid)
		return nil
	}
	err := m.Store.Remove(rc.Ctx, ctid)
	if cerr.Is(err, inventory.ErrNotFound) {
		return nil
	}
	return err
}

// removeDataset asks again, independently of the container confirmation,
// then destroys the dataset recursively. Declining keeps the data.
func (m *Manager) removeDataset(rc *stack_io.RuntimeContext, dataset string, yes bool) (bool, error) {
	if dataset == "" {
		m.Out.Warn("Dataset is unknown; nothing to destroy")
		return false, nil
	}
	if !yes {
		ok, err := m.Prompt.Confirm(rc.Ctx,
			fmt.Sprintf("Permanently destroy dataset %s and all its snapshots?", dataset), false)
		if err != nil {
			return false, err
		}
		if !ok {
			m.Out.Info("Dataset %s retained", dataset)
			return false, nil
		}
	}
	m.Out.Step("Destroying dataset %s", dataset)
	if err := m.ZFS.DestroyDataset(rc.Ctx, dataset, true); err != nil {
		if stack_err.IsPrecondition(err) {
			m.Out.Warn("Dataset %s does not exist", dataset)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PurgeResult counts what PurgeAll did.
type PurgeResult struct {
	Destroyed int
	Failed    int
}

// PurgeAll destroys the container of every inventory row. It requires the
// literal PurgeConfirmation; any other answer deletes nothing. Datasets
// are never touched. Rows whose container is gone are removed, so a fully
// successful purge leaves only the header.
func (m *Manager) PurgeAll(rc *stack_io.RuntimeContext) (*PurgeResult, error) {
	if err := interaction.RequireRoot(rc, "radio remove --purge-all", m.Euid()); err != nil {
		return nil, err
	}
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		m.Out.Info("Inventory is empty; nothing to purge")
		return &PurgeResult{}, nil
	}

	m.Out.Warn("This destroys %d containers:", len(rows))
	for _, st := range rows {
		m.Out.Plain("  %d  %s", st.CTID, st.Hostname)
	}
	m.Out.Warn("ZFS datasets are kept")

	ok, err := m.Prompt.ConfirmTyped(rc.Ctx, "Destroy every container listed above?", PurgeConfirmation)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.Out.Info("Purge cancelled; nothing was deleted")
		return nil, stack_err.NewUserCancelledError("radio remove --purge-all")
	}

	res := &PurgeResult{}
	var result *multierror.Error
	for _, st := range rows {
		if err := m.purgeOne(rc, st); err != nil {
			res.Failed++
			m.Out.Error("CTID %d: %v", st.CTID, err)
			result = multierror.Append(result, fmt.Errorf("ctid %d: %w", st.CTID, err))
			continue
		}
		res.Destroyed++
		m.Out.Success("Destroyed container %d (%s)", st.CTID, st.Hostname)
	}

	if result == nil && !m.DryRun {
		if err := m.Store.Reset(rc.Ctx); err != nil {
			return res, err
		}
	}
	return res, summarize(m, "purge", len(rows), result)
}

func (m *Manager) purgeOne(rc *stack_io.RuntimeContext, st inventory.Station) error {
	live, err := m.PCT.Status(rc.Ctx, st.CTID)
	if err != nil {
		return err
	}
	if live == proxmox.StatusRunning {
		if err := m.PCT.Stop(rc.Ctx, st.CTID); err != nil {
			return err
		}
	}
	if live != proxmox.StatusNotFound {
		if _, err := m.destroyContainer(rc, st.CTID); err != nil {
			return err
		}
	}
	if err := m.forget(rc, st.CTID); err != nil {
		return err
	}
	if !m.DryRun {
		if err := m.Creds.Remove(st.CTID); err != nil {
			otelzap.Ctx(rc.Ctx).Warn("Failed to remove credentials file", zap.Int("ctid", st.CTID), zap.Error(err))
		}
	}
	return nil
}
