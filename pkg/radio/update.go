// pkg/radio/update.go

package radio

import (
	"fmt"

	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Update runs the platform update inside one container.
func (m *Manager) Update(rc *stack_io.RuntimeContext, ctid int) error {
	st, err := m.findStation(rc, ctid)
	if err != nil {
		return err
	}
	if err := m.updateOne(rc, *st); err != nil {
		return err
	}
	m.Out.Success("Updated %s (CTID %d)", st.Hostname, ctid)
	return nil
}

// UpdatePlatform updates every station of one platform.
func (m *Manager) UpdatePlatform(rc *stack_io.RuntimeContext, platformName string) error {
	if _, err := m.Platforms.Lookup(platformName); err != nil {
		return stack_err.NewValidationError(err.Error())
	}
	rows, err := inventory.FilterByPlatform(rc.Ctx, m.Store, platformName)
	if err != nil {
		return err
	}
	return m.updateRows(rc, rows)
}

// UpdateAll updates every station in the inventory.
func (m *Manager) UpdateAll(rc *stack_io.RuntimeContext) error {
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return err
	}
	return m.updateRows(rc, rows)
}

// updateRows keeps going past failures and returns them aggregated.
func (m *Manager) updateRows(rc *stack_io.RuntimeContext, rows []inventory.Station) error {
	if len(rows) == 0 {
		m.Out.Warn("No stations to update")
		return nil
	}
	var result *multierror.Error
	for _, st := range rows {
		m.Out.Step("Updating %s (CTID %d)", st.Hostname, st.CTID)
		if err := m.updateOne(rc, st); err != nil {
			m.Out.Error("Update of CTID %d failed: %v", st.CTID, err)
			result = multierror.Append(result, fmt.Errorf("ctid %d: %w", st.CTID, err))
			continue
		}
		m.Out.Success("Updated %s (CTID %d)", st.Hostname, st.CTID)
	}
	return summarize(m, "update", len(rows), result)
}

func (m *Manager) updateOne(rc *stack_io.RuntimeContext, st inventory.Station) error {
	plat, err := m.Platforms.Lookup(st.Platform)
	if err != nil {
		return stack_err.NewValidationError(err.Error())
	}
	if err := m.requireRunning(rc, st.CTID); err != nil {
		return err
	}
	script, err := plat.UpdateScript()
	if err != nil {
		return err
	}
	otelzap.Ctx(rc.Ctx).Info("Updating station",
		zap.Int("ctid", st.CTID), zap.String("platform", st.Platform))
	_, err = m.PCT.Exec(rc.Ctx, st.CTID, script)
	return err
}

func (m *Manager) findStation(rc *stack_io.RuntimeContext, ctid int) (*inventory.Station, error) {
	if err := CheckCTIDRange(ctid); err != nil {
		return nil, err
	}
	st, err := m.Store.Find(rc.Ctx, ctid)
	if cerr.Is(err, inventory.ErrNotFound) {
		return nil, stack_err.NewPreconditionError(
			fmt.Sprintf("CTID %d not found in inventory", ctid),
			"list stations with: infrastack radio info")
	}
	return st, err
}

func (m *Manager) requireRunning(rc *stack_io.RuntimeContext, ctid int) error {
	status, err := m.PCT.Status(rc.Ctx, ctid)
	if err != nil {
		return err
	}
	switch status {
	case proxmox.StatusRunning:
		return nil
	case proxmox.StatusNotFound:
		return stack_err.NewPreconditionError(fmt.Sprintf("container %d does not exist", ctid))
	default:
		return stack_err.NewPreconditionError(
			fmt.Sprintf("container %d is %s", ctid, status),
			fmt.Sprintf("start it with: pct start %d", ctid))
	}
}

// summarize prints the bulk outcome line and returns the aggregate error.
func summarize(m *Manager, op string, total int, result *multierror.Error) error {
	failed := 0
	if result != nil {
		failed = len(result.Errors)
	}
	if failed == 0 {
		m.Out.Success("%s complete: %d succeeded", op, total)
		return nil
	}
	m.Out.Error("%s finished with failures: %d succeeded, %d failed", op, total-failed, failed)
	return result.ErrorOrNil()
}
