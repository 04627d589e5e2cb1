// pkg/radio/status.go

package radio

import (
	"fmt"
	"strconv"

	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/proxmox"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// StationStatus pairs an inventory row with the live container state.
type StationStatus struct {
	Station inventory.Station
	Live    proxmox.ContainerStatus
}

// SingleStatus is the detailed view of one container.
type SingleStatus struct {
	CTID    int
	Live    proxmox.ContainerStatus
	Config  *proxmox.ContainerConfig
	Station *inventory.Station
}

var statusHeaders = []string{"CTID", "TYPE", "HOSTNAME", "IP", "STATUS", "CREATED"}

// StatusAll shows every inventory row with its live state.
func (m *Manager) StatusAll(rc *stack_io.RuntimeContext) ([]StationStatus, error) {
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return nil, err
	}
	return m.renderStatus(rc, rows, "No stations in inventory")
}

// StatusByPlatform is StatusAll restricted to one platform.
func (m *Manager) StatusByPlatform(rc *stack_io.RuntimeContext, platformName string) ([]StationStatus, error) {
	if !m.Platforms.Has(platformName) {
		_, err := m.Platforms.Lookup(platformName)
		return nil, stack_err.NewValidationError(err.Error())
	}
	rows, err := inventory.FilterByPlatform(rc.Ctx, m.Store, platformName)
	if err != nil {
		return nil, err
	}
	return m.renderStatus(rc, rows, fmt.Sprintf("No %s stations in inventory", platformName))
}

func (m *Manager) renderStatus(rc *stack_io.RuntimeContext, rows []inventory.Station, empty string) ([]StationStatus, error) {
	if len(rows) == 0 {
		m.Out.Warn("%s", empty)
		return nil, nil
	}
	result := make([]StationStatus, 0, len(rows))
	table := make([][]string, 0, len(rows))
	for _, st := range rows {
		live := m.liveStatus(rc, st.CTID)
		result = append(result, StationStatus{Station: st, Live: live})
		table = append(table, []string{
			strconv.Itoa(st.CTID), st.Platform, st.Hostname, st.IP, string(live), formatDate(st),
		})
	}
	m.Out.StatusTable(statusHeaders, table)
	return result, nil
}

// liveStatus never fails; query errors show up as unknown.
func (m *Manager) liveStatus(rc *stack_io.RuntimeContext, ctid int) proxmox.ContainerStatus {
	status, err := m.PCT.Status(rc.Ctx, ctid)
	if err != nil {
		otelzap.Ctx(rc.Ctx).Warn("Could not query container status", zap.Int("ctid", ctid), zap.Error(err))
	}
	return status
}

// StatusSingle shows config, live state and inventory data for ctid.
func (m *Manager) StatusSingle(rc *stack_io.RuntimeContext, ctid int) (*SingleStatus, error) {
	if err := CheckCTIDRange(ctid); err != nil {
		return nil, err
	}
	live, err := m.PCT.Status(rc.Ctx, ctid)
	if err != nil {
		return nil, err
	}
	if live == proxmox.StatusNotFound {
		return nil, stack_err.NewPreconditionError(fmt.Sprintf("container %d does not exist", ctid))
	}
	cfg, err := m.PCT.Config(rc.Ctx, ctid)
	if err != nil {
		return nil, err
	}

	res := &SingleStatus{CTID: ctid, Live: live, Config: cfg}
	st, err := m.Store.Find(rc.Ctx, ctid)
	switch {
	case err == nil:
		res.Station = st
	case cerr.Is(err, inventory.ErrNotFound):
		m.Out.Warn("Container %d is not in the inventory", ctid)
	default:
		return nil, err
	}

	data := map[string]string{
		"CTID":     strconv.Itoa(ctid),
		"Status":   string(live),
		"Hostname": cfg.Hostname,
		"Cores":    strconv.Itoa(cfg.Cores),
		"Memory":   fmt.Sprintf("%d MiB", cfg.Memory),
	}
	order := []string{"CTID", "Status", "Hostname", "Cores", "Memory"}
	if res.Station != nil {
		data["Platform"] = res.Station.Platform
		data["IP"] = res.Station.IP
		data["Created"] = formatDate(*res.Station)
		data["Dataset"] = res.Station.Dataset(m.pool())
		order = append(order, "Platform", "IP", "Created", "Dataset")
	}
	return res, m.Out.KeyValues(data, order...)
}

func formatDate(st inventory.Station) string {
	if st.Created.IsZero() {
		return "-"
	}
	return st.Created.Format(inventory.DateLayout)
}
