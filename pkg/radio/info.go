// pkg/radio/info.go

package radio

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/journal"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
)

// Summary is the inventory headcount.
type Summary struct {
	Total      int
	ByPlatform map[string]int
}

// Info prints everything recorded locally about ctid: the inventory row,
// its dataset, the credentials file and any unfinished journal entry.
func (m *Manager) Info(rc *stack_io.RuntimeContext, ctid int) error {
	if err := CheckCTIDRange(ctid); err != nil {
		return err
	}
	st, err := m.Store.Find(rc.Ctx, ctid)
	if err != nil && !cerr.Is(err, inventory.ErrNotFound) {
		return err
	}
	entry, err := m.Journal.Load(ctid)
	if err != nil {
		return err
	}
	if st == nil && entry == nil {
		return stack_err.NewPreconditionError(fmt.Sprintf("CTID %d not found in inventory", ctid))
	}

	data := map[string]string{"CTID": strconv.Itoa(ctid)}
	order := []string{"CTID"}
	if st != nil {
		data["Platform"] = st.Platform
		data["Hostname"] = st.Hostname
		data["IP"] = st.IP
		data["Description"] = st.Description
		data["Created"] = formatDate(*st)
		data["Status"] = st.Status
		data["Dataset"] = orDash(st.Dataset(m.pool()))
		order = append(order, "Platform", "Hostname", "IP", "Description", "Created", "Status", "Dataset")
	} else {
		m.Out.Warn("CTID %d is not in the inventory; showing the journal only", ctid)
		data["Dataset"] = orDash(entry.Dataset)
		order = append(order, "Dataset")
	}

	data["Credentials"] = "-"
	if m.Creds.Exists(ctid) {
		data["Credentials"] = m.Creds.Path(ctid)
	}
	data["Journal"] = describeJournal(entry)
	order = append(order, "Credentials", "Journal")

	return m.Out.KeyValues(data, order...)
}

func describeJournal(e *journal.Entry) string {
	if e == nil {
		return "clean"
	}
	last := e.LastStep()
	if last == "" {
		last = "none"
	}
	return fmt.Sprintf("unfinished %s (last step: %s, updated %s)",
		e.Operation, last, e.Updated.Format("2006-01-02 15:04:05"))
}

// List prints the inventory without querying live state.
func (m *Manager) List(rc *stack_io.RuntimeContext) ([]inventory.Station, error) {
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		m.Out.Warn("No stations in inventory")
		return rows, nil
	}
	table := make([][]string, 0, len(rows))
	for _, st := range rows {
		table = append(table, []string{
			strconv.Itoa(st.CTID), st.Platform, st.Hostname, st.IP, formatDate(st), st.Description,
		})
	}
	m.Out.StatusTable([]string{"CTID", "TYPE", "HOSTNAME", "IP", "CREATED", "DESCRIPTION"}, table)
	return rows, nil
}

// Summary counts stations overall and per platform. Registered platforms
// with no stations are listed with zero.
func (m *Manager) Summary(rc *stack_io.RuntimeContext) (*Summary, error) {
	total, err := inventory.Count(rc.Ctx, m.Store)
	if err != nil {
		return nil, err
	}
	names := m.Platforms.Names()
	rows, err := m.Store.List(rc.Ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if !m.Platforms.Has(r.Platform) {
			names = append(names, r.Platform)
		}
	}
	sort.Strings(names)
	names = slices.Compact(names)

	s := &Summary{Total: total, ByPlatform: map[string]int{}}
	data := map[string]string{"Total": strconv.Itoa(total)}
	order := []string{"Total"}
	for _, name := range names {
		if name == "" {
			continue
		}
		n, err := inventory.CountByPlatform(rc.Ctx, m.Store, name)
		if err != nil {
			return nil, err
		}
		s.ByPlatform[name] = n
		label := strings.ToUpper(name[:1]) + name[1:]
		data[label] = strconv.Itoa(n)
		order = append(order, label)
	}
	return s, m.Out.KeyValues(data, order...)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
