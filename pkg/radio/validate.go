// pkg/radio/validate.go

package radio

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/TecnoSoul/InfraStack/pkg/inventory"
	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
	cerr "github.com/cockroachdb/errors"
)

var stationNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,30}[a-z0-9])?$`)

// CheckCTIDRange rejects CTIDs outside [100, 999999].
func CheckCTIDRange(ctid int) error {
	if ctid < inventory.MinCTID || ctid > inventory.MaxCTID {
		return stack_err.NewValidationError(
			fmt.Sprintf("CTID must be between %d and %d, got %d", inventory.MinCTID, inventory.MaxCTID, ctid))
	}
	return nil
}

// ValidateCTID accepts a CTID only when it is in range, absent from the
// inventory and not a live container.
func (m *Manager) ValidateCTID(rc *stack_io.RuntimeContext, ctid int) error {
	if err := CheckCTIDRange(ctid); err != nil {
		return err
	}
	if _, err := m.Store.Find(rc.Ctx, ctid); err == nil {
		return stack_err.NewPreconditionError(
			fmt.Sprintf("CTID %d already exists in inventory", ctid),
			"choose another CTID or remove the station first")
	} else if !cerr.Is(err, inventory.ErrNotFound) {
		return err
	}
	exists, err := m.PCT.Exists(rc.Ctx, ctid)
	if err != nil {
		return err
	}
	if exists {
		return stack_err.NewPreconditionError(
			fmt.Sprintf("container %d already exists on this node", ctid))
	}
	return nil
}

// ValidateStationName enforces lowercase alphanumerics and inner hyphens,
// 1 to 32 characters.
func ValidateStationName(name string) error {
	if !stationNameRe.MatchString(name) {
		return stack_err.NewValidationError(
			fmt.Sprintf("invalid station name %q", name),
			"use 1-32 lowercase letters, digits or hyphens, not starting or ending with a hyphen")
	}
	return nil
}

// resolveIP turns an optional last-octet suffix into the net0 address.
func (m *Manager) resolveIP(suffix string) (addr, cidr string, err error) {
	if suffix == "" {
		return "dhcp", "dhcp", nil
	}
	n, convErr := strconv.Atoi(suffix)
	if convErr != nil || n < 1 || n > 254 {
		return "", "", stack_err.NewValidationError(
			fmt.Sprintf("IP suffix must be a number between 1 and 254, got %q", suffix))
	}
	addr = fmt.Sprintf("%s.%d", m.Config.Network.Prefix, n)
	return addr, fmt.Sprintf("%s/%d", addr, m.Config.Network.CIDR), nil
}
