// pkg/inventory/station.go

// Package inventory is the durable CTID -> station mapping. Every
// invocation re-reads it; nothing is cached between runs.
package inventory

import (
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when no row carries the requested CTID.
	ErrNotFound = cerr.New("station not found in inventory")
	// ErrDuplicate is returned when appending a CTID that is already present.
	ErrDuplicate = cerr.New("ctid already present in inventory")
)

const (
	MinCTID = 100
	MaxCTID = 999999

	DateLayout = "2006-01-02"
)

// Header is the first row of the CSV inventory. Files written before the
// Dataset column existed have only the first seven columns.
var Header = []string{"CTID", "Type", "Hostname", "IP", "Description", "Created", "Status", "Dataset"}

const legacyColumns = 7

// Station is one inventory row.
type Station struct {
	CTID        int       `validate:"min=100,max=999999"`
	Platform    string    `validate:"required,alphanum,lowercase"`
	Hostname    string    `validate:"required,hostname_rfc1123"`
	IP          string    `validate:"required,ip4_addr|eq=dhcp"`
	Description string
	Created     time.Time `validate:"required"`
	Status      string
	// DatasetPath is stored explicitly; see Dataset for legacy rows.
	DatasetPath string
}

// Dataset returns the stored dataset path, falling back to the
// <pool>/container-data/<type>-media/<hostname minus "<type>-"> convention
// for rows written before the column existed.
func (s Station) Dataset(pool string) string {
	if s.DatasetPath != "" {
		return s.DatasetPath
	}
	if pool == "" {
		return ""
	}
	name := strings.TrimPrefix(s.Hostname, s.Platform+"-")
	if name == "" || name == s.Hostname {
		return ""
	}
	return DatasetPath(pool, s.Platform, name)
}

// DatasetPath builds <pool>/container-data/<platform>-media/<station>.
func DatasetPath(pool, platform, station string) string {
	return path.Join(pool, "container-data", platform+"-media", station)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the record before it is persisted.
func (s Station) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if cerr.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return cerr.Newf("invalid station record: field %s failed %q (value %v)", f.Field(), f.Tag(), f.Value())
		}
		return cerr.Wrap(err, "invalid station record")
	}
	return nil
}

func (s Station) toRow() []string {
	return []string{
		strconv.Itoa(s.CTID),
		s.Platform,
		s.Hostname,
		s.IP,
		s.Description,
		s.Created.Format(DateLayout),
		s.Status,
		s.DatasetPath,
	}
}

func fromRow(row []string) (Station, error) {
	if len(row) < legacyColumns {
		return Station{}, cerr.Newf("expected at least %d columns, got %d", legacyColumns, len(row))
	}
	ctid, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return Station{}, cerr.Wrapf(err, "bad CTID %q", row[0])
	}
	s := Station{
		CTID:        ctid,
		Platform:    row[1],
		Hostname:    row[2],
		IP:          row[3],
		Description: row[4],
		Status:      row[6],
	}
	// manual edits sometimes leave odd dates; keep the row anyway
	if created, err := time.Parse(DateLayout, strings.TrimSpace(row[5])); err == nil {
		s.Created = created
	}
	if len(row) > legacyColumns {
		s.DatasetPath = row[7]
	}
	return s, nil
}
