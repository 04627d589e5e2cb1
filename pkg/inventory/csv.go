// pkg/inventory/csv.go

package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// CSVStore keeps the inventory in a header-first CSV file. Writers take an
// exclusive flock on <path>.lock and replace the file by rename, so a
// concurrent reader sees either the old or the new content.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (c *CSVStore) Path() string { return c.path }

func (c *CSVStore) Close() error { return nil }

func (c *CSVStore) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return cerr.Wrapf(err, "create inventory directory for %s", c.path)
	}
	return c.withLock(unix.LOCK_EX, func() error {
		info, err := os.Stat(c.path)
		if err == nil && info.Size() > 0 {
			return nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cerr.Wrapf(err, "stat %s", c.path)
		}
		otelzap.Ctx(ctx).Info("Initializing inventory", zap.String("path", c.path))
		return c.writeRows(nil)
	})
}

func (c *CSVStore) Append(ctx context.Context, s Station) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	return c.withLock(unix.LOCK_EX, func() error {
		rows, err := c.readRows(ctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.CTID == s.CTID {
				return cerr.Wrapf(ErrDuplicate, "ctid %d", s.CTID)
			}
		}
		return c.writeRows(append(rows, s))
	})
}

func (c *CSVStore) Find(ctx context.Context, ctid int) (*Station, error) {
	rows, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].CTID == ctid {
			return &rows[i], nil
		}
	}
	return nil, cerr.Wrapf(ErrNotFound, "ctid %d", ctid)
}

func (c *CSVStore) List(ctx context.Context) ([]Station, error) {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		otelzap.Ctx(ctx).Warn("Inventory file not found", zap.String("path", c.path))
		return []Station{}, nil
	}
	var rows []Station
	err := c.withLock(unix.LOCK_SH, func() error {
		var err error
		rows, err = c.readRows(ctx)
		return err
	})
	return rows, err
}

func (c *CSVStore) Remove(ctx context.Context, ctid int) error {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return cerr.Wrapf(ErrNotFound, "ctid %d", ctid)
	}
	return c.withLock(unix.LOCK_EX, func() error {
		rows, err := c.readRows(ctx)
		if err != nil {
			return err
		}
		kept := rows[:0]
		found := false
		for _, r := range rows {
			if r.CTID == ctid {
				found = true
				continue
			}
			kept = append(kept, r)
		}
		if !found {
			return cerr.Wrapf(ErrNotFound, "ctid %d", ctid)
		}
		return c.writeRows(kept)
	})
}

func (c *CSVStore) Reset(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return cerr.Wrapf(err, "create inventory directory for %s", c.path)
	}
	return c.withLock(unix.LOCK_EX, func() error {
		otelzap.Ctx(ctx).Info("Resetting inventory", zap.String("path", c.path))
		return c.writeRows(nil)
	})
}

func (c *CSVStore) withLock(how int, fn func() error) error {
	lf, err := os.OpenFile(c.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return cerr.Wrapf(err, "open inventory lock for %s", c.path)
	}
	defer lf.Close()

	if err := unix.Flock(int(lf.Fd()), how); err != nil {
		return cerr.Wrapf(err, "lock inventory %s", c.path)
	}
	defer unix.Flock(int(lf.Fd()), unix.LOCK_UN) //nolint:errcheck

	return fn()
}

// readRows must be called with the lock held. Rows that cannot be parsed
// are logged and skipped rather than failing the whole read.
func (c *CSVStore) readRows(ctx context.Context) ([]Station, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Station{}, nil
	}
	if err != nil {
		return nil, cerr.Wrapf(err, "open inventory %s", c.path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	log := otelzap.Ctx(ctx)
	rows := []Station{}
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn("Skipping unreadable inventory line", zap.Int("line", line), zap.Error(err))
			continue
		}
		if line == 1 && len(rec) > 0 && rec[0] == Header[0] {
			continue
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		st, err := fromRow(rec)
		if err != nil {
			log.Warn("Skipping malformed inventory row", zap.Int("line", line), zap.Error(err))
			continue
		}
		rows = append(rows, st)
	}
	return rows, nil
}

// writeRows must be called with the lock held.
func (c *CSVStore) writeRows(rows []Station) error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*")
	if err != nil {
		return cerr.Wrapf(err, "create temp inventory in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "write inventory header")
	}
	for _, s := range rows {
		if err := w.Write(s.toRow()); err != nil {
			tmp.Close()
			return cerr.Wrapf(err, "write inventory row %d", s.CTID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "flush inventory")
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "chmod inventory")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "sync inventory")
	}
	if err := tmp.Close(); err != nil {
		return cerr.Wrap(err, "close inventory")
	}
	return cerr.Wrapf(os.Rename(tmpName, c.path), "replace inventory %s", c.path)
}
