// pkg/inventory/sqlite.go

package inventory

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	ctid        INTEGER NOT NULL UNIQUE,
	type        TEXT    NOT NULL,
	hostname    TEXT    NOT NULL,
	ip          TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	created     TEXT    NOT NULL,
	status      TEXT    NOT NULL DEFAULT '',
	dataset     TEXT    NOT NULL DEFAULT ''
);`

// SQLiteStore is the alternative backend. Row order is insertion order via
// the autoincrement seq column.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, cerr.Wrapf(err, "create inventory directory for %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerr.Wrapf(err, "open sqlite inventory %s", path)
	}
	// one connection keeps the busy_timeout pragma in effect for every query
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, cerr.Wrap(err, "set busy_timeout")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Initialize(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return cerr.Wrap(err, "create stations table")
}

func (s *SQLiteStore) Append(ctx context.Context, st Station) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerr.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations WHERE ctid = ?`, st.CTID).Scan(&n); err != nil {
		return cerr.Wrap(err, "check duplicate ctid")
	}
	if n > 0 {
		return cerr.Wrapf(ErrDuplicate, "ctid %d", st.CTID)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO stations (ctid, type, hostname, ip, description, created, status, dataset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.CTID, st.Platform, st.Hostname, st.IP, st.Description,
		st.Created.Format(DateLayout), st.Status, st.DatasetPath)
	if err != nil {
		return cerr.Wrapf(err, "insert station %d", st.CTID)
	}
	return cerr.Wrap(tx.Commit(), "commit station insert")
}

func (s *SQLiteStore) Find(ctx context.Context, ctid int) (*Station, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT ctid, type, hostname, ip, description, created, status, dataset
		 FROM stations WHERE ctid = ? ORDER BY seq LIMIT 1`, ctid)
	st, err := scanStation(row)
	if cerr.Is(err, sql.ErrNoRows) {
		return nil, cerr.Wrapf(ErrNotFound, "ctid %d", ctid)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Station, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ctid, type, hostname, ip, description, created, status, dataset
		 FROM stations ORDER BY seq`)
	if err != nil {
		return nil, cerr.Wrap(err, "query stations")
	}
	defer rows.Close()

	out := []Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, cerr.Wrap(rows.Err(), "iterate stations")
}

func (s *SQLiteStore) Remove(ctx context.Context, ctid int) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM stations WHERE ctid = ?`, ctid)
	if err != nil {
		return cerr.Wrapf(err, "delete station %d", ctid)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return cerr.Wrap(err, "rows affected")
	}
	if n == 0 {
		return cerr.Wrapf(ErrNotFound, "ctid %d", ctid)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM stations`)
	return cerr.Wrap(err, "reset stations")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(sc scanner) (Station, error) {
	var (
		st      Station
		created string
	)
	if err := sc.Scan(&st.CTID, &st.Platform, &st.Hostname, &st.IP, &st.Description, &created, &st.Status, &st.DatasetPath); err != nil {
		if cerr.Is(err, sql.ErrNoRows) {
			return st, err
		}
		return st, cerr.Wrap(err, "scan station")
	}
	if t, err := time.Parse(DateLayout, created); err == nil {
		st.Created = t
	}
	return st, nil
}
