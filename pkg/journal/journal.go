// pkg/journal/journal.go

// Package journal records which lifecycle steps have completed for a CTID,
// so an interrupted deploy or remove leaves a marker that can be inspected
// and resumed.
package journal

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Operation string

const (
	OpDeploy Operation = "deploy"
	OpRemove Operation = "remove"
)

// Entry is the persisted state for one CTID.
type Entry struct {
	Operation   Operation `yaml:"operation"`
	OperationID string    `yaml:"operation_id"`
	CTID        int       `yaml:"ctid"`
	Platform    string    `yaml:"platform,omitempty"`
	Hostname    string    `yaml:"hostname,omitempty"`
	Dataset     string    `yaml:"dataset,omitempty"`
	Steps       []string  `yaml:"completed_steps"`
	Started     time.Time `yaml:"started"`
	Updated     time.Time `yaml:"updated"`
}

// Done reports whether step has been recorded.
func (e *Entry) Done(step string) bool {
	return e != nil && slices.Contains(e.Steps, step)
}

// LastStep returns the most recently completed step, or "".
func (e *Entry) LastStep() string {
	if e == nil || len(e.Steps) == 0 {
		return ""
	}
	return e.Steps[len(e.Steps)-1]
}

// Journal stores one YAML file per CTID under Dir.
type Journal struct {
	Dir string
	Now func() time.Time
}

func New(dir string) *Journal {
	return &Journal{Dir: dir, Now: time.Now}
}

func (j *Journal) path(ctid int) string {
	return filepath.Join(j.Dir, strconv.Itoa(ctid)+".yaml")
}

// Load returns the entry for ctid, or nil when none exists.
func (j *Journal) Load(ctid int) (*Entry, error) {
	data, err := os.ReadFile(j.path(ctid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.Wrapf(err, "read journal for %d", ctid)
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, cerr.Wrapf(err, "parse journal for %d", ctid)
	}
	return &e, nil
}

// Begin starts a new entry, or returns the existing one when it belongs to
// the same operation and resume is set. Any other existing entry is
// replaced.
func (j *Journal) Begin(op Operation, ctid int, seed Entry, resume bool) (*Entry, error) {
	existing, err := j.Load(ctid)
	if err != nil {
		return nil, err
	}
	if resume && existing != nil && existing.Operation == op {
		return existing, nil
	}
	now := j.Now()
	e := seed
	e.Operation = op
	e.OperationID = uuid.NewString()
	e.CTID = ctid
	e.Steps = []string{}
	e.Started = now
	e.Updated = now
	return &e, j.save(&e)
}

// MarkStep records step as completed and persists the entry.
func (j *Journal) MarkStep(e *Entry, step string) error {
	if !e.Done(step) {
		e.Steps = append(e.Steps, step)
	}
	e.Updated = j.Now()
	return j.save(e)
}

// Clear removes the entry for ctid; a missing entry is fine.
func (j *Journal) Clear(ctid int) error {
	err := os.Remove(j.path(ctid))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cerr.Wrapf(err, "clear journal for %d", ctid)
	}
	return nil
}

func (j *Journal) save(e *Entry) error {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return cerr.Wrapf(err, "create journal dir %s", j.Dir)
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.Wrap(err, "marshal journal entry")
	}
	tmp := j.path(e.CTID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return cerr.Wrapf(err, "write journal for %d", e.CTID)
	}
	return cerr.Wrapf(os.Rename(tmp, j.path(e.CTID)), "replace journal for %d", e.CTID)
}
