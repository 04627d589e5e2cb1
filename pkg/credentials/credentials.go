// pkg/credentials/credentials.go

// Package credentials keeps the generated secrets for each container in a
// dotenv file readable only by root.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	cerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	DirPerm  os.FileMode = 0o700
	FilePerm os.FileMode = 0o600
)

type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Path is <dir>/<ctid>.env.
func (s *Store) Path(ctid int) string {
	return filepath.Join(s.Dir, strconv.Itoa(ctid)+".env")
}

// Write replaces the credentials file for ctid.
func (s *Store) Write(ctid int, values map[string]string) error {
	if err := os.MkdirAll(s.Dir, DirPerm); err != nil {
		return cerr.Wrapf(err, "create credentials dir %s", s.Dir)
	}
	content, err := Encode(values)
	if err != nil {
		return err
	}
	path := s.Path(ctid)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), FilePerm); err != nil {
		return cerr.Wrapf(err, "write %s", tmp)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(tmp, FilePerm); err != nil {
		return cerr.Wrapf(err, "chmod %s", tmp)
	}
	return cerr.Wrapf(os.Rename(tmp, path), "replace %s", path)
}

// Read returns the stored values, or nil when no file exists.
func (s *Store) Read(ctid int) (map[string]string, error) {
	values, err := godotenv.Read(s.Path(ctid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.Wrapf(err, "read credentials for %d", ctid)
	}
	return values, nil
}

// Exists reports whether a credentials file is present.
func (s *Store) Exists(ctid int) bool {
	_, err := os.Stat(s.Path(ctid))
	return err == nil
}

// Remove deletes the file; a missing file is not an error.
func (s *Store) Remove(ctid int) error {
	err := os.Remove(s.Path(ctid))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cerr.Wrapf(err, "remove credentials for %d", ctid)
	}
	return nil
}

// Encode renders values in dotenv form, sorted by key.
func Encode(values map[string]string) (string, error) {
	content, err := godotenv.Marshal(values)
	if err != nil {
		return "", cerr.Wrap(err, "encode credentials")
	}
	return content + "\n", nil
}

// Decode parses dotenv content.
func Decode(content string) (map[string]string, error) {
	values, err := godotenv.Unmarshal(content)
	if err != nil {
		return nil, cerr.Wrap(err, "decode credentials")
	}
	return values, nil
}

// Generate returns a random value for every key.
func Generate(keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return nil, cerr.Wrap(err, "generate secret")
		}
		out[k] = base64.RawURLEncoding.EncodeToString(buf)
	}
	return out, nil
}
