package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/domain"
)

const stateFileName = "state.json"

// DefaultKeepBackups is the number of rotating backup files retained.
const DefaultKeepBackups = 5

// Store persists the lifecycle document as a JSON file.
//
// Save is atomic with respect to crashes: the current canonical file is
// rotated into a numbered backup slot, the new document is written to a
// temp file, flushed, and renamed over the canonical path. Load never
// fails the caller: on corruption it falls back through the backups
// newest-first, and if none is readable it returns a fresh document.
//
// All access is serialized by a single mutex so concurrent scans never
// interleave a read with a write.
type Store struct {
	mu     sync.Mutex
	dir    string
	keep   int
	logger zerolog.Logger
}

// NewStore creates a store rooted at dir, keeping the last keep backups.
// keep <= 0 selects DefaultKeepBackups.
func NewStore(dir string, keep int, logger zerolog.Logger) *Store {
	if keep <= 0 {
		keep = DefaultKeepBackups
	}
	return &Store{dir: dir, keep: keep, logger: logger}
}

// Path returns the canonical state file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

func (s *Store) backupPath(n int) string {
	return fmt.Sprintf("%s.backup.%d", s.Path(), n)
}

// Load reads the lifecycle document from disk. A missing file yields an
// empty document. A corrupt file falls back through the backups; if
// every backup is also unreadable a fresh document is returned and a
// critical event is logged.
func (s *Store) Load() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.Path())
	if err == nil {
		return doc
	}
	if os.IsNotExist(err) {
		return NewDocument()
	}

	s.logger.Error().Err(err).Str("path", s.Path()).Msg("state file unreadable, trying backups")

	for n := 1; n <= s.keep; n++ {
		doc, berr := readDocument(s.backupPath(n))
		if berr == nil {
			s.logger.Warn().Str("backup", s.backupPath(n)).Msg("recovered state from backup")
			return doc
		}
	}

	s.logger.Error().Str("path", s.Path()).Msg("no readable state or backup, starting with empty document")
	return NewDocument()
}

func readDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}

// Save persists the document atomically, rotating the previous canonical
// file into the backup chain first. Failures are wrapped as PersistError;
// the caller keeps its in-memory document and retries next interval.
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return &domain.PersistError{Path: s.dir, Err: err}
	}

	path := s.Path()
	s.rotateBackups(path)

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &domain.PersistError{Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := writeAndSync(tmp, b); err != nil {
		return &domain.PersistError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &domain.PersistError{Path: path, Err: err}
	}
	return nil
}

// rotateBackups shifts backup.n to backup.n+1 (dropping the oldest) and
// moves the canonical file into slot 1. Rotation failures are logged but
// never block the save itself.
func (s *Store) rotateBackups(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	os.Remove(s.backupPath(s.keep))
	for n := s.keep - 1; n >= 1; n-- {
		os.Rename(s.backupPath(n), s.backupPath(n+1))
	}
	if err := copyFile(path, s.backupPath(1)); err != nil {
		s.logger.Warn().Err(err).Msg("state backup rotation failed")
	}
}

func writeAndSync(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}
