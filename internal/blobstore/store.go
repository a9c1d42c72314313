// Package blobstore implements the content-addressed blob store described
// by the data model: a flat "blobs/" directory of UUID-named files plus a
// "rips/" staging directory used only while a rip job is in flight.
package blobstore

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediacorral/internal/apperr"
	"mediacorral/internal/fileutil"
)

const (
	blobsDirName = "blobs"
	ripsDirName  = "rips"
	lockFileName = ".blobstore.lock"
)

// Store owns the blobs/ and rips/ directories under a data root. A Store is
// the single writer for its root: the lock file prevents a second process
// from wiping rips/ out from under a running instance, generalizing the
// original implementation's "someone else is managing this directory" panic
// into a recoverable startup error.
type Store struct {
	root    string
	blobDir string
	ripDir  string
	lock    *flock.Flock
}

// Open prepares the blob store rooted at path: blobs/ is created if
// missing, rips/ is wiped if present (or created if absent), and a file
// lock on the root is acquired to guard against a second process managing
// the same directory concurrently.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "blobstore", "Open", "data directory not found: "+path, err)
	}
	if !info.IsDir() {
		return nil, apperr.Wrap(apperr.ErrPrecondition, "blobstore", "Open", "data path is not a directory: "+path, nil)
	}

	lock := flock.New(filepath.Join(path, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "blobstore", "Open", "acquiring root lock", err)
	}
	if !locked {
		return nil, apperr.Wrap(apperr.ErrPrecondition, "blobstore", "Open",
			"someone else is managing this blob directory; make sure no other instance is running", nil)
	}

	blobDir := filepath.Join(path, blobsDirName)
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, apperr.Wrap(apperr.ErrIO, "blobstore", "Open", "creating blobs directory", err)
	}

	ripDir := filepath.Join(path, ripsDirName)
	if err := resetRipDir(ripDir); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Store{root: path, blobDir: blobDir, ripDir: ripDir, lock: lock}, nil
}

func resetRipDir(ripDir string) error {
	entries, err := os.ReadDir(ripDir)
	switch {
	case err == nil:
		for _, e := range entries {
			if rmErr := os.RemoveAll(filepath.Join(ripDir, e.Name())); rmErr != nil {
				return apperr.Wrap(apperr.ErrIO, "blobstore", "Open", "clearing stale rip directory", rmErr)
			}
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if mkErr := os.MkdirAll(ripDir, 0o755); mkErr != nil {
			return apperr.Wrap(apperr.ErrIO, "blobstore", "Open", "creating rips directory", mkErr)
		}
		return nil
	default:
		return apperr.Wrap(apperr.ErrIO, "blobstore", "Open", "reading rips directory", err)
	}
}

// Close releases the root lock. It does not touch blobs/ or rips/.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// BlobDir returns the absolute path to the blobs/ directory.
func (s *Store) BlobDir() string { return s.blobDir }

// RipDir returns the absolute path to the rips/ directory.
func (s *Store) RipDir() string { return s.ripDir }

// BlobPath returns the absolute path a blob ID would live at, whether or
// not it currently exists.
func (s *Store) BlobPath(id string) string {
	return filepath.Join(s.blobDir, id)
}

// ReadBlob reads a blob's full contents by ID.
func (s *Store) ReadBlob(id string) ([]byte, error) {
	data, err := os.ReadFile(s.BlobPath(id))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "blobstore", "ReadBlob", "reading blob "+id, err)
	}
	return data, nil
}

// WriteBlob writes data as a freshly allocated blob and returns its ID,
// the non-renamed counterpart to Import used for content generated
// in-process (e.g. a downloaded reference subtitle) rather than staged on
// disk first.
func (s *Store) WriteBlob(data []byte) (string, error) {
	id, f, err := s.CreateBlob()
	if err != nil {
		return "", err
	}
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return "", apperr.Wrap(apperr.ErrIO, "blobstore", "WriteBlob", "writing blob "+id, writeErr)
	}
	if closeErr != nil {
		return "", apperr.Wrap(apperr.ErrIO, "blobstore", "WriteBlob", "closing blob "+id, closeErr)
	}
	return id, nil
}

// Import moves src into the blob store under a freshly generated UUID,
// falling back to copy-then-remove when the move crosses a filesystem
// boundary (EXDEV), and returns the new blob ID.
func Import(src string, s *Store) (string, error) {
	return importInto(src, s.blobDir)
}

func importInto(src, blobDir string) (string, error) {
	id := uuid.NewString()
	dst := filepath.Join(blobDir, id)
	if err := os.Rename(src, dst); err != nil {
		// Rename fails across filesystem boundaries (EXDEV); fall back to a
		// verified copy, which works regardless of the underlying cause and
		// catches silent corruption a plain io.Copy would miss.
		if copyErr := fileutil.CopyFileVerified(src, dst); copyErr != nil {
			return "", apperr.WrapHint(apperr.ErrIO, "blobstore", "Import",
				"moving file into blob store", "E_XDEV", "source and destination differ in filesystem", copyErr)
		}
		if rmErr := os.Remove(src); rmErr != nil {
			return "", apperr.Wrap(apperr.ErrIO, "blobstore", "Import", "removing source after verified copy", rmErr)
		}
	}
	return id, nil
}

// Delete removes a blob by ID. A missing blob is not an error: delete is
// idempotent by design so a cascading delete across video/subtitle/ost/
// image rows never fails partway through.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.BlobPath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Wrap(apperr.ErrIO, "blobstore", "Delete", "removing blob "+id, err)
	}
	return nil
}

// CreateBlob creates (never opens-for-read) a new blob file for writing,
// returning its ID and an open handle. This is the only path that produces
// new blob content, matching the design decision that blob creation is
// always create+write, never open-for-append or open-for-read.
func (s *Store) CreateBlob() (id string, f *os.File, err error) {
	id = uuid.NewString()
	f, err = os.OpenFile(s.BlobPath(id), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.ErrIO, "blobstore", "CreateBlob", "creating blob file", err)
	}
	return id, f, nil
}
