package blobstore

import (
	"errors"
	"os"
	"path/filepath"

	"mediacorral/internal/apperr"
)

// HardLink creates a hard link at dest pointing at blob id. If dest
// already exists it is unlinked and the link retried once, so replacing
// an export's existing link is idempotent rather than an error. Both id's
// blob path and dest must be absolute, matching the filesystem's own
// requirement that hard links share a device.
func (s *Store) HardLink(id, dest string) error {
	return linkWithReplace(dest, func() error {
		return os.Link(s.BlobPath(id), dest)
	})
}

// SymLink creates a symlink at dest pointing at blob id, computed as a
// path relative to dest's parent directory so the export tree stays
// relocatable. Existing-destination handling mirrors HardLink.
func (s *Store) SymLink(id, dest string) error {
	rel, err := filepath.Rel(filepath.Dir(dest), s.BlobPath(id))
	if err != nil {
		return apperr.Wrap(apperr.ErrPrecondition, "blobstore", "SymLink", "computing relative target for "+dest, err)
	}
	return linkWithReplace(dest, func() error {
		return os.Symlink(rel, dest)
	})
}

// linkWithReplace runs link once, and if it fails because dest already
// exists, unlinks dest and retries exactly once.
func linkWithReplace(dest string, link func() error) error {
	if err := link(); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return apperr.Wrap(apperr.ErrIO, "blobstore", "linkWithReplace", "linking "+dest, err)
		}
		if rmErr := os.Remove(dest); rmErr != nil {
			return apperr.Wrap(apperr.ErrIO, "blobstore", "linkWithReplace", "removing existing "+dest, rmErr)
		}
		if err := link(); err != nil {
			return apperr.Wrap(apperr.ErrIO, "blobstore", "linkWithReplace", "retrying link to "+dest, err)
		}
	}
	return nil
}
