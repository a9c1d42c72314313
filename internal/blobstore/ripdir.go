package blobstore

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"mediacorral/internal/apperr"
)

// RipDir is a staging directory under rips/ for one in-flight rip job. The
// ripper bridge writes raw .mkv (and, once C5 has produced them, .srt
// sidecar) files directly into it. Exactly one of Import or Discard must be
// called to reach a terminal state; Go has no deterministic destructor, so
// a finalizer removes the staging directory if neither runs before the
// handle is collected, standing in for the original's Drop-based safety net.
type RipDir struct {
	dir    string
	closed bool
}

// NewRipDir allocates a fresh UUID-named staging directory under the
// store's rips/ root.
func NewRipDir(s *Store) (*RipDir, error) {
	dir := filepath.Join(s.ripDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "blobstore", "NewRipDir", "creating rip staging directory", err)
	}
	rd := &RipDir{dir: dir}
	runtime.SetFinalizer(rd, func(r *RipDir) {
		if !r.closed {
			// A handle reaching here without Import/Discard is a bug upstream;
			// the staging tree is removed so its files do not linger. Nothing
			// is logged: there is no logger in scope for a finalizer.
			_ = os.RemoveAll(r.dir)
		}
	})
	return rd, nil
}

// Path is the absolute path to the staging directory.
func (r *RipDir) Path() string { return r.dir }

// ImportResult reports the blob IDs produced by importing a RipDir's
// contents, keyed by the original file's base name without extension so
// lifecycle.Manager can cross-reference a video to the subtitles extracted
// from it.
type ImportResult struct {
	VideoBlobIDs    map[string]string // stem -> blob id
	SubtitleBlobIDs map[string]string // stem -> blob id
}

// Import moves every .mkv and .srt file out of the staging directory into
// the blob store and removes the (now empty) staging directory. Subtitle
// sidecars are matched to videos by filename stem, matching the two-pass
// import the original does (videos first, so subtitle rows can reference a
// video's blob ID).
func (r *RipDir) Import(s *Store) (ImportResult, error) {
	if r.closed {
		return ImportResult{}, apperr.Wrap(apperr.ErrPrecondition, "blobstore", "Import", "rip directory already finalized", nil)
	}
	result := ImportResult{VideoBlobIDs: map[string]string{}, SubtitleBlobIDs: map[string]string{}}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return result, apperr.Wrap(apperr.ErrIO, "blobstore", "Import", "reading staging directory", err)
	}

	var subtitleFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch filepath.Ext(name) {
		case ".mkv":
			stem := stemOf(name)
			id, err := Import(filepath.Join(r.dir, name), s)
			if err != nil {
				return result, err
			}
			result.VideoBlobIDs[stem] = id
		case ".srt":
			subtitleFiles = append(subtitleFiles, name)
		}
	}
	for _, name := range subtitleFiles {
		stem := stemOf(name)
		if _, ok := result.VideoBlobIDs[stem]; !ok {
			continue // no matching video; sidecar is orphaned, skip it
		}
		id, err := Import(filepath.Join(r.dir, name), s)
		if err != nil {
			return result, err
		}
		result.SubtitleBlobIDs[stem] = id
	}

	r.finalize()
	return result, nil
}

// Discard abandons the staging directory and everything in it.
func (r *RipDir) Discard() error {
	if r.closed {
		return nil
	}
	r.finalize()
	return nil
}

func (r *RipDir) finalize() {
	_ = os.RemoveAll(r.dir)
	r.closed = true
	runtime.SetFinalizer(r, nil)
}

func stemOf(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
