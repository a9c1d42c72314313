// Package export builds human-readable library trees by linking blob store
// content into Plex/Jellyfin-style path layouts, for each configured export
// target (movies, TV shows, ...).
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mediacorral/internal/apperr"
	"mediacorral/internal/idx"
)

// LinkType selects how a blob is attached into an export tree.
type LinkType int

const (
	LinkHard LinkType = iota
	LinkSymbolic
)

// MediaType selects which catalog query populates an export target.
type MediaType int

const (
	MediaMovies MediaType = iota
	MediaTvShows
)

// Target is one configured export directory (e.g. "Movies", "TV Shows"),
// each rooted at its own absolute Dir: exports_dirs entries in the
// coordinator config name arbitrary, unrelated filesystem locations rather
// than siblings under one shared root.
type Target struct {
	Name      string
	Dir       string
	MediaType MediaType
	LinkType  LinkType
}

// BlobPather resolves a blob ID to its absolute path, satisfied by
// *blobstore.Store in production and a fake in tests.
type BlobPather interface {
	BlobPath(id string) string
}

// Renderer rebuilds export directory trees from the catalog.
type Renderer struct {
	targets []Target
	blobs   BlobPather
	store   *idx.Store
}

// New builds a Renderer over the given export targets. Each target's Dir
// is created on demand by RebuildTarget.
func New(targets []Target, blobs BlobPather, store *idx.Store) (*Renderer, error) {
	for _, t := range targets {
		if t.Dir == "" {
			return nil, apperr.Wrap(apperr.ErrPrecondition, "export", "New", "export target "+t.Name+" has no directory configured", nil)
		}
	}
	return &Renderer{targets: targets, blobs: blobs, store: store}, nil
}

// RebuildTarget wipes and repopulates one named export target from the
// current catalog state.
func (r *Renderer) RebuildTarget(ctx context.Context, name string) error {
	target, ok := r.findTarget(name)
	if !ok {
		return apperr.Wrap(apperr.ErrPrecondition, "export", "RebuildTarget", "unconfigured export target: "+name, nil)
	}
	dir := target.Dir
	if err := resetDir(dir); err != nil {
		return err
	}

	switch target.MediaType {
	case MediaTvShows:
		entries, err := r.store.TvExportEntries(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.linkTvEpisode(dir, e, target.LinkType); err != nil {
				return err
			}
		}
	case MediaMovies:
		entries, err := r.store.MovieExportEntries(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.linkMovie(dir, e, target.LinkType); err != nil {
				return err
			}
		}
	}
	return nil
}

// SpliceVideo links a single newly tagged video into every configured
// export target that covers its video type, without rebuilding the whole
// tree. Untagged videos are a no-op.
func (r *Renderer) SpliceVideo(ctx context.Context, videoType idx.VideoType, videoFileID int64) error {
	switch videoType {
	case idx.VideoTypeTvEpisode:
		e, err := r.store.TvExportEntryForVideo(ctx, videoFileID)
		if err != nil {
			return err
		}
		for _, target := range r.targets {
			if target.MediaType != MediaTvShows {
				continue
			}
			if err := r.linkTvEpisode(target.Dir, e, target.LinkType); err != nil {
				return err
			}
		}
	case idx.VideoTypeMovie:
		e, err := r.store.MovieExportEntryForVideo(ctx, videoFileID)
		if err != nil {
			return err
		}
		for _, target := range r.targets {
			if target.MediaType != MediaMovies {
				continue
			}
			if err := r.linkMovie(target.Dir, e, target.LinkType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) findTarget(name string) (Target, bool) {
	for _, t := range r.targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil:
		for _, e := range entries {
			if rmErr := os.RemoveAll(filepath.Join(dir, e.Name())); rmErr != nil {
				return apperr.Wrap(apperr.ErrIO, "export", "resetDir", "clearing export target", rmErr)
			}
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return apperr.Wrap(apperr.ErrIO, "export", "resetDir", "creating export target", mkErr)
		}
		return nil
	default:
		return apperr.Wrap(apperr.ErrIO, "export", "resetDir", "reading export target", err)
	}
}

func (r *Renderer) linkTvEpisode(exportsDir string, e idx.TvExportRow, linkType LinkType) error {
	showFolder := filepath.Join(exportsDir, fmt.Sprintf("%s (%s) {tmdb-%d}", Sanitize(e.ShowTitle), Sanitize(e.ShowYear), e.ShowTmdb))
	seasonFolder := filepath.Join(showFolder, fmt.Sprintf("Season %02d", e.SeasonNumber))
	if err := os.MkdirAll(seasonFolder, 0o755); err != nil {
		return apperr.Wrap(apperr.ErrIO, "export", "linkTvEpisode", "creating season directory", err)
	}
	episodeName := fmt.Sprintf("%s (%s) - S%02dE%02d - %s - {tmdb-%d}.mkv",
		Sanitize(e.ShowTitle), Sanitize(e.ShowYear), e.SeasonNumber, e.EpisodeNum, Sanitize(e.EpisodeTitle), e.EpisodeTmdb)
	episodePath := filepath.Join(seasonFolder, episodeName)
	return r.link(e.BlobID, episodePath, linkType)
}

func (r *Renderer) linkMovie(exportsDir string, e idx.MovieExportRow, linkType LinkType) error {
	folderName := fmt.Sprintf("%s (%s) {tmdb-%d}", Sanitize(e.Title), Sanitize(e.Year), e.TmdbID)
	movieFolder := filepath.Join(exportsDir, folderName)
	if err := os.MkdirAll(movieFolder, 0o755); err != nil {
		return apperr.Wrap(apperr.ErrIO, "export", "linkMovie", "creating movie directory", err)
	}
	filePath := filepath.Join(movieFolder, folderName+".mkv")
	return r.link(e.BlobID, filePath, linkType)
}

func (r *Renderer) link(blobID, dest string, linkType LinkType) error {
	src := r.blobs.BlobPath(blobID)
	// A missing source blob is non-fatal: the catalog row may reference a
	// blob that was deleted out from under the export without the catalog
	// being updated yet. Skip rather than abort the whole rebuild.
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperr.Wrap(apperr.ErrIO, "export", "link", "statting blob "+blobID, err)
	}
	_ = os.Remove(dest)
	var err error
	if linkType == LinkSymbolic {
		err = os.Symlink(src, dest)
	} else {
		err = os.Link(src, dest)
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "export", "link", "linking blob into export tree", err)
	}
	return nil
}
