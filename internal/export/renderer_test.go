package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediacorral/internal/idx"
)

type fakeBlobs struct{ dir string }

func (f fakeBlobs) BlobPath(id string) string { return filepath.Join(f.dir, id) }

func writeFakeBlob(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestRenderer(t *testing.T, targets []Target) (*Renderer, *idx.Store, string) {
	t.Helper()
	blobDir := t.TempDir()
	store, err := idx.Open(t.TempDir())
	if err != nil {
		t.Fatalf("idx.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r, err := New(targets, fakeBlobs{dir: blobDir}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, store, blobDir
}

func TestRebuildTargetBuildsTvPathTemplate(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "TV Shows")
	r, store, blobDir := newTestRenderer(t, []Target{{Name: "TV Shows", Dir: dir, MediaType: MediaTvShows, LinkType: LinkSymbolic}})

	showID, err := store.InsertTvShow(ctx, idx.TvShow{Title: "Example Show", OriginalReleaseYear: "1999"})
	if err != nil {
		t.Fatal(err)
	}
	seasonID, err := store.InsertTvSeason(ctx, idx.TvSeason{TvShowID: showID, SeasonNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	epID, err := store.InsertTvEpisode(ctx, idx.TvEpisode{TvShowID: showID, TvSeasonID: seasonID, EpisodeNumber: 3, Title: "Pilot: Part 2"})
	if err != nil {
		t.Fatal(err)
	}
	videoID, err := store.InsertVideoFile(ctx, idx.VideoFile{BlobID: "blob-ep"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.TagVideoFile(ctx, videoID, idx.VideoTypeTvEpisode, epID); err != nil {
		t.Fatal(err)
	}
	writeFakeBlob(t, blobDir, "blob-ep", "episode bytes")

	if err := r.RebuildTarget(ctx, "TV Shows"); err != nil {
		t.Fatalf("RebuildTarget: %v", err)
	}

	want := filepath.Join(dir, "Example Show (1999) {tmdb-0}", "Season 01",
		"Example Show (1999) - S01E03 - Pilot- Part 2 - {tmdb-0}.mkv")
	if _, err := os.Lstat(want); err != nil {
		t.Fatalf("expected episode link at %s: %v", want, err)
	}
}

func TestRebuildTargetSkipsMissingBlob(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "Movies")
	r, store, _ := newTestRenderer(t, []Target{{Name: "Movies", Dir: dir, MediaType: MediaMovies, LinkType: LinkHard}})

	movieID, err := store.InsertMovie(ctx, idx.Movie{Title: "Ghost Print", ReleaseYear: "2001"})
	if err != nil {
		t.Fatal(err)
	}
	videoID, err := store.InsertVideoFile(ctx, idx.VideoFile{BlobID: "missing-blob"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.TagVideoFile(ctx, videoID, idx.VideoTypeMovie, movieID); err != nil {
		t.Fatal(err)
	}

	if err := r.RebuildTarget(ctx, "Movies"); err != nil {
		t.Fatalf("RebuildTarget should skip missing blobs, got error: %v", err)
	}
}

func TestSpliceVideoLinksSingleMovie(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "Movies")
	r, store, blobDir := newTestRenderer(t, []Target{{Name: "Movies", Dir: dir, MediaType: MediaMovies, LinkType: LinkHard}})

	movieID, err := store.InsertMovie(ctx, idx.Movie{Title: "Spliced", ReleaseYear: "2010"})
	if err != nil {
		t.Fatal(err)
	}
	videoID, err := store.InsertVideoFile(ctx, idx.VideoFile{BlobID: "blob-movie"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.TagVideoFile(ctx, videoID, idx.VideoTypeMovie, movieID); err != nil {
		t.Fatal(err)
	}
	writeFakeBlob(t, blobDir, "blob-movie", "movie bytes")

	if err := r.SpliceVideo(ctx, idx.VideoTypeMovie, videoID); err != nil {
		t.Fatalf("SpliceVideo: %v", err)
	}

	want := filepath.Join(dir, "Spliced (2010) {tmdb-0}", "Spliced (2010) {tmdb-0}.mkv")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected movie link at %s: %v", want, err)
	}
}
