package matcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediacorral/internal/blobstore"
	"mediacorral/internal/idx"
	"mediacorral/internal/opensubtitles"
)

// singleCandidateServer serves exactly one English subtitle candidate for
// any tmdb_id, counting how many times it is searched so tests can assert
// on cache reuse.
func singleCandidateServer(t *testing.T, text string, searches *int) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
		case "/subtitles":
			*searches++
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
				{
					"id": "1",
					"attributes": map[string]any{
						"language": "en",
						"files": []map[string]any{
							{"file_id": 1, "file_name": "reference.srt"},
						},
					},
				},
			}})
		case "/download":
			_ = json.NewEncoder(w).Encode(map[string]any{"link": server.URL + "/payload"})
		case "/payload":
			w.Write([]byte(text))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func newTestMatcher(t *testing.T, catalogURL string) (*Matcher, *idx.Store, *blobstore.Store) {
	t.Helper()
	index, err := idx.Open(t.TempDir())
	if err != nil {
		t.Fatalf("idx.Open: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })

	blobs, err := blobstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	catalog, err := opensubtitles.New(opensubtitles.Config{
		APIKey: "key", Username: "user", Password: "pass", BaseURL: catalogURL,
	})
	if err != nil {
		t.Fatalf("opensubtitles.New: %v", err)
	}

	return New(index, blobs, catalog), index, blobs
}

func TestAnalyzeJobPersistsMatchInfoAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	searches := 0
	refText := "1\n00:00:00,000 --> 00:00:02,000\nHello there, this is the reference line.\n"
	server := singleCandidateServer(t, refText, &searches)
	defer server.Close()

	m, index, blobs := newTestMatcher(t, server.URL)

	movieID := 42
	suspected, err := idx.SuspectedContents{Movie: &movieID}.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", suspected)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	videoID, err := index.InsertVideoFile(ctx, idx.VideoFile{BlobID: "video-blob", RipJob: &jobID})
	if err != nil {
		t.Fatalf("InsertVideoFile: %v", err)
	}

	localBlobID, err := blobs.WriteBlob([]byte("1\n00:00:00,000 --> 00:00:02,000\nHello there, this is the reference line.\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := index.InsertSubtitleFile(ctx, localBlobID, videoID); err != nil {
		t.Fatalf("InsertSubtitleFile: %v", err)
	}

	if err := m.AnalyzeJob(ctx, jobID); err != nil {
		t.Fatalf("AnalyzeJob: %v", err)
	}

	rows, err := index.MatchInfoByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("MatchInfoByVideo: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 match row, got %d: %+v", len(rows), rows)
	}
	if rows[0].Distance != 0 {
		t.Fatalf("expected identical text to score distance 0, got %d", rows[0].Distance)
	}
	if searches != 1 {
		t.Fatalf("expected 1 catalog search, got %d", searches)
	}

	// Re-running must be idempotent and reuse the cached download rather
	// than searching the catalog again.
	if err := m.AnalyzeJob(ctx, jobID); err != nil {
		t.Fatalf("second AnalyzeJob: %v", err)
	}
	rows, err = index.MatchInfoByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("MatchInfoByVideo: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected re-run to replace rather than accumulate, got %d rows", len(rows))
	}
	if searches != 1 {
		t.Fatalf("expected cached reference subtitle to avoid a second search, got %d searches", searches)
	}
}

func TestAnalyzeJobWithNoSuspectedContentsIsANoop(t *testing.T) {
	ctx := context.Background()
	searches := 0
	server := singleCandidateServer(t, "irrelevant", &searches)
	defer server.Close()

	m, index, _ := newTestMatcher(t, server.URL)

	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	if err := m.AnalyzeJob(ctx, jobID); err != nil {
		t.Fatalf("AnalyzeJob: %v", err)
	}
	if searches != 0 {
		t.Fatalf("expected no catalog calls when no content is suspected, got %d", searches)
	}
}

func TestAnalyzeJobMultipleTvEpisodes(t *testing.T) {
	ctx := context.Background()
	searches := 0
	server := singleCandidateServer(t, "The quick brown fox.", &searches)
	defer server.Close()

	m, index, blobs := newTestMatcher(t, server.URL)

	suspected, err := idx.SuspectedContents{TvEpisodes: []int{101, 102}}.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	jobID, err := index.CreateRipJob(ctx, 1000, "TV Disc", suspected)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	videoID, err := index.InsertVideoFile(ctx, idx.VideoFile{BlobID: "video-blob", RipJob: &jobID})
	if err != nil {
		t.Fatalf("InsertVideoFile: %v", err)
	}
	localBlobID, err := blobs.WriteBlob([]byte("The quick brown fox jumps."))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := index.InsertSubtitleFile(ctx, localBlobID, videoID); err != nil {
		t.Fatalf("InsertSubtitleFile: %v", err)
	}

	if err := m.AnalyzeJob(ctx, jobID); err != nil {
		t.Fatalf("AnalyzeJob: %v", err)
	}

	rows, err := index.MatchInfoByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("MatchInfoByVideo: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one match row per suspected episode, got %d", len(rows))
	}
	if searches != 2 {
		t.Fatalf("expected one catalog search per distinct episode id, got %d", searches)
	}
}
