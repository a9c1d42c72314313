package lifecycle

import (
	"bytes"
	"context"
	"crypto/md5"
	"io"
	"testing"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/blobstore"
	"mediacorral/internal/idx"
	"mediacorral/internal/mkv"
)

// fakeMatcher records every jobID it is asked to analyze.
type fakeMatcher struct {
	calls []int64
	err   error
}

func (f *fakeMatcher) AnalyzeJob(_ context.Context, ripJob int64) error {
	f.calls = append(f.calls, ripJob)
	return f.err
}

func newTestManager(t *testing.T) (*Manager, *idx.Store, *blobstore.Store, *fakeMatcher) {
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

	fm := &fakeMatcher{}
	m := New(index, blobs, fm, nil, "eng", nil)
	return m, index, blobs, fm
}

func detailsWithHash(content string, withSubtitles bool, subtitleText string) mkv.MediaDetails {
	d := mkv.MediaDetails{
		ResolutionWidth:  1920,
		ResolutionHeight: 1080,
		Duration:         90 * time.Minute,
		VideoHash:        md5.Sum([]byte(content)),
	}
	if withSubtitles {
		d.HasSubtitles = true
		d.Subtitles = subtitleText
	}
	return d
}

func TestImportInsertsVideoAndEmbeddedSubtitle(t *testing.T) {
	ctx := context.Background()
	m, index, blobs, fm := newTestManager(t)

	videoBlobID, err := blobs.WriteBlob([]byte("fake-video-bytes"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	m.analyze = func(r io.ReadSeeker, _ mkv.Options) (mkv.MediaDetails, error) {
		return detailsWithHash("fake-video-bytes", true, "1\n00:00:00,000 --> 00:00:01,000\nHi\n"), nil
	}

	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	result := blobstore.ImportResult{
		VideoBlobIDs:    map[string]string{"disc_t00": videoBlobID},
		SubtitleBlobIDs: map[string]string{},
	}
	if err := m.Import(ctx, jobID, result); err != nil {
		t.Fatalf("Import: %v", err)
	}

	videos, err := index.VideoFilesByRipJob(ctx, jobID)
	if err != nil {
		t.Fatalf("VideoFilesByRipJob: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video file, got %d", len(videos))
	}
	v := videos[0]
	if v.BlobID != videoBlobID {
		t.Fatalf("BlobID = %q, want %q", v.BlobID, videoBlobID)
	}
	if v.ResolutionWidth == nil || *v.ResolutionWidth != 1920 {
		t.Fatalf("ResolutionWidth = %v, want 1920", v.ResolutionWidth)
	}
	if v.LengthMS == nil || *v.LengthMS != (90*time.Minute).Milliseconds() {
		t.Fatalf("LengthMS = %v, want %d", v.LengthMS, (90 * time.Minute).Milliseconds())
	}

	subs, err := index.SubtitleFilesByVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("SubtitleFilesByVideo: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subtitle file, got %d", len(subs))
	}
	text, err := blobs.ReadBlob(subs[0].BlobID)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(text) != "1\n00:00:00,000 --> 00:00:01,000\nHi\n" {
		t.Fatalf("subtitle text = %q", text)
	}

	if len(fm.calls) != 1 || fm.calls[0] != jobID {
		t.Fatalf("expected matcher to be called once with job %d, got %+v", jobID, fm.calls)
	}
}

func TestImportPrefersStagedSidecarOverEmbeddedSubtitles(t *testing.T) {
	ctx := context.Background()
	m, index, blobs, _ := newTestManager(t)

	videoBlobID, err := blobs.WriteBlob([]byte("video"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	sidecarBlobID, err := blobs.WriteBlob([]byte("staged sidecar text"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	m.analyze = func(r io.ReadSeeker, _ mkv.Options) (mkv.MediaDetails, error) {
		return detailsWithHash("video", true, "embedded text that should be ignored"), nil
	}

	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	result := blobstore.ImportResult{
		VideoBlobIDs:    map[string]string{"disc_t00": videoBlobID},
		SubtitleBlobIDs: map[string]string{"disc_t00": sidecarBlobID},
	}
	if err := m.Import(ctx, jobID, result); err != nil {
		t.Fatalf("Import: %v", err)
	}

	videos, err := index.VideoFilesByRipJob(ctx, jobID)
	if err != nil {
		t.Fatalf("VideoFilesByRipJob: %v", err)
	}
	subs, err := index.SubtitleFilesByVideo(ctx, videos[0].ID)
	if err != nil {
		t.Fatalf("SubtitleFilesByVideo: %v", err)
	}
	if len(subs) != 1 || subs[0].BlobID != sidecarBlobID {
		t.Fatalf("expected the staged sidecar blob to be reused, got %+v", subs)
	}
}

func TestImportLogsAndContinuesOnPerVideoAnalyzeFailure(t *testing.T) {
	ctx := context.Background()
	m, index, blobs, fm := newTestManager(t)

	goodBlobID, err := blobs.WriteBlob([]byte("good"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	badBlobID, err := blobs.WriteBlob([]byte("bad"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	m.analyze = func(r io.ReadSeeker, _ mkv.Options) (mkv.MediaDetails, error) {
		data, _ := io.ReadAll(r)
		if bytes.Equal(data, []byte("bad")) {
			return mkv.MediaDetails{}, apperr.Wrap(apperr.ErrDecode, "mkv", "Analyze", "corrupt container", nil)
		}
		return detailsWithHash("good", false, ""), nil
	}

	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	result := blobstore.ImportResult{
		VideoBlobIDs:    map[string]string{"a_good": goodBlobID, "b_bad": badBlobID},
		SubtitleBlobIDs: map[string]string{},
	}
	if err := m.Import(ctx, jobID, result); err != nil {
		t.Fatalf("Import: %v", err)
	}

	videos, err := index.VideoFilesByRipJob(ctx, jobID)
	if err != nil {
		t.Fatalf("VideoFilesByRipJob: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected the failing video to be skipped, got %d rows", len(videos))
	}
	if videos[0].BlobID != goodBlobID {
		t.Fatalf("BlobID = %q, want %q", videos[0].BlobID, goodBlobID)
	}
	if len(fm.calls) != 1 {
		t.Fatalf("expected matcher to still run despite the per-video failure, got %+v", fm.calls)
	}
}

func TestImportPropagatesMatcherError(t *testing.T) {
	ctx := context.Background()
	m, index, _, fm := newTestManager(t)
	fm.err = apperr.Wrap(apperr.ErrIO, "matcher", "AnalyzeJob", "boom", nil)

	jobID, err := index.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}

	err = m.Import(ctx, jobID, blobstore.ImportResult{VideoBlobIDs: map[string]string{}, SubtitleBlobIDs: map[string]string{}})
	if err == nil {
		t.Fatal("expected Import to propagate the matcher error")
	}
}
