package idx

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRipJobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.CreateRipJob(ctx, 1000, "Test Disc", nil)
	if err != nil {
		t.Fatalf("CreateRipJob: %v", err)
	}
	if err := s.MarkRipFinished(ctx, id); err != nil {
		t.Fatalf("MarkRipFinished: %v", err)
	}
	if err := s.MarkImported(ctx, id); err != nil {
		t.Fatalf("MarkImported: %v", err)
	}
	job, err := s.GetRipJob(ctx, id)
	if err != nil {
		t.Fatalf("GetRipJob: %v", err)
	}
	if !job.RipFinished || !job.Imported {
		t.Errorf("expected finished+imported job, got %+v", job)
	}
	if job.DiscTitle != "Test Disc" {
		t.Errorf("DiscTitle = %q", job.DiscTitle)
	}
}

func TestVideoFileAndMatchInfoRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	jobID, err := s.CreateRipJob(ctx, 1, "Disc", nil)
	if err != nil {
		t.Fatal(err)
	}
	videoID, err := s.InsertVideoFile(ctx, VideoFile{BlobID: "blob-1", RipJob: &jobID})
	if err != nil {
		t.Fatalf("InsertVideoFile: %v", err)
	}

	movieID, err := s.InsertMovie(ctx, Movie{Title: "Example"})
	if err != nil {
		t.Fatalf("InsertMovie: %v", err)
	}
	if err := s.TagVideoFile(ctx, videoID, VideoTypeMovie, movieID); err != nil {
		t.Fatalf("TagVideoFile: %v", err)
	}

	v, err := s.GetVideoFile(ctx, videoID)
	if err != nil {
		t.Fatalf("GetVideoFile: %v", err)
	}
	if v.VideoType != VideoTypeMovie || v.MatchID == nil || *v.MatchID != movieID {
		t.Fatalf("unexpected tagged video file: %+v", v)
	}

	ostID, err := s.InsertOstDownload(ctx, OstDownload{VideoType: VideoTypeMovie, MatchID: movieID, Filename: "sub.srt", BlobID: "blob-2"})
	if err != nil {
		t.Fatalf("InsertOstDownload: %v", err)
	}
	if _, err := s.InsertMatchInfo(ctx, MatchInfo{VideoFileID: videoID, OstDownloadID: ostID, Distance: 3, MaxDistance: 100}); err != nil {
		t.Fatalf("InsertMatchInfo: %v", err)
	}

	matches, err := s.MatchInfoByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("MatchInfoByVideo: %v", err)
	}
	if len(matches) != 1 || matches[0].Distance != 3 {
		t.Fatalf("unexpected matches: %+v", matches)
	}

	if err := s.ClearMatchInfoForVideo(ctx, videoID); err != nil {
		t.Fatalf("ClearMatchInfoForVideo: %v", err)
	}
	matches, err = s.MatchInfoByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("MatchInfoByVideo after clear: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected match_info cleared, got %d rows", len(matches))
	}
}

func TestChaptersByVideoOrdering(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	videoID, err := s.InsertVideoFile(ctx, VideoFile{BlobID: "blob-1"})
	if err != nil {
		t.Fatal(err)
	}
	chapters := []ChapterInfo{
		{Sequence: 2, Title: "Two", StartMS: 1000, EndMS: 2000},
		{Sequence: 1, Title: "One", StartMS: 0, EndMS: 1000},
	}
	if err := s.InsertChapters(ctx, videoID, chapters); err != nil {
		t.Fatalf("InsertChapters: %v", err)
	}
	got, err := s.ChaptersByVideo(ctx, videoID)
	if err != nil {
		t.Fatalf("ChaptersByVideo: %v", err)
	}
	if len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Fatalf("unexpected chapter order: %+v", got)
	}
}
