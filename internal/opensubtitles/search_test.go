package opensubtitles

import "testing"

func TestRankCandidatesOrdersByDownloadsThenUploaderRank(t *testing.T) {
	candidates := []Candidate{
		{Name: "low-rank-high-downloads", NewDownloadCount: 100, DownloadCount: 100, Uploader: Uploader{Rank: "anonymous"}},
		{Name: "admin-warning", NewDownloadCount: 500, DownloadCount: 500, Uploader: Uploader{Rank: "Admin Warning"}},
		{Name: "admin", NewDownloadCount: 100, DownloadCount: 100, Uploader: Uploader{Rank: "Administrator"}},
	}
	rankCandidates(candidates)

	if candidates[len(candidates)-1].Name != "admin-warning" {
		t.Fatalf("Admin Warning candidate was not pushed to the bottom: %+v", candidates)
	}
	if candidates[0].Name != "admin" {
		t.Fatalf("expected the administrator-ranked candidate first on a download-count tie, got %+v", candidates[0])
	}
}

func TestRankCandidatesPrefersRecentDownloadsOverLifetime(t *testing.T) {
	candidates := []Candidate{
		{Name: "old-popular", NewDownloadCount: 1, DownloadCount: 10000},
		{Name: "newly-popular", NewDownloadCount: 50, DownloadCount: 5},
	}
	rankCandidates(candidates)
	if candidates[0].Name != "newly-popular" {
		t.Fatalf("expected recent download count to win ties, got %+v", candidates[0])
	}
}

func TestNumericUploaderRankOrdering(t *testing.T) {
	if numericUploaderRank("Administrator") >= numericUploaderRank("Gold member") {
		t.Fatal("Administrator should outrank Gold member")
	}
	if numericUploaderRank("anonymous") <= numericUploaderRank("Bronze Member") {
		t.Fatal("anonymous should rank below Bronze Member")
	}
	if numericUploaderRank("Admin Warning") <= numericUploaderRank("anonymous") {
		t.Fatal("Admin Warning should rank last")
	}
}
