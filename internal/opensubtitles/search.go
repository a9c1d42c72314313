package opensubtitles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"mediacorral/internal/apperr"
	"mediacorral/internal/language"
)

// Uploader is the uploader metadata OpenSubtitles attaches to each
// candidate, used for rank-based tiebreaking.
type Uploader struct {
	Name string
	Rank string
}

// Candidate is one subtitle file returned by Search.
type Candidate struct {
	Name             string
	FileID           int64
	Language         string
	DownloadCount    int
	NewDownloadCount int
	Uploader         Uploader
}

// Search queries the catalog for candidates matching tmdbID in the
// client's configured language, sorted per the uploader-rank /
// download-count order described in rankCandidates.
func (c *Client) Search(ctx context.Context, tmdbID int) ([]Candidate, error) {
	resp, err := c.authenticated(ctx, func() (*http.Request, error) {
		endpoint := c.baseURL.JoinPath("subtitles")
		q := url.Values{}
		q.Set("tmdb_id", strconv.Itoa(tmdbID))
		endpoint.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, authFailure("Search", resp)
	}

	var payload searchResults
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.ErrDecode, component, "Search", "decoding search response", err)
	}

	var candidates []Candidate
	for _, entry := range payload.Data {
		if !language.Matches(entry.Attributes.Language, c.language) {
			continue
		}
		for _, f := range entry.Attributes.Files {
			candidates = append(candidates, Candidate{
				Name:             f.FileName,
				FileID:           f.FileID,
				Language:         entry.Attributes.Language,
				DownloadCount:    entry.Attributes.DownloadCount,
				NewDownloadCount: entry.Attributes.NewDownloadCount,
				Uploader:         Uploader{Name: entry.Attributes.Uploader.Name, Rank: entry.Attributes.Uploader.Rank},
			})
		}
	}

	rankCandidates(candidates)
	return candidates, nil
}

// rankCandidates sorts in place by: Admin Warning uploads pushed to the
// bottom; recent download count descending; lifetime download count
// descending; uploader rank numeric priority.
func rankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aWarn := a.Uploader.Rank == "Admin Warning"
		bWarn := b.Uploader.Rank == "Admin Warning"
		if aWarn != bWarn {
			return bWarn // a sorts first (true) when b is the warned one
		}
		if a.NewDownloadCount != b.NewDownloadCount {
			return a.NewDownloadCount > b.NewDownloadCount
		}
		if a.DownloadCount != b.DownloadCount {
			return a.DownloadCount > b.DownloadCount
		}
		return numericUploaderRank(a.Uploader.Rank) < numericUploaderRank(b.Uploader.Rank)
	})
}

// numericUploaderRank converts an uploader rank label to its sort priority,
// matching the original's administrator-first, anonymous-and-warned-last
// ordering.
func numericUploaderRank(rank string) int {
	switch rank {
	case "Administrator":
		return 0
	case "Application Developers":
		return 10
	case "Gold member":
		return 20
	case "Bronze Member":
		return 30
	case "anonymous":
		return 100
	case "Admin Warning":
		return 110
	default:
		return 90
	}
}

type searchResults struct {
	Data []struct {
		Attributes struct {
			Language         string `json:"language"`
			DownloadCount    int    `json:"download_count"`
			NewDownloadCount int    `json:"new_download_count"`
			Uploader         struct {
				Name string `json:"name"`
				Rank string `json:"rank"`
			} `json:"uploader"`
			Files []struct {
				FileID   int64  `json:"file_id"`
				FileName string `json:"file_name"`
			} `json:"files"`
		} `json:"attributes"`
	} `json:"data"`
}
