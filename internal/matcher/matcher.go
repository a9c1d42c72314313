// Package matcher is the matcher (C7): given a finished rip job and its
// suspected catalog contents, it scores how closely each extracted
// subtitle sidecar agrees with the corresponding reference subtitle,
// persisting a MatchInfo row per (VideoFile, SubtitleFile) pair. It never
// decides which row is correct — that is a human-facing decision made by
// calling idx.TagVideoFile once an operator picks a winner.
package matcher

import (
	"context"
	"fmt"
	"unicode/utf8"

	"mediacorral/internal/apperr"
	"mediacorral/internal/blobstore"
	"mediacorral/internal/idx"
	"mediacorral/internal/opensubtitles"
	"mediacorral/internal/pool"
)

const component = "matcher"

// dispatchDepth matches the OCR pipeline's back-pressure bound: this is
// the same CPU-bound pool class, just a different job shape.
const dispatchDepth = 5

// Matcher scores a rip job's extracted subtitles against reference
// subtitles fetched (and cached) through the catalog client.
type Matcher struct {
	index   *idx.Store
	blobs   *blobstore.Store
	catalog *opensubtitles.Client
}

// New builds a Matcher over the given index, blob store, and catalog
// client.
func New(index *idx.Store, blobs *blobstore.Store, catalog *opensubtitles.Client) *Matcher {
	return &Matcher{index: index, blobs: blobs, catalog: catalog}
}

// contentRef is one suspected content ID paired with the VideoType its
// MatchInfo rows (via OstDownload) should be cached under.
type contentRef struct {
	videoType idx.VideoType
	tmdbID    int
}

// pairJob is one (VideoFile, SubtitleFile) comparison queued for the
// worker pool.
type pairJob struct {
	videoFileID   int64
	ostDownloadID int64
	refRawLen     int
	refNorm       string
	localRawLen   int
	localNorm     string
}

type pairResult struct {
	videoFileID   int64
	ostDownloadID int64
	distance      int
	maxDistance   int
}

// AnalyzeJob runs the matcher's three steps against ripJob: clear any
// prior verdicts for its video files, fetch or reuse cached reference
// subtitles for each suspected content ID, and score every extracted
// sidecar against them. It is idempotent: re-running it for the same job
// replaces the previous MatchInfo rows rather than accumulating duplicates.
func (m *Matcher) AnalyzeJob(ctx context.Context, ripJob int64) error {
	job, err := m.index.GetRipJob(ctx, ripJob)
	if err != nil {
		return err
	}
	suspected, err := idx.ParseSuspectedContents(job.SuspectedContents)
	if err != nil {
		return apperr.Wrap(apperr.ErrDecode, component, "AnalyzeJob", fmt.Sprintf("decoding suspected contents for job %d", ripJob), err)
	}
	refs := contentRefs(suspected)
	if len(refs) == 0 {
		return nil
	}

	videoFiles, err := m.index.VideoFilesByRipJob(ctx, ripJob)
	if err != nil {
		return err
	}
	for _, vf := range videoFiles {
		if err := m.index.ClearMatchInfoForVideo(ctx, vf.ID); err != nil {
			return err
		}
	}

	var jobs []pairJob
	for _, ref := range refs {
		refText, ostDownloadID, err := m.reference(ctx, ref)
		if err != nil {
			return err
		}
		refNorm := opensubtitles.NormalizeForComparison(refText)
		refLen := utf8.RuneCountInString(refText)

		for _, vf := range videoFiles {
			subs, err := m.index.SubtitleFilesByVideo(ctx, vf.ID)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				localRaw, err := m.blobs.ReadBlob(sub.BlobID)
				if err != nil {
					return err
				}
				local := string(localRaw)
				jobs = append(jobs, pairJob{
					videoFileID:   vf.ID,
					ostDownloadID: ostDownloadID,
					refRawLen:     refLen,
					refNorm:       refNorm,
					localRawLen:   utf8.RuneCountInString(local),
					localNorm:     opensubtitles.NormalizeForComparison(local),
				})
			}
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	results := pool.Run(ctx, dispatchDepth, jobs, score)
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
		if _, err := m.index.InsertMatchInfo(ctx, idx.MatchInfo{
			VideoFileID:   r.Value.videoFileID,
			OstDownloadID: r.Value.ostDownloadID,
			Distance:      r.Value.distance,
			MaxDistance:   r.Value.maxDistance,
		}); err != nil {
			return err
		}
	}
	return nil
}

func score(_ context.Context, j pairJob) (pairResult, error) {
	return pairResult{
		videoFileID:   j.videoFileID,
		ostDownloadID: j.ostDownloadID,
		distance:      opensubtitles.Levenshtein(j.refNorm, j.localNorm),
		maxDistance:   maxInt(j.refRawLen, j.localRawLen),
	}, nil
}

// reference returns the reference subtitle text for ref, fetching and
// caching it through the catalog client on a cache miss.
func (m *Matcher) reference(ctx context.Context, ref contentRef) (text string, ostDownloadID int64, err error) {
	cached, err := m.index.OstDownloadsByMatch(ctx, ref.videoType, int64(ref.tmdbID))
	if err != nil {
		return "", 0, err
	}
	if len(cached) > 0 {
		raw, err := m.blobs.ReadBlob(cached[0].BlobID)
		if err != nil {
			return "", 0, err
		}
		return string(raw), cached[0].ID, nil
	}

	best, err := m.catalog.FindBest(ctx, ref.tmdbID)
	if err != nil {
		return "", 0, err
	}
	blobID, err := m.blobs.WriteBlob([]byte(best.Text))
	if err != nil {
		return "", 0, err
	}
	id, err := m.index.InsertOstDownload(ctx, idx.OstDownload{
		VideoType: ref.videoType,
		MatchID:   int64(ref.tmdbID),
		Filename:  best.Name,
		BlobID:    blobID,
	})
	if err != nil {
		return "", 0, err
	}
	return best.Text, id, nil
}

func contentRefs(s idx.SuspectedContents) []contentRef {
	if s.Movie != nil {
		return []contentRef{{videoType: idx.VideoTypeMovie, tmdbID: *s.Movie}}
	}
	refs := make([]contentRef, 0, len(s.TvEpisodes))
	for _, id := range s.TvEpisodes {
		refs = append(refs, contentRef{videoType: idx.VideoTypeTvEpisode, tmdbID: id})
	}
	return refs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
