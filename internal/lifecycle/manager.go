// Package lifecycle is the rip-job lifecycle manager (C9): it implements
// drive.Tagger, the hook C2's drive actor calls once a rip has been
// imported into the blob store. For each freshly imported video it runs
// the container analyzer (C3) to recover resolution/length/hash, extracts
// embedded subtitles through the OCR pipeline or SRT passthrough (C4/C5)
// when no sidecar was already staged, and finally hands the job to the
// matcher (C7) so suspected-content candidates get scored.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/blobstore"
	"mediacorral/internal/idx"
	"mediacorral/internal/logging"
	"mediacorral/internal/matcher"
	"mediacorral/internal/mkv"
	"mediacorral/internal/ocr"
)

const component = "lifecycle"

// Matcher is the subset of *matcher.Matcher the manager depends on,
// narrowed for testability.
type Matcher interface {
	AnalyzeJob(ctx context.Context, ripJob int64) error
}

var _ Matcher = (*matcher.Matcher)(nil)

// Manager implements drive.Tagger: it finalizes a rip job's video and
// subtitle rows once the rip's files have landed in the blob store.
type Manager struct {
	index    *idx.Store
	blobs    *blobstore.Store
	matcher  Matcher
	engines  *ocr.EngineCache
	language string
	logger   *slog.Logger

	// analyze defaults to mkv.Analyze; tests override it to avoid building
	// a real Matroska container on disk.
	analyze func(io.ReadSeeker, mkv.Options) (mkv.MediaDetails, error)
}

// New builds a Manager. language selects the OCR engine pool (and is
// also used as the preferred subtitle-track language, matching
// config.Subtitles.OpenSubtitlesLanguages' first entry by convention).
func New(index *idx.Store, blobs *blobstore.Store, m Matcher, engines *ocr.EngineCache, language string, logger *slog.Logger) *Manager {
	return &Manager{index: index, blobs: blobs, matcher: m, engines: engines, language: language, logger: logger, analyze: mkv.Analyze}
}

// Import analyzes every video blob a rip job produced, inserts its
// VideoFile and (if any subtitles were found) SubtitleFile rows, and
// triggers the matcher. Per-video failures are logged and skipped rather
// than aborting the whole job, since one corrupt track should not strand
// every other video the disc produced.
func (m *Manager) Import(ctx context.Context, jobID int64, result blobstore.ImportResult) error {
	stems := make([]string, 0, len(result.VideoBlobIDs))
	for stem := range result.VideoBlobIDs {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		videoBlobID := result.VideoBlobIDs[stem]
		if _, err := m.importVideo(ctx, jobID, videoBlobID, result.SubtitleBlobIDs[stem]); err != nil {
			if m.logger != nil {
				m.logger.Error("failed to finalize ripped video",
					logging.String("rip_job", fmt.Sprintf("%d", jobID)),
					logging.String("blob_id", videoBlobID),
					logging.Error(err),
					logging.String(logging.FieldEventType, "lifecycle_import_video_failed"),
				)
			}
			continue
		}
	}

	if err := m.matcher.AnalyzeJob(ctx, jobID); err != nil {
		return apperr.Wrap(apperr.ErrIO, component, "Import", fmt.Sprintf("analyzing rip job %d", jobID), err)
	}
	return nil
}

// importVideo analyzes one video blob and inserts its VideoFile and
// SubtitleFile rows. sidecarBlobID is the subtitle blob RipDir.Import
// already staged for this video by filename stem, if any; when empty the
// container's own embedded subtitle track (if present) is extracted here
// instead.
func (m *Manager) importVideo(ctx context.Context, jobID int64, videoBlobID, sidecarBlobID string) (int64, error) {
	f, err := os.Open(m.blobs.BlobPath(videoBlobID))
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, component, "importVideo", "opening video blob "+videoBlobID, err)
	}
	defer f.Close()

	details, err := m.analyze(f, mkv.Options{
		PreferredLanguage:  m.language,
		NewSubtitleHandler: m.newSubtitleHandler(ctx),
	})
	if err != nil {
		return 0, err
	}

	video := idx.VideoFile{
		VideoType: idx.VideoTypeUntagged,
		BlobID:    videoBlobID,
		RipJob:    &jobID,
	}
	if details.ResolutionWidth > 0 && details.ResolutionHeight > 0 {
		w, h := int(details.ResolutionWidth), int(details.ResolutionHeight)
		video.ResolutionWidth = &w
		video.ResolutionHeight = &h
	}
	lengthMS := details.Duration.Milliseconds()
	video.LengthMS = &lengthMS
	var zeroHash [16]byte
	if details.VideoHash != zeroHash {
		hash := details.VideoHash
		video.OriginalVideoHash = hash[:]
	}

	videoFileID, err := m.index.InsertVideoFile(ctx, video)
	if err != nil {
		return 0, err
	}

	switch {
	case sidecarBlobID != "":
		if _, err := m.index.InsertSubtitleFile(ctx, sidecarBlobID, videoFileID); err != nil {
			return videoFileID, err
		}
	case details.HasSubtitles && details.Subtitles != "":
		blobID, err := m.blobs.WriteBlob([]byte(details.Subtitles))
		if err != nil {
			return videoFileID, err
		}
		if _, err := m.index.InsertSubtitleFile(ctx, blobID, videoFileID); err != nil {
			return videoFileID, err
		}
	}

	return videoFileID, nil
}

// newSubtitleHandler selects C4's OCR handler for bitmap subtitle codecs
// or C5's passthrough handler for S_SUBRIP, matching the codec the
// analyzer settled on for the container's selected track.
func (m *Manager) newSubtitleHandler(ctx context.Context) func(mkv.SubtitleCodec, mkv.TrackInfo, time.Duration) (mkv.SubtitleHandler, error) {
	return func(codec mkv.SubtitleCodec, track mkv.TrackInfo, containerDuration time.Duration) (mkv.SubtitleHandler, error) {
		switch codec {
		case mkv.SubtitleCodecSubRip:
			return ocr.NewSrtHandler(containerDuration), nil
		case mkv.SubtitleCodecVobSub, mkv.SubtitleCodecPGS:
			return ocr.NewBitmapHandler(ctx, codec, track.CodecPrivate, m.engines, m.language, containerDuration)
		default:
			return nil, nil
		}
	}
}
