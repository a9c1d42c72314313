// Package mkv is the container analyzer (C3): a hand-written minimal
// Matroska demuxer that enumerates tracks, extracts chapters, hashes the
// video track, and streams the selected subtitle track's frames to a
// caller-supplied handler, all in a single pass over the file.
package mkv

import (
	"crypto/md5"
	"errors"
	"io"
	"time"

	"mediacorral/internal/language"
	"mediacorral/internal/mkv/ebml"
)

// Analyze demuxes one Matroska container and returns its media details.
func Analyze(r io.ReadSeeker, opts Options) (MediaDetails, error) {
	er := ebml.New(r)

	hdr, err := er.ReadHeader()
	if err != nil {
		return MediaDetails{}, wrapDecode("Analyze", "reading EBML header", err)
	}
	if hdr.ID != idEBMLHeader {
		return MediaDetails{}, wrapDecode("Analyze", "file does not start with an EBML header", nil)
	}
	if err := er.Skip(hdr); err != nil {
		return MediaDetails{}, wrapDecode("Analyze", "skipping EBML header", err)
	}

	seg, err := er.ReadHeader()
	if err != nil {
		return MediaDetails{}, wrapDecode("Analyze", "reading Segment header", err)
	}
	if seg.ID != idSegment {
		return MediaDetails{}, wrapDecode("Analyze", "missing top-level Segment element", nil)
	}
	segEnd := seg.End // 0 (falsy) is fine here: an unknown-size segment is assumed to run to EOF.

	var (
		timestampScale uint64 = 1_000_000 // Matroska's documented default.
		durationTicks  float64
		haveDuration   bool
		tracks         []TrackInfo
		videoTrack     *TrackInfo
		chapters       []ChapterInfo
	)

	// First pass: collect Info and Tracks so the frame loop below knows
	// which track to hash and which (if any) to hand to the subtitle
	// handler. Well-formed Matroska files always place these before the
	// first Cluster.
	for {
		pos, err := er.Pos()
		if err != nil {
			return MediaDetails{}, wrapDecode("Analyze", "reading stream position", err)
		}
		if !seg.Unknown && pos >= segEnd {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return MediaDetails{}, wrapDecode("Analyze", "reading segment child", err)
		}

		switch child.ID {
		case idInfo:
			timestampScale, durationTicks, haveDuration, err = parseInfo(er, child)
			if err != nil {
				return MediaDetails{}, err
			}
		case idTracks:
			tracks, err = parseTracks(er, child)
			if err != nil {
				return MediaDetails{}, err
			}
		case idCluster:
			// Clusters come after Info/Tracks/Chapters in every file this
			// analyzer targets (MakeMKV-produced, finalized containers);
			// stop the metadata pass here.
			goto metadataDone
		default:
			if err := er.Skip(child); err != nil {
				return MediaDetails{}, wrapDecode("Analyze", "skipping segment child", err)
			}
		}
	}
metadataDone:
	// Rewind to the start of the Segment payload so the second pass sees
	// Chapters and every Cluster.
	if err := er.Seek(seg.Start); err != nil {
		return MediaDetails{}, wrapDecode("Analyze", "rewinding to segment start", err)
	}

	if !haveDuration {
		return MediaDetails{}, wrapPrecondition("Analyze", "container is missing Info/Duration")
	}
	durationNs := time.Duration(durationTicks*float64(timestampScale)) * time.Nanosecond

	for i := range tracks {
		if tracks[i].Type == TrackTypeVideo && videoTrack == nil {
			videoTrack = &tracks[i]
		}
	}
	if opts.RequireVideoTrack && videoTrack == nil {
		return MediaDetails{}, wrapPrecondition("Analyze", "container is missing a video track")
	}

	subtitleTrack, subtitleCodec, err := selectSubtitleTrack(tracks, opts.PinnedSubtitleTrack, opts.PreferredLanguage)
	if err != nil {
		return MediaDetails{}, err
	}
	var subtitleHandler SubtitleHandler
	if subtitleTrack != nil && opts.NewSubtitleHandler != nil {
		subtitleHandler, err = opts.NewSubtitleHandler(subtitleCodec, *subtitleTrack, durationNs)
		if err != nil {
			return MediaDetails{}, err
		}
	}

	// Second pass over Info/Tracks/Chapters/Clusters now that selection
	// decisions are made; Chapters needs durationNs for its end-time
	// fallback, so it's parsed here rather than in the first pass.
	videoHasher := md5.New()
	var lastPercent = -1
	for {
		pos, err := er.Pos()
		if err != nil {
			return MediaDetails{}, err
		}
		if !seg.Unknown && pos >= segEnd {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return MediaDetails{}, wrapDecode("Analyze", "reading segment child", err)
		}

		switch child.ID {
		case idChapters:
			chapters, err = parseChapters(er, child, durationNs)
			if err != nil {
				return MediaDetails{}, err
			}
		case idCluster:
			if err := processCluster(er, child, processClusterArgs{
				timestampScale: timestampScale,
				videoTrack:     videoTrack,
				subtitleTrack:  subtitleTrack,
				subtitleCodec:  subtitleCodec,
				videoHasher:    videoHasher,
				subtitles:      subtitleHandler,
				durationNs:     durationNs,
				progress:       opts.Progress,
				lastPercent:    &lastPercent,
			}); err != nil {
				return MediaDetails{}, err
			}
		default:
			if err := er.Skip(child); err != nil {
				return MediaDetails{}, wrapDecode("Analyze", "skipping segment child", err)
			}
		}
	}

	details := MediaDetails{
		Duration: durationNs,
		Tracks:   tracks,
		Chapters: chapters,
	}
	copy(details.VideoHash[:], videoHasher.Sum(nil))
	if videoTrack != nil {
		details.ResolutionWidth = videoTrack.DisplayWidth
		details.ResolutionHeight = videoTrack.DisplayHeight
	}
	if subtitleTrack != nil && subtitleHandler != nil {
		text, err := subtitleHandler.Result()
		if err != nil {
			return MediaDetails{}, err
		}
		details.Subtitles = text
		details.HasSubtitles = true
	}
	return details, nil
}

func selectSubtitleTrack(tracks []TrackInfo, pinned uint64, preferredLanguage string) (*TrackInfo, SubtitleCodec, error) {
	if pinned != 0 {
		for i := range tracks {
			if tracks[i].Number != pinned {
				continue
			}
			codec := subtitleCodecFor(tracks[i].CodecID)
			if codec == SubtitleCodecNone {
				return nil, SubtitleCodecNone, wrapPrecondition("selectSubtitleTrack", "pinned subtitle track has an unsupported codec")
			}
			return &tracks[i], codec, nil
		}
		return nil, SubtitleCodecNone, wrapPrecondition("selectSubtitleTrack", "pinned subtitle track not found")
	}

	var candidates []int
	for i := range tracks {
		t := &tracks[i]
		if t.Type != TrackTypeSubtitle {
			continue
		}
		if subtitleCodecFor(t.CodecID) == SubtitleCodecNone {
			continue
		}
		if !language.Matches(t.language(), preferredLanguage) {
			continue
		}
		candidates = append(candidates, i)
	}

	switch len(candidates) {
	case 0:
		return nil, SubtitleCodecNone, nil
	case 1:
		t := &tracks[candidates[0]]
		return t, subtitleCodecFor(t.CodecID), nil
	default:
		for _, idx := range candidates {
			if tracks[idx].FlagDefault {
				t := &tracks[idx]
				return t, subtitleCodecFor(t.CodecID), nil
			}
		}
		t := &tracks[candidates[0]]
		return t, subtitleCodecFor(t.CodecID), nil
	}
}
