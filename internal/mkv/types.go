package mkv

import "time"

// SubtitleCodec is the set of subtitle codecs this analyzer knows how to
// select and hand off to the OCR/text pipeline.
type SubtitleCodec int

const (
	SubtitleCodecNone SubtitleCodec = iota
	SubtitleCodecVobSub
	SubtitleCodecSubRip
	SubtitleCodecPGS
)

func subtitleCodecFor(codecID string) SubtitleCodec {
	switch codecID {
	case "S_VOBSUB":
		return SubtitleCodecVobSub
	case "S_SUBRIP":
		return SubtitleCodecSubRip
	case "S_HDMV/PGS":
		return SubtitleCodecPGS
	default:
		return SubtitleCodecNone
	}
}

// TrackInfo is the per-track metadata the analyzer captures while
// enumerating Tracks, independent of whether the track is selected.
type TrackInfo struct {
	Number       uint64
	Type         TrackType
	CodecID      string
	CodecPrivate []byte
	Language     string
	LanguageIETF string
	FlagDefault  bool

	// Video-only.
	DisplayWidth  uint64
	DisplayHeight uint64
	StereoMode    uint64

	// Audio-only.
	Channels uint64
}

// language prefers the IETF tag when present, matching the original's
// "language_ietf().or(language())" fallback.
func (t TrackInfo) language() string {
	if t.LanguageIETF != "" {
		return t.LanguageIETF
	}
	return t.Language
}

// ChapterInfo is one chapter boundary, end-time resolved per the
// atom-end / next-atom-start / container-duration fallback chain.
type ChapterInfo struct {
	Number int
	UID    uint64
	Start  time.Duration
	End    time.Duration
	Name   string
}

// SubtitleFrame is one subtitle block handed to the configured
// SubtitleHandler, with container timestamps already rescaled to
// nanoseconds.
type SubtitleFrame struct {
	Timestamp time.Duration
	Duration  time.Duration
	Data      []byte
}

// SubtitleHandler consumes subtitle frames from the selected track and
// produces the final encoded text once the stream is exhausted. C4's OCR
// pipeline and C5's SRT codec implement this for VobSub/PGS and
// S_SUBRIP tracks respectively.
type SubtitleHandler interface {
	Handle(codec SubtitleCodec, frame SubtitleFrame) error
	Result() (string, error)
}

// MediaDetails is the analyzer's output for one container.
type MediaDetails struct {
	ResolutionWidth  uint64
	ResolutionHeight uint64
	Duration         time.Duration
	VideoHash        [16]byte
	Subtitles        string
	HasSubtitles     bool
	Tracks           []TrackInfo
	Chapters         []ChapterInfo
}

// Options configures one Analyze call.
type Options struct {
	// PinnedSubtitleTrack, if non-zero, forces subtitle-track selection to
	// this track number (still validated against the supported codec set).
	PinnedSubtitleTrack uint64
	// PreferredLanguage filters subtitle-track selection to tracks whose
	// Language/LanguageIETF tag matches, per language.Matches. Empty means
	// no filtering (any subtitle track is a candidate). Ignored when
	// PinnedSubtitleTrack is set.
	PreferredLanguage string
	// RequireVideoTrack fails analysis if no video track is present.
	RequireVideoTrack bool
	// NewSubtitleHandler, if set, is called once track selection has
	// settled on a codec and TrackInfo (carrying CodecPrivate, needed by
	// VobSub's palette), and its result receives the track's frames.
	// containerDuration is the container's total duration, parsed from
	// Info before track selection; callers building C4/C5's handlers use
	// it as the fallback end time for a final cue with no explicit
	// duration. A nil return value or a nil NewSubtitleHandler disables
	// subtitle capture.
	NewSubtitleHandler func(codec SubtitleCodec, track TrackInfo, containerDuration time.Duration) (SubtitleHandler, error)
	// Progress is called whenever round(timestamp/duration*100) changes.
	Progress func(percent int)
}
