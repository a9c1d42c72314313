package idx

import "encoding/json"

// SuspectedContents is the tagged guess attached to a rip job at start
// time: either a single movie or a list of TV episodes, each identified by
// TMDB ID. Exactly one of the two fields is populated; RipJob stores the
// JSON-encoded form in its SuspectedContents column.
type SuspectedContents struct {
	Movie      *int  `json:"movie,omitempty"`
	TvEpisodes []int `json:"tv_episodes,omitempty"`
}

// Marshal encodes the tagged guess for storage in RipJob.SuspectedContents.
func (s SuspectedContents) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// ParseSuspectedContents decodes a RipJob's raw SuspectedContents column. An
// empty or nil input (no guess was recorded) decodes to the zero value.
func ParseSuspectedContents(data []byte) (SuspectedContents, error) {
	var s SuspectedContents
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return SuspectedContents{}, err
	}
	return s, nil
}

// VideoType classifies what a VideoFile row represents, matching the data
// model's closed set.
type VideoType int

const (
	VideoTypeUntagged VideoType = iota
	VideoTypeMovie
	VideoTypeSpecialFeature
	VideoTypeTvEpisode
)

// RipJob is a single disc-rip lifecycle record.
type RipJob struct {
	ID                int64
	StartTime         int64
	DiscTitle         string
	SuspectedContents []byte
	RipFinished       bool
	Imported          bool
}

// VideoFile is a ripped (or organically added) video blob and its tagging
// state.
type VideoFile struct {
	ID                int64
	VideoType         VideoType
	MatchID           *int64
	BlobID            string
	ResolutionWidth   *int
	ResolutionHeight  *int
	LengthMS          *int64
	OriginalVideoHash []byte
	RipJob            *int64
}

// SubtitleFile is an extracted subtitle track linked to its source video.
type SubtitleFile struct {
	ID        int64
	BlobID    string
	VideoFile int64
}

// OstDownload is a cached reference-subtitle download from the catalog
// client.
type OstDownload struct {
	ID        int64
	VideoType VideoType
	MatchID   int64
	Filename  string
	OstURL    string
	BlobID    string
}

// MatchInfo records the matcher's edit-distance verdict between a ripped
// video's extracted subtitles and a catalog download.
type MatchInfo struct {
	ID            int64
	VideoFileID   int64
	OstDownloadID int64
	Distance      int
	MaxDistance   int
}

// ImageFile is a generic artwork blob (poster/thumbnail).
type ImageFile struct {
	ID       int64
	BlobID   string
	MimeType string
	Name     string
	RipJob   *int64
}

// ChapterInfo is one chapter boundary extracted from a video's container.
type ChapterInfo struct {
	ID          int64
	VideoFileID int64
	Sequence    int
	Title       string
	StartMS     int64
	EndMS       int64
}

// Movie is a catalog row for a standalone film.
type Movie struct {
	ID          int64
	TmdbID      *int
	PosterBlob  string
	Title       string
	ReleaseYear string
	Description string
}

// TvShow, TvSeason, and TvEpisode mirror the original catalog's TV
// hierarchy.
type TvShow struct {
	ID                  int64
	TmdbID              *int
	PosterBlob          string
	Title               string
	OriginalReleaseYear string
	Description         string
}

type TvSeason struct {
	ID           int64
	TmdbID       *int
	TvShowID     int64
	SeasonNumber int
	PosterBlob   string
	Title        string
	Description  string
}

type TvEpisode struct {
	ID            int64
	TmdbID        *int
	TvShowID      int64
	TvSeasonID    int64
	EpisodeNumber int
	ThumbnailBlob string
	Title         string
	Description   string
}
