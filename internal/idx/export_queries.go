package idx

import (
	"context"
	"database/sql"

	"mediacorral/internal/apperr"
)

// TvExportRow is the denormalized join the export renderer needs to place
// one tagged episode into its show/season path.
type TvExportRow struct {
	ShowTitle    string
	ShowYear     string
	ShowTmdb     int
	SeasonNumber int
	EpisodeTitle string
	EpisodeNum   int
	EpisodeTmdb  int
	BlobID       string
}

const tvExportQuery = `
SELECT s.title, s.original_release_year, COALESCE(s.tmdb_id, 0),
       se.season_number,
       e.title, e.episode_number, COALESCE(e.tmdb_id, 0),
       v.blob_id
FROM video_files v
JOIN tv_episodes e ON e.id = v.match_id
JOIN tv_seasons se ON se.id = e.tv_season_id
JOIN tv_shows s ON s.id = e.tv_show_id
WHERE v.video_type = ?`

// TvExportEntries lists every tagged TV episode video joined against its
// season and show, for a full export rebuild.
func (s *Store) TvExportEntries(ctx context.Context) ([]TvExportRow, error) {
	rows, err := s.db.QueryContext(ctx, tvExportQuery, int(VideoTypeTvEpisode))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "TvExportEntries", "querying tv export rows", err)
	}
	defer rows.Close()
	return scanTvExportRows(rows)
}

// TvExportEntryForVideo loads the same join restricted to one video file,
// for incremental splicing.
func (s *Store) TvExportEntryForVideo(ctx context.Context, videoFileID int64) (TvExportRow, error) {
	rows, err := s.db.QueryContext(ctx, tvExportQuery+" AND v.id = ?", int(VideoTypeTvEpisode), videoFileID)
	if err != nil {
		return TvExportRow{}, apperr.Wrap(apperr.ErrIO, "idx", "TvExportEntryForVideo", "querying tv export row", err)
	}
	defer rows.Close()
	out, err := scanTvExportRows(rows)
	if err != nil {
		return TvExportRow{}, err
	}
	if len(out) == 0 {
		return TvExportRow{}, apperr.Wrap(apperr.ErrNotFound, "idx", "TvExportEntryForVideo", "video is not a tagged tv episode", nil)
	}
	return out[0], nil
}

func scanTvExportRows(rows *sql.Rows) ([]TvExportRow, error) {
	var out []TvExportRow
	for rows.Next() {
		var r TvExportRow
		if err := rows.Scan(&r.ShowTitle, &r.ShowYear, &r.ShowTmdb, &r.SeasonNumber, &r.EpisodeTitle, &r.EpisodeNum, &r.EpisodeTmdb, &r.BlobID); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "scanTvExportRows", "scanning row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MovieExportRow is the denormalized join the export renderer needs to
// place one tagged movie into its library path.
type MovieExportRow struct {
	Title  string
	Year   string
	TmdbID int
	BlobID string
}

const movieExportQuery = `
SELECT m.title, m.release_year, COALESCE(m.tmdb_id, 0), v.blob_id
FROM video_files v
JOIN movies m ON m.id = v.match_id
WHERE v.video_type = ?`

// MovieExportEntries lists every tagged movie video for a full export
// rebuild.
func (s *Store) MovieExportEntries(ctx context.Context) ([]MovieExportRow, error) {
	rows, err := s.db.QueryContext(ctx, movieExportQuery, int(VideoTypeMovie))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "MovieExportEntries", "querying movie export rows", err)
	}
	defer rows.Close()
	return scanMovieExportRows(rows)
}

// MovieExportEntryForVideo loads the same join restricted to one video
// file, for incremental splicing.
func (s *Store) MovieExportEntryForVideo(ctx context.Context, videoFileID int64) (MovieExportRow, error) {
	rows, err := s.db.QueryContext(ctx, movieExportQuery+" AND v.id = ?", int(VideoTypeMovie), videoFileID)
	if err != nil {
		return MovieExportRow{}, apperr.Wrap(apperr.ErrIO, "idx", "MovieExportEntryForVideo", "querying movie export row", err)
	}
	defer rows.Close()
	out, err := scanMovieExportRows(rows)
	if err != nil {
		return MovieExportRow{}, err
	}
	if len(out) == 0 {
		return MovieExportRow{}, apperr.Wrap(apperr.ErrNotFound, "idx", "MovieExportEntryForVideo", "video is not a tagged movie", nil)
	}
	return out[0], nil
}

func scanMovieExportRows(rows *sql.Rows) ([]MovieExportRow, error) {
	var out []MovieExportRow
	for rows.Next() {
		var r MovieExportRow
		if err := rows.Scan(&r.Title, &r.Year, &r.TmdbID, &r.BlobID); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "scanMovieExportRows", "scanning row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
