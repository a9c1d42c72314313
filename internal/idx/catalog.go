package idx

import (
	"context"

	"mediacorral/internal/apperr"
)

// InsertMovie adds a standalone-film catalog row, returning its ID. A
// VideoFile's match_id points here when video_type is Movie.
func (s *Store) InsertMovie(ctx context.Context, m Movie) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO movies (tmdb_id, poster_blob, title, release_year, description) VALUES (?, ?, ?, ?, ?)`,
		nullInt(m.TmdbID), nullString(m.PosterBlob), m.Title, nullString(m.ReleaseYear), nullString(m.Description),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertMovie", "inserting movie", err)
	}
	return res.LastInsertId()
}

// InsertTvShow, InsertTvSeason, and InsertTvEpisode build up the TV
// catalog hierarchy a VideoFile's match_id can point into when video_type
// is TvEpisode.
func (s *Store) InsertTvShow(ctx context.Context, show TvShow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tv_shows (tmdb_id, poster_blob, title, original_release_year, description) VALUES (?, ?, ?, ?, ?)`,
		nullInt(show.TmdbID), nullString(show.PosterBlob), show.Title, nullString(show.OriginalReleaseYear), nullString(show.Description),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertTvShow", "inserting tv show", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertTvSeason(ctx context.Context, season TvSeason) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tv_seasons (tmdb_id, tv_show_id, season_number, poster_blob, title, description) VALUES (?, ?, ?, ?, ?, ?)`,
		nullInt(season.TmdbID), season.TvShowID, season.SeasonNumber, nullString(season.PosterBlob), season.Title, nullString(season.Description),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertTvSeason", "inserting tv season", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertTvEpisode(ctx context.Context, ep TvEpisode) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tv_episodes (tmdb_id, tv_show_id, tv_season_id, episode_number, thumbnail_blob, title, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullInt(ep.TmdbID), ep.TvShowID, ep.TvSeasonID, ep.EpisodeNumber, nullString(ep.ThumbnailBlob), ep.Title, nullString(ep.Description),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertTvEpisode", "inserting tv episode", err)
	}
	return res.LastInsertId()
}

// GetMovie loads a movie catalog row by ID.
func (s *Store) GetMovie(ctx context.Context, id int64) (Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tmdb_id, poster_blob, title, release_year, description FROM movies WHERE id = ?`, id)
	var m Movie
	var tmdb *int
	var poster, year, desc *string
	if err := row.Scan(&m.ID, &tmdb, &poster, &m.Title, &year, &desc); err != nil {
		return Movie{}, apperr.Wrap(apperr.ErrNotFound, "idx", "GetMovie", "movie not found", err)
	}
	m.TmdbID = tmdb
	if poster != nil {
		m.PosterBlob = *poster
	}
	if year != nil {
		m.ReleaseYear = *year
	}
	if desc != nil {
		m.Description = *desc
	}
	return m, nil
}

// GetTvEpisode loads a TV episode catalog row by ID.
func (s *Store) GetTvEpisode(ctx context.Context, id int64) (TvEpisode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tmdb_id, tv_show_id, tv_season_id, episode_number, thumbnail_blob, title, description FROM tv_episodes WHERE id = ?`, id)
	var ep TvEpisode
	var tmdb *int
	var thumb, desc *string
	if err := row.Scan(&ep.ID, &tmdb, &ep.TvShowID, &ep.TvSeasonID, &ep.EpisodeNumber, &thumb, &ep.Title, &desc); err != nil {
		return TvEpisode{}, apperr.Wrap(apperr.ErrNotFound, "idx", "GetTvEpisode", "tv episode not found", err)
	}
	ep.TmdbID = tmdb
	if thumb != nil {
		ep.ThumbnailBlob = *thumb
	}
	if desc != nil {
		ep.Description = *desc
	}
	return ep, nil
}

// GetTvShow loads a TV show catalog row by ID (used by the export renderer
// to build the show-level path component for an episode).
func (s *Store) GetTvShow(ctx context.Context, id int64) (TvShow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tmdb_id, poster_blob, title, original_release_year, description FROM tv_shows WHERE id = ?`, id)
	var show TvShow
	var tmdb *int
	var poster, year, desc *string
	if err := row.Scan(&show.ID, &tmdb, &poster, &show.Title, &year, &desc); err != nil {
		return TvShow{}, apperr.Wrap(apperr.ErrNotFound, "idx", "GetTvShow", "tv show not found", err)
	}
	show.TmdbID = tmdb
	if poster != nil {
		show.PosterBlob = *poster
	}
	if year != nil {
		show.OriginalReleaseYear = *year
	}
	if desc != nil {
		show.Description = *desc
	}
	return show, nil
}

// GetTvSeason loads a TV season catalog row by ID.
func (s *Store) GetTvSeason(ctx context.Context, id int64) (TvSeason, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tmdb_id, tv_show_id, season_number, poster_blob, title, description FROM tv_seasons WHERE id = ?`, id)
	var season TvSeason
	var tmdb *int
	var poster, desc *string
	if err := row.Scan(&season.ID, &tmdb, &season.TvShowID, &season.SeasonNumber, &poster, &season.Title, &desc); err != nil {
		return TvSeason{}, apperr.Wrap(apperr.ErrNotFound, "idx", "GetTvSeason", "tv season not found", err)
	}
	season.TmdbID = tmdb
	if poster != nil {
		season.PosterBlob = *poster
	}
	if desc != nil {
		season.Description = *desc
	}
	return season, nil
}
