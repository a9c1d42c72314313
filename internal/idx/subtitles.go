package idx

import (
	"context"
	"fmt"

	"mediacorral/internal/apperr"
)

// InsertSubtitleFile links an extracted subtitle blob to its source video.
func (s *Store) InsertSubtitleFile(ctx context.Context, blobID string, videoFile int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO subtitle_files (blob_id, video_file) VALUES (?, ?)`, blobID, videoFile)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertSubtitleFile", "inserting subtitle file", err)
	}
	return res.LastInsertId()
}

// SubtitleFilesByVideo lists every subtitle extracted from a video.
func (s *Store) SubtitleFilesByVideo(ctx context.Context, videoFile int64) ([]SubtitleFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, blob_id, video_file FROM subtitle_files WHERE video_file = ?`, videoFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "SubtitleFilesByVideo", fmt.Sprintf("video %d", videoFile), err)
	}
	defer rows.Close()

	var out []SubtitleFile
	for rows.Next() {
		var sub SubtitleFile
		if err := rows.Scan(&sub.ID, &sub.BlobID, &sub.VideoFile); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "SubtitleFilesByVideo", "scanning row", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// InsertOstDownload caches a reference-subtitle download from the catalog
// client.
func (s *Store) InsertOstDownload(ctx context.Context, d OstDownload) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ost_downloads (video_type, match_id, filename, ost_url, blob_id) VALUES (?, ?, ?, ?, ?)`,
		int(d.VideoType), d.MatchID, d.Filename, nullString(d.OstURL), d.BlobID,
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertOstDownload", "inserting ost download", err)
	}
	return res.LastInsertId()
}

// OstDownloadsByMatch lists cached downloads for a catalog match ID, used
// as the "cache-then-fetch" read path before hitting the network.
func (s *Store) OstDownloadsByMatch(ctx context.Context, videoType VideoType, matchID int64) ([]OstDownload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_type, match_id, filename, ost_url, blob_id FROM ost_downloads WHERE video_type = ? AND match_id = ?`,
		int(videoType), matchID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "OstDownloadsByMatch", fmt.Sprintf("match %d", matchID), err)
	}
	defer rows.Close()

	var out []OstDownload
	for rows.Next() {
		var d OstDownload
		var ostURL *string
		if err := rows.Scan(&d.ID, &d.VideoType, &d.MatchID, &d.Filename, &ostURL, &d.BlobID); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "OstDownloadsByMatch", "scanning row", err)
		}
		if ostURL != nil {
			d.OstURL = *ostURL
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertMatchInfo persists a matcher verdict.
func (s *Store) InsertMatchInfo(ctx context.Context, m MatchInfo) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO match_info (video_file_id, ost_download_id, distance, max_distance) VALUES (?, ?, ?, ?)`,
		m.VideoFileID, m.OstDownloadID, m.Distance, m.MaxDistance,
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertMatchInfo", "inserting match info", err)
	}
	return res.LastInsertId()
}

// ClearMatchInfoForVideo removes prior match rows for a video, making a
// matcher re-run idempotent.
func (s *Store) ClearMatchInfoForVideo(ctx context.Context, videoFileID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM match_info WHERE video_file_id = ?`, videoFileID)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "ClearMatchInfoForVideo", fmt.Sprintf("video %d", videoFileID), err)
	}
	return nil
}

// MatchInfoByVideo lists match verdicts for a video, ordered by distance
// ascending (best match first).
func (s *Store) MatchInfoByVideo(ctx context.Context, videoFileID int64) ([]MatchInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_file_id, ost_download_id, distance, max_distance FROM match_info WHERE video_file_id = ? ORDER BY distance ASC`,
		videoFileID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "MatchInfoByVideo", fmt.Sprintf("video %d", videoFileID), err)
	}
	defer rows.Close()

	var out []MatchInfo
	for rows.Next() {
		var m MatchInfo
		if err := rows.Scan(&m.ID, &m.VideoFileID, &m.OstDownloadID, &m.Distance, &m.MaxDistance); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "MatchInfoByVideo", "scanning row", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
