package idx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediacorral/internal/apperr"
)

// InsertVideoFile inserts a video file row (video_type defaults to
// Untagged at rip time; tagging happens later via TagVideoFile).
func (s *Store) InsertVideoFile(ctx context.Context, v VideoFile) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO video_files (video_type, match_id, blob_id, resolution_width, resolution_height, length_ms, original_video_hash, rip_job)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int(v.VideoType), nullInt64(v.MatchID), v.BlobID,
		nullInt(v.ResolutionWidth), nullInt(v.ResolutionHeight), nullInt64(v.LengthMS),
		v.OriginalVideoHash, nullInt64(v.RipJob),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertVideoFile", "inserting video file", err)
	}
	return res.LastInsertId()
}

// TagVideoFile assigns a video's type and catalog match ID, the terminal
// step of the rip-job lifecycle once a match has been accepted.
func (s *Store) TagVideoFile(ctx context.Context, id int64, videoType VideoType, matchID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE video_files SET video_type = ?, match_id = ? WHERE id = ?`, int(videoType), matchID, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "TagVideoFile", fmt.Sprintf("video %d", id), err)
	}
	return nil
}

// GetVideoFile loads one video file row by ID.
func (s *Store) GetVideoFile(ctx context.Context, id int64) (VideoFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, video_type, match_id, blob_id, resolution_width, resolution_height, length_ms, original_video_hash, rip_job
		 FROM video_files WHERE id = ?`, id)
	return scanVideoFile(row)
}

// VideoFilesByRipJob lists every video produced by a rip job.
func (s *Store) VideoFilesByRipJob(ctx context.Context, ripJob int64) ([]VideoFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_type, match_id, blob_id, resolution_width, resolution_height, length_ms, original_video_hash, rip_job
		 FROM video_files WHERE rip_job = ?`, ripJob)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "VideoFilesByRipJob", fmt.Sprintf("job %d", ripJob), err)
	}
	defer rows.Close()

	var out []VideoFile
	for rows.Next() {
		v, err := scanVideoFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideoFile(row scanner) (VideoFile, error) {
	var v VideoFile
	var matchID, resW, resH, lengthMS, ripJob sql.NullInt64
	var hash []byte
	if err := row.Scan(&v.ID, &v.VideoType, &matchID, &v.BlobID, &resW, &resH, &lengthMS, &hash, &ripJob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VideoFile{}, apperr.Wrap(apperr.ErrNotFound, "idx", "scanVideoFile", "video file not found", err)
		}
		return VideoFile{}, apperr.Wrap(apperr.ErrIO, "idx", "scanVideoFile", "scanning video file", err)
	}
	v.OriginalVideoHash = hash
	if matchID.Valid {
		id := matchID.Int64
		v.MatchID = &id
	}
	if resW.Valid {
		w := int(resW.Int64)
		v.ResolutionWidth = &w
	}
	if resH.Valid {
		h := int(resH.Int64)
		v.ResolutionHeight = &h
	}
	if lengthMS.Valid {
		l := lengthMS.Int64
		v.LengthMS = &l
	}
	if ripJob.Valid {
		j := ripJob.Int64
		v.RipJob = &j
	}
	return v, nil
}
