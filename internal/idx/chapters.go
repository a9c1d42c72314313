package idx

import (
	"context"
	"fmt"

	"mediacorral/internal/apperr"
)

// InsertChapters replaces the chapter rows for a video file with the
// provided sequence in one transaction.
func (s *Store) InsertChapters(ctx context.Context, videoFileID int64, chapters []ChapterInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "InsertChapters", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapter_info WHERE video_file_id = ?`, videoFileID); err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "InsertChapters", "clearing prior chapters", err)
	}
	for _, c := range chapters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chapter_info (video_file_id, sequence, title, start_ms, end_ms) VALUES (?, ?, ?, ?, ?)`,
			videoFileID, c.Sequence, nullString(c.Title), c.StartMS, c.EndMS,
		); err != nil {
			return apperr.Wrap(apperr.ErrIO, "idx", "InsertChapters", "inserting chapter", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "InsertChapters", "commit", err)
	}
	return nil
}

// ChaptersByVideo lists chapters for a video in sequence order.
func (s *Store) ChaptersByVideo(ctx context.Context, videoFileID int64) ([]ChapterInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_file_id, sequence, title, start_ms, end_ms FROM chapter_info WHERE video_file_id = ? ORDER BY sequence ASC`,
		videoFileID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "idx", "ChaptersByVideo", fmt.Sprintf("video %d", videoFileID), err)
	}
	defer rows.Close()

	var out []ChapterInfo
	for rows.Next() {
		var c ChapterInfo
		var title *string
		if err := rows.Scan(&c.ID, &c.VideoFileID, &c.Sequence, &title, &c.StartMS, &c.EndMS); err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, "idx", "ChaptersByVideo", "scanning row", err)
		}
		if title != nil {
			c.Title = *title
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertImageFile adds a generic artwork blob row.
func (s *Store) InsertImageFile(ctx context.Context, img ImageFile) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO image_files (blob_id, mime_type, name, rip_job) VALUES (?, ?, ?, ?)`,
		img.BlobID, img.MimeType, nullString(img.Name), nullInt64(img.RipJob),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "InsertImageFile", "inserting image file", err)
	}
	return res.LastInsertId()
}

// DeleteImageFile removes an image row by ID, idempotently.
func (s *Store) DeleteImageFile(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM image_files WHERE id = ?`, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "DeleteImageFile", fmt.Sprintf("image %d", id), err)
	}
	return nil
}
