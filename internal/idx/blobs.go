package idx

import (
	"context"

	"mediacorral/internal/apperr"
	"mediacorral/internal/blobstore"
)

// DeleteBlob cascades deletion of every row that names blobID (a video,
// subtitle, catalog download, or image row — exactly one of these owns
// any given blob) inside one transaction, then unlinks the blob file.
// Rows go first: a crash between the two steps leaves an orphaned file
// rather than a row pointing at nothing.
func (s *Store) DeleteBlob(ctx context.Context, blobs *blobstore.Store, blobID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "DeleteBlob", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM video_files WHERE blob_id = ?`,
		`DELETE FROM subtitle_files WHERE blob_id = ?`,
		`DELETE FROM ost_downloads WHERE blob_id = ?`,
		`DELETE FROM image_files WHERE blob_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, blobID); err != nil {
			return apperr.Wrap(apperr.ErrIO, "idx", "DeleteBlob", "deleting rows referring to blob "+blobID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "DeleteBlob", "commit", err)
	}

	return blobs.Delete(blobID)
}
