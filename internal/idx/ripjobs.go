package idx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediacorral/internal/apperr"
)

// CreateRipJob inserts a new rip job row and returns its ID.
func (s *Store) CreateRipJob(ctx context.Context, startTime int64, discTitle string, suspectedContents []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rip_jobs (start_time, disc_title, suspected_contents) VALUES (?, ?, ?)`,
		startTime, nullString(discTitle), suspectedContents,
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrIO, "idx", "CreateRipJob", "inserting rip job", err)
	}
	return res.LastInsertId()
}

// MarkRipFinished flips a rip job's rip_finished flag.
func (s *Store) MarkRipFinished(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rip_jobs SET rip_finished = 1 WHERE id = ?`, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "MarkRipFinished", fmt.Sprintf("job %d", id), err)
	}
	return nil
}

// MarkImported flips a rip job's imported flag.
func (s *Store) MarkImported(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rip_jobs SET imported = 1 WHERE id = ?`, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "idx", "MarkImported", fmt.Sprintf("job %d", id), err)
	}
	return nil
}

// GetRipJob loads one rip job by ID.
func (s *Store) GetRipJob(ctx context.Context, id int64) (RipJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, start_time, disc_title, suspected_contents, rip_finished, imported FROM rip_jobs WHERE id = ?`, id)
	var job RipJob
	var discTitle sql.NullString
	if err := row.Scan(&job.ID, &job.StartTime, &discTitle, &job.SuspectedContents, &job.RipFinished, &job.Imported); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RipJob{}, apperr.Wrap(apperr.ErrNotFound, "idx", "GetRipJob", fmt.Sprintf("job %d", id), err)
		}
		return RipJob{}, apperr.Wrap(apperr.ErrIO, "idx", "GetRipJob", fmt.Sprintf("job %d", id), err)
	}
	job.DiscTitle = discTitle.String
	return job, nil
}
