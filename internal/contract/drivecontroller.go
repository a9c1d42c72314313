package contract

import (
	"context"

	"mediacorral/internal/drive"
)

// DriveController is the surface a Drive Controller host exposes to the
// Coordinator: drive enumeration, tray control, and rip dispatch. A single
// host may own more than one drive, distinguished by driveID.
type DriveController interface {
	GetDriveCount(ctx context.Context) (int, error)
	GetDriveMeta(ctx context.Context, driveID string) (DriveMeta, error)
	GetDriveState(ctx context.Context, driveID string) (drive.DriveState, error)
	Eject(ctx context.Context, driveID string) error
	Retract(ctx context.Context, driveID string) error

	// RipMedia starts a rip on driveID and returns a channel of progress
	// updates terminated by a RipUpdate with Done set. The channel is
	// closed once the terminal update has been sent.
	RipMedia(ctx context.Context, driveID string, req RipMediaRequest) (<-chan RipUpdate, error)
}

// Coordinator is the callback surface a Drive Controller host uses to push
// unsolicited events to the Coordinator: disc insertion (so the coordinator
// can offer autorip) and rip completion (so C9's finalize/import steps can
// run). This is spec.md §6's "notification service".
type Coordinator interface {
	NotifyDiscInserted(ctx context.Context, driveID string) error
	NotifyRipFinished(ctx context.Context, driveID string, jobID int64) error
}
