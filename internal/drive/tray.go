package drive

import "context"

// TrayController abstracts the hardware tray operations a drive actor
// needs. The ioctl-backed implementation lives in internal/drive/hwtray;
// the actor itself never imports syscall.
type TrayController interface {
	Status(ctx context.Context) (HardwareStatus, error)
	Eject(ctx context.Context) error
	Retract(ctx context.Context) error
}
