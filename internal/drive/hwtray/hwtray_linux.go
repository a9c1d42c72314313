//go:build linux

// Package hwtray is the default Linux TrayController, built on the
// CDROM_DRIVE_STATUS and CDROMEJECT/CDROMCLOSETRAY ioctls.
package hwtray

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"mediacorral/internal/drive"
)

const (
	ioctlCDROMDriveStatus = 0x5326
	ioctlCDROMEject       = 0x5309
	ioctlCDROMCloseTray   = 0x5319
)

// Tray drives one device node's tray via ioctl calls.
type Tray struct {
	Device string
}

// New builds a Tray for the given device path (e.g. "/dev/sr0").
func New(device string) *Tray {
	return &Tray{Device: strings.TrimSpace(device)}
}

func (t *Tray) open() (int, error) {
	if t.Device == "" {
		return -1, fmt.Errorf("empty device path")
	}
	fd, err := syscall.Open(t.Device, syscall.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", t.Device, err)
	}
	return fd, nil
}

// Status queries the drive via CDROM_DRIVE_STATUS.
func (t *Tray) Status(ctx context.Context) (drive.HardwareStatus, error) {
	fd, err := t.open()
	if err != nil {
		return drive.HardwareUnknown, err
	}
	defer syscall.Close(fd) //nolint:errcheck

	r1, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(ioctlCDROMDriveStatus), uintptr(unsafe.Pointer(nil)))
	if errno != 0 {
		return drive.HardwareUnknown, fmt.Errorf("ioctl CDROM_DRIVE_STATUS on %s: %w", t.Device, errno)
	}

	switch r1 {
	case 1:
		return drive.HardwareEmpty, nil
	case 2:
		return drive.HardwareTrayOpen, nil
	case 3:
		return drive.HardwareNotReady, nil
	case 4:
		return drive.HardwareLoaded, nil
	default:
		return drive.HardwareUnknown, nil
	}
}

// Eject opens the tray via CDROMEJECT.
func (t *Tray) Eject(ctx context.Context) error {
	return t.ioctlNoArg(ioctlCDROMEject)
}

// Retract closes the tray via CDROMCLOSETRAY.
func (t *Tray) Retract(ctx context.Context) error {
	return t.ioctlNoArg(ioctlCDROMCloseTray)
}

func (t *Tray) ioctlNoArg(request uintptr) error {
	fd, err := t.open()
	if err != nil {
		return err
	}
	defer syscall.Close(fd) //nolint:errcheck

	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), request, 0)
	if errno != 0 {
		return fmt.Errorf("ioctl %#x on %s: %w", request, t.Device, errno)
	}
	return nil
}
