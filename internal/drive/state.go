// Package drive implements the per-drive actor: one goroutine per optical
// drive, a single-capacity command inbox, and a broadcast of DriveState for
// observers (CLI status tables, the coordinator, the export/lifecycle glue).
package drive

import "time"

// HardwareStatus is the tray state as reported by the OS tray API.
type HardwareStatus int

const (
	HardwareUnknown HardwareStatus = iota
	HardwareEmpty
	HardwareTrayOpen
	HardwareNotReady
	HardwareLoaded
)

func (s HardwareStatus) String() string {
	switch s {
	case HardwareEmpty:
		return "empty"
	case HardwareTrayOpen:
		return "tray_open"
	case HardwareNotReady:
		return "not_ready"
	case HardwareLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// ActiveCommandKind discriminates DriveState.ActiveCommand's variants.
type ActiveCommandKind int

const (
	ActiveNone ActiveCommandKind = iota
	ActiveError
	ActiveRipping
)

// RippingProgress mirrors C1's progress callbacks for display.
type RippingProgress struct {
	JobID        int64
	CurrentTitle int
	CurrentValue int
	TotalTitle   int
	TotalValue   int
	MaxValue     int
	Logs         []string
}

// ActiveCommand is the drive actor's current command state.
type ActiveCommand struct {
	Kind         ActiveCommandKind
	ErrorMessage string
	Ripping      RippingProgress
}

// DriveState is the value broadcast to observers whenever it changes.
type DriveState struct {
	DriveID       string
	Status        HardwareStatus
	ActiveCommand ActiveCommand
	// LastPollAt records when the hardware was last polled, independent of
	// whether the status changed, so observers can detect a stalled poll
	// loop (the drive actor goroutine wedged or the device vanished).
	LastPollAt time.Time
}
