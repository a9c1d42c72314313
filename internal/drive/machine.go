package drive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/blobstore"
	"mediacorral/internal/idx"
	"mediacorral/internal/logging"
	"mediacorral/internal/ripperbridge"
)

// Ripper abstracts C1's MakeMKV client so the actor can be driven by a
// fake in tests.
type Ripper interface {
	Rip(ctx context.Context, device, destDir string, titleIDs []int,
		onProgress func(ripperbridge.Progress), onInfo func(ripperbridge.DiscInfo)) (ripperbridge.RipResult, error)
}

// Tagger resolves a rip's imported video blobs to catalog matches. It is
// supplied by the lifecycle manager (C9); the drive actor only needs to
// hand off imported blob IDs once a rip finishes cleanly.
type Tagger interface {
	Import(ctx context.Context, jobID int64, result blobstore.ImportResult) error
}

// Machine is a single drive's actor: one goroutine polling hardware status
// and draining a single-capacity command inbox.
type Machine struct {
	DriveID string
	Device  string

	tray   TrayController
	ripper Ripper
	blobs  *blobstore.Store
	index  *idx.Store
	tagger Tagger
	logger *slog.Logger

	// onDiscInserted is called whenever the hardware transitions into
	// Loaded from a non-Loaded state. Its return value decides whether the
	// actor immediately issues an autoripping Rip command.
	onDiscInserted func(ctx context.Context, driveID string) (autorip bool)

	inbox chan Command

	mu    sync.Mutex
	state DriveState
	subs  []chan DriveState
}

// NewMachine builds a drive actor. onDiscInserted may be nil to disable
// autorip entirely.
func NewMachine(driveID, device string, tray TrayController, ripper Ripper, blobs *blobstore.Store, index *idx.Store, tagger Tagger, logger *slog.Logger, onDiscInserted func(ctx context.Context, driveID string) (autorip bool)) *Machine {
	return &Machine{
		DriveID:        driveID,
		Device:         device,
		tray:           tray,
		ripper:         ripper,
		blobs:          blobs,
		index:          index,
		tagger:         tagger,
		logger:         logger,
		onDiscInserted: onDiscInserted,
		inbox:          make(chan Command, 1),
		state:          DriveState{DriveID: driveID, Status: HardwareUnknown},
	}
}

// Enqueue attempts to hand a command to the actor's inbox. It reports
// false if a command is already pending, per the "capacity 1, drop excess"
// contract.
func (m *Machine) Enqueue(cmd Command) bool {
	select {
	case m.inbox <- cmd:
		return true
	default:
		return false
	}
}

// Snapshot returns the current drive state.
func (m *Machine) Snapshot() DriveState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Watch registers a new observer channel. The returned cancel func
// unregisters it; callers must call it to avoid leaking the subscription.
func (m *Machine) Watch() (<-chan DriveState, func()) {
	ch := make(chan DriveState, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Run drives the actor until ctx is cancelled or the inbox is closed.
// Closing the inbox lets an in-flight rip finish; it is never killed
// mid-stream, since a half-written container is worse than a late exit.
func (m *Machine) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		case cmd, ok := <-m.inbox:
			if !ok {
				return
			}
			m.handle(ctx, cmd)
		}
	}
}

func (m *Machine) poll(ctx context.Context) {
	status, err := m.tray.Status(ctx)
	now := time.Now()
	if err != nil {
		m.mu.Lock()
		m.state.LastPollAt = now
		m.mu.Unlock()
		if m.logger != nil {
			m.logger.Warn("drive poll failed",
				logging.String("drive_id", m.DriveID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "drive_poll_failed"),
			)
		}
		return
	}

	m.mu.Lock()
	changed := status != m.state.Status
	m.state.LastPollAt = now
	prev := m.state.Status
	if changed {
		m.state.Status = status
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	m.broadcast()

	if status == HardwareLoaded && prev != HardwareLoaded && m.onDiscInserted != nil {
		if m.onDiscInserted(ctx, m.DriveID) {
			m.Enqueue(Command{Kind: CmdRip, Rip: RipRequest{Autoeject: true}})
		}
	}
}

func (m *Machine) handle(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CmdRip:
		m.handleRip(ctx, cmd.Rip)
	case CmdEject:
		if err := m.tray.Eject(ctx); err != nil {
			m.setError(err)
		}
	case CmdRetract:
		if err := m.tray.Retract(ctx); err != nil {
			m.setError(err)
		}
	}
}

func (m *Machine) handleRip(ctx context.Context, req RipRequest) {
	m.mu.Lock()
	ready := m.state.Status == HardwareLoaded && m.state.ActiveCommand.Kind != ActiveRipping
	m.mu.Unlock()
	if !ready {
		m.setError(apperr.Wrap(apperr.ErrPrecondition, "drive", "handleRip", "drive not loaded or rip already in progress", nil))
		return
	}

	rip, err := blobstore.NewRipDir(m.blobs)
	if err != nil {
		m.setError(err)
		return
	}

	jobID, err := m.index.CreateRipJob(ctx, time.Now().Unix(), req.DiscName, req.SuspectedContents)
	if err != nil {
		_ = rip.Discard()
		m.setError(err)
		return
	}

	m.setRipping(RippingProgress{JobID: jobID})

	onProgress := func(p ripperbridge.Progress) {
		m.updateRipping(func(rp *RippingProgress) {
			rp.CurrentValue = int(p.Percent)
			rp.MaxValue = 100
		})
	}
	onInfo := func(info ripperbridge.DiscInfo) {
		m.updateRipping(func(rp *RippingProgress) {
			rp.Logs = append(rp.Logs, info.Value)
		})
	}

	_, ripErr := m.ripper.Rip(ctx, m.Device, rip.Path(), nil, onProgress, onInfo)
	if ripErr != nil {
		_ = rip.Discard()
		_ = m.index.MarkRipFinished(ctx, jobID)
		m.setError(ripErr)
		return
	}
	if err := m.index.MarkRipFinished(ctx, jobID); err != nil {
		_ = rip.Discard()
		m.setError(err)
		return
	}

	result, err := rip.Import(m.blobs)
	if err != nil {
		m.setError(err)
		return
	}
	if m.tagger != nil {
		if err := m.tagger.Import(ctx, jobID, result); err != nil {
			m.setError(err)
			return
		}
	}
	if err := m.index.MarkImported(ctx, jobID); err != nil {
		m.setError(err)
		return
	}

	m.setIdle()

	if req.Autoeject {
		if err := m.tray.Eject(ctx); err != nil {
			m.setError(err)
		}
	}
}

func (m *Machine) setRipping(p RippingProgress) {
	m.mu.Lock()
	m.state.ActiveCommand = ActiveCommand{Kind: ActiveRipping, Ripping: p}
	m.mu.Unlock()
	m.broadcast()
}

func (m *Machine) updateRipping(fn func(*RippingProgress)) {
	m.mu.Lock()
	fn(&m.state.ActiveCommand.Ripping)
	m.mu.Unlock()
	m.broadcast()
}

func (m *Machine) setError(err error) {
	m.mu.Lock()
	m.state.ActiveCommand = ActiveCommand{Kind: ActiveError, ErrorMessage: err.Error()}
	m.mu.Unlock()
	if m.logger != nil {
		m.logger.Error("drive command failed",
			logging.String("drive_id", m.DriveID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "drive_command_failed"),
		)
	}
	m.broadcast()
}

func (m *Machine) setIdle() {
	m.mu.Lock()
	m.state.ActiveCommand = ActiveCommand{Kind: ActiveNone}
	m.mu.Unlock()
	m.broadcast()
}

func (m *Machine) broadcast() {
	snap := m.Snapshot()
	m.mu.Lock()
	subs := append([]chan DriveState(nil), m.subs...)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; drop rather than block the actor. The next
			// broadcast carries the latest state anyway.
		}
	}
}
