package drive

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"mediacorral/internal/logging"
)

// DiscMonitor listens for udev netlink events on a single device and
// triggers handler whenever media is inserted, avoiding a pure 1 Hz poll
// as the only detection path.
type DiscMonitor struct {
	device  string
	logger  *slog.Logger
	handler func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewDiscMonitor builds a monitor for the given device node. handler is
// called (off the Start goroutine) whenever a matching insertion event
// arrives.
func NewDiscMonitor(device string, logger *slog.Logger, handler func(device string)) *DiscMonitor {
	return &DiscMonitor{device: strings.TrimSpace(device), logger: logger, handler: handler}
}

// Start connects to the netlink socket and begins listening. A failure to
// connect is non-fatal: disc detection then relies on the actor's 1 Hz
// poll loop alone.
func (d *DiscMonitor) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		if d.logger != nil {
			d.logger.Warn("disc monitor netlink connect failed; falling back to poll-only detection",
				logging.Error(err),
				logging.String(logging.FieldEventType, "disc_monitor_connect_failed"),
			)
		}
		return
	}

	d.conn = conn
	d.quit = make(chan struct{})
	d.running = true
	quit := d.quit
	go d.loop(ctx, quit)
}

// Stop disconnects the monitor.
func (d *DiscMonitor) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	close(d.quit)
	d.quit = nil
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	d.running = false
}

func (d *DiscMonitor) loop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})

	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return
	}
	monitorQuit := conn.Monitor(queue, errs, rules)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			d.handleEvent(uevent)
		case err := <-errs:
			if d.logger != nil {
				d.logger.Warn("disc monitor error", logging.Error(err), logging.String(logging.FieldEventType, "disc_monitor_error"))
			}
		}
	}
}

func (d *DiscMonitor) handleEvent(uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		devpath := uevent.Env["DEVPATH"]
		parts := strings.Split(devpath, "/")
		if len(parts) > 0 && parts[len(parts)-1] != "" {
			devname = "/dev/" + parts[len(parts)-1]
		}
	}
	if devname == "" || devname != d.device {
		return
	}
	if d.handler != nil {
		d.handler(devname)
	}
}
