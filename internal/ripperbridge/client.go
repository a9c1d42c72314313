package ripperbridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"mediacorral/internal/apperr"
)

// Executor abstracts child-process execution for testability, matching the
// shape used throughout this module's other external-tool wrappers.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Progress is one snapshot of MakeMKV's reported completion: PRGV lines
// set Percent and PRGT lines set Title. Every such line is reported,
// including repeats of the previous value.
type Progress struct {
	Title   string
	Percent float64
}

// Client wraps MakeMKV CLI interactions for a single rip.
type Client struct {
	binary string
	exec   Executor
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor injects a custom executor, primarily for tests.
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.exec = e
		}
	}
}

// WithLogger attaches a logger used for unrecognized or diagnostic lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a Client. binary is the path to the MakeMKV CLI executable.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, apperr.Wrap(apperr.ErrPrecondition, "ripperbridge", "New", "binary path required", nil)
	}
	c := &Client{binary: binary, exec: commandExecutor{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RipResult is the outcome of ripping titleIDs from a disc into destDir.
type RipResult struct {
	OutputFiles []string
	TitleCount  int
}

// Rip drives `makemkvcon mkv <device> <title> <dest>` in robot mode for
// each requested title, reporting progress and disc-info attributes as
// they stream in. A selector of nil titleIDs rips the whole disc (title
// "all").
func (c *Client) Rip(ctx context.Context, device, destDir string, titleIDs []int, onProgress func(Progress), onInfo func(DiscInfo)) (RipResult, error) {
	var result RipResult
	var parseErr error

	handle := func(line string) {
		msg, err := ParseLine(line)
		if err != nil {
			if parseErr == nil {
				parseErr = err
			}
			return
		}
		switch msg.Kind {
		case MessagePRGV:
			if onProgress != nil && msg.Max > 0 {
				onProgress(Progress{Percent: float64(msg.Current) / float64(msg.Max) * 100})
			}
		case MessagePRGT:
			if onProgress != nil {
				onProgress(Progress{Title: msg.ProgressTitle})
			}
		case MessageTCOUT:
			result.TitleCount = msg.TitleCount
		case MessageCINFo, MessageTINFO, MessageSINFo:
			if msg.Info.Attr == AttrOutputFileName {
				result.OutputFiles = append(result.OutputFiles, msg.Info.Value)
			}
			if onInfo != nil {
				onInfo(msg.Info)
			}
		case MessageMSG:
			if c.logger != nil {
				c.logger.Debug("makemkv message", "code", msg.MessageCode, "text", msg.Text)
			}
		}
	}

	runs := [][]int{titleIDs}
	if len(titleIDs) > 1 {
		runs = runs[:0]
		for _, id := range titleIDs {
			runs = append(runs, []int{id})
		}
	}
	for _, ids := range runs {
		args := buildRipArgs(device, destDir, ids)
		if err := c.exec.Run(ctx, c.binary, args, handle); err != nil {
			return result, apperr.Wrap(apperr.ErrIO, "ripperbridge", "Rip", "makemkvcon invocation failed", err)
		}
	}
	if parseErr != nil {
		return result, parseErr
	}
	return result, nil
}

func buildRipArgs(device, destDir string, titleIDs []int) []string {
	title := "all"
	if len(titleIDs) == 1 {
		title = fmt.Sprintf("%d", titleIDs[0])
	}
	return []string{"-r", "--progress=-same", "mkv", normalizeDeviceArg(device), title, destDir}
}

func normalizeDeviceArg(device string) string {
	trimmed := strings.TrimSpace(device)
	if trimmed == "" {
		return "disc:0"
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "disc:") || strings.HasPrefix(lower, "dev:") {
		return trimmed
	}
	if strings.HasPrefix(lower, "/dev/") {
		return "dev:" + trimmed
	}
	return trimmed
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
