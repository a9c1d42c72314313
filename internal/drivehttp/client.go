package drivehttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediacorral/internal/apperr"
	"mediacorral/internal/drive"
	"mediacorral/internal/ripperbridge"
)

const component = "drivehttp"

// Client is a coordinator-side handle to one drive exposed by a remote
// drive-controller host. It implements both drive.TrayController and
// drive.Ripper, so a single value satisfies everything drive.NewMachine
// needs for a drive that is not physically attached to the coordinator's
// own host.
type Client struct {
	baseURL string
	driveID string
	http    *http.Client
}

// NewClient builds a Client addressing driveID on the controller listening
// at baseURL (e.g. "http://127.0.0.1:7488").
func NewClient(baseURL, driveID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), driveID: driveID, http: httpClient}
}

var _ drive.TrayController = (*Client)(nil)
var _ drive.Ripper = (*Client)(nil)

// Status implements drive.TrayController.
func (c *Client) Status(ctx context.Context) (drive.HardwareStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, c.drivePath("state"), nil)
	if err != nil {
		return drive.HardwareUnknown, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return drive.HardwareUnknown, err
	}
	var body driveStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return drive.HardwareUnknown, apperr.Wrap(apperr.ErrDecode, component, "Status", "decoding drive state", err)
	}
	return parseHardwareStatus(body.Status), nil
}

// Eject implements drive.TrayController.
func (c *Client) Eject(ctx context.Context) error {
	return c.postNoBody(ctx, "eject")
}

// Retract implements drive.TrayController.
func (c *Client) Retract(ctx context.Context) error {
	return c.postNoBody(ctx, "retract")
}

func (c *Client) postNoBody(ctx context.Context, action string) error {
	resp, err := c.do(ctx, http.MethodPost, c.drivePath(action), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return errIfNotOK(resp)
}

// Rip implements drive.Ripper: it starts a rip on the remote host, relays
// progress/info callbacks as they stream in, and fetches the finished
// files into destDir once the remote side reports done.
func (c *Client) Rip(ctx context.Context, device, destDir string, titleIDs []int,
	onProgress func(ripperbridge.Progress), onInfo func(ripperbridge.DiscInfo)) (ripperbridge.RipResult, error) {
	token := uuid.NewString()
	reqBody, err := json.Marshal(ripRequestBody{JobToken: token, TitleIDs: titleIDs})
	if err != nil {
		return ripperbridge.RipResult{}, apperr.Wrap(apperr.ErrDecode, component, "Rip", "encoding rip request", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.drivePath("rip"), bytes.NewReader(reqBody))
	if err != nil {
		return ripperbridge.RipResult{}, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return ripperbridge.RipResult{}, err
	}

	var names []string
	var titleCount int
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var evt ripEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return ripperbridge.RipResult{}, apperr.Wrap(apperr.ErrDecode, component, "Rip", "decoding rip event", err)
		}
		switch evt.Kind {
		case ripEventProgress:
			if onProgress != nil {
				onProgress(ripperbridge.Progress{Title: evt.Title, Percent: evt.Percent})
			}
		case ripEventInfo:
			if onInfo != nil {
				onInfo(ripperbridge.DiscInfo{Item: evt.InfoItem, Attr: ripperbridge.Attr(evt.InfoAttr), Code: evt.InfoCode, Value: evt.InfoValue})
			}
		case ripEventError:
			return ripperbridge.RipResult{}, apperr.Wrap(apperr.ErrIO, component, "Rip", "remote rip failed", fmt.Errorf("%s", evt.Message))
		case ripEventDone:
			names = evt.OutputFiles
			titleCount = evt.TitleCount
		}
	}
	if err := scanner.Err(); err != nil {
		return ripperbridge.RipResult{}, apperr.Wrap(apperr.ErrIO, component, "Rip", "reading rip event stream", err)
	}

	outputFiles := make([]string, 0, len(names))
	for _, name := range names {
		local := filepath.Join(destDir, name)
		if err := c.fetchFile(ctx, token, name, local); err != nil {
			return ripperbridge.RipResult{}, err
		}
		outputFiles = append(outputFiles, local)
	}
	c.discardStaging(ctx, token)

	return ripperbridge.RipResult{OutputFiles: outputFiles, TitleCount: titleCount}, nil
}

func (c *Client) fetchFile(ctx context.Context, token, name, dest string) error {
	resp, err := c.do(ctx, http.MethodGet, c.drivePath("rip/"+token+"/files/"+name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, component, "Rip", "creating local file "+dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return apperr.Wrap(apperr.ErrIO, component, "Rip", "downloading "+name, err)
	}
	return nil
}

// discardStaging best-effort tells the controller to clean up; a failure
// here only leaks disk on the controller host, so it is ignored rather
// than surfaced as a rip failure.
func (c *Client) discardStaging(ctx context.Context, token string) {
	resp, err := c.do(ctx, http.MethodDelete, c.drivePath("rip/"+token), nil)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) drivePath(suffix string) string {
	return fmt.Sprintf("%s/drives/%s/%s", c.baseURL, c.driveID, suffix)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, component, "do", "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrTemporary, component, "do", "request to "+url, err)
	}
	return resp, nil
}

func errIfNotOK(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	marker := apperr.ErrIO
	if resp.StatusCode == http.StatusNotFound {
		marker = apperr.ErrNotFound
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict {
		marker = apperr.ErrPrecondition
	}
	return apperr.Wrap(marker, component, "request", msg, nil)
}

// ListDrives fetches the drive-controller's enumerated drives, used by the
// coordinator at startup to decide how many drive.Machine instances to
// build for a given controller address.
func ListDrives(ctx context.Context, baseURL string, httpClient *http.Client) ([]DriveMeta, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/drives", nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, component, "ListDrives", "building request", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrTemporary, component, "ListDrives", "request to "+baseURL, err)
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return nil, err
	}
	var raw []driveMetaResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ErrDecode, component, "ListDrives", "decoding drive list", err)
	}
	out := make([]DriveMeta, 0, len(raw))
	for _, d := range raw {
		out = append(out, DriveMeta{ID: d.ID, Name: d.Name, Path: d.Path})
	}
	return out, nil
}

// DriveMeta describes one drive a remote drive-controller host exposes,
// mirroring contract.DriveMeta.
type DriveMeta struct {
	ID   string
	Name string
	Path string
}
