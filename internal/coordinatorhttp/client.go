package coordinatorhttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/contract"
	"mediacorral/internal/drive"
	"mediacorral/internal/idx"
)

const clientComponent = "coordinatorhttp"

// Client implements contract.CoordinatorClient against a running Server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client addressing the coordinator listening at
// baseURL (e.g. "http://127.0.0.1:7487").
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

var _ contract.CoordinatorClient = (*Client)(nil)

func (c *Client) ListDrives(ctx context.Context) ([]contract.DriveMeta, error) {
	resp, err := c.do(ctx, http.MethodGet, "/drives", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return nil, err
	}
	var raw []driveMetaResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ErrDecode, clientComponent, "ListDrives", "decoding drive list", err)
	}
	out := make([]contract.DriveMeta, 0, len(raw))
	for _, d := range raw {
		out = append(out, contract.DriveMeta{ID: d.ID, Name: d.Name, Path: d.Path})
	}
	return out, nil
}

func (c *Client) GetDriveState(ctx context.Context, driveID string) (drive.DriveState, error) {
	resp, err := c.do(ctx, http.MethodGet, "/drives/"+driveID+"/state", nil)
	if err != nil {
		return drive.DriveState{}, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return drive.DriveState{}, err
	}
	var body driveStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return drive.DriveState{}, apperr.Wrap(apperr.ErrDecode, clientComponent, "GetDriveState", "decoding drive state", err)
	}
	return drive.DriveState{
		DriveID:    body.DriveID,
		Status:     parseHardwareStatus(body.Status),
		LastPollAt: time.Unix(body.LastPollAtUTC, 0),
		ActiveCommand: drive.ActiveCommand{
			Kind:         parseActiveCommandKind(body.ActiveCommand.Kind),
			ErrorMessage: body.ActiveCommand.ErrorMessage,
			Ripping: drive.RippingProgress{
				JobID:        body.ActiveCommand.Ripping.JobID,
				CurrentTitle: body.ActiveCommand.Ripping.CurrentTitle,
				CurrentValue: body.ActiveCommand.Ripping.CurrentValue,
				TotalTitle:   body.ActiveCommand.Ripping.TotalTitle,
				TotalValue:   body.ActiveCommand.Ripping.TotalValue,
				MaxValue:     body.ActiveCommand.Ripping.MaxValue,
				Logs:         body.ActiveCommand.Ripping.Logs,
			},
		},
	}, nil
}

func parseHardwareStatus(s string) drive.HardwareStatus {
	switch s {
	case "empty":
		return drive.HardwareEmpty
	case "tray_open":
		return drive.HardwareTrayOpen
	case "not_ready":
		return drive.HardwareNotReady
	case "loaded":
		return drive.HardwareLoaded
	default:
		return drive.HardwareUnknown
	}
}

func (c *Client) Eject(ctx context.Context, driveID string) error {
	return c.postNoBody(ctx, "/drives/"+driveID+"/eject")
}

func (c *Client) Retract(ctx context.Context, driveID string) error {
	return c.postNoBody(ctx, "/drives/"+driveID+"/retract")
}

func (c *Client) postNoBody(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return errIfNotOK(resp)
}

func (c *Client) StartRip(ctx context.Context, driveID string, req contract.RipMediaRequest) (int64, error) {
	reqBody, err := json.Marshal(startRipRequest{DiscName: req.DiscName, SuspectedContents: req.SuspectedContents, Autoeject: req.Autoeject})
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDecode, clientComponent, "StartRip", "encoding rip request", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/drives/"+driveID+"/rip", bytes.NewReader(reqBody))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return 0, err
	}
	var body startRipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, apperr.Wrap(apperr.ErrDecode, clientComponent, "StartRip", "decoding rip response", err)
	}
	return body.JobID, nil
}

func (c *Client) StreamRipUpdates(ctx context.Context, jobID int64) (<-chan contract.RipUpdate, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rips/%d/stream", jobID), nil)
	if err != nil {
		return nil, err
	}
	if err := errIfNotOK(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	out := make(chan contract.RipUpdate)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var evt ripUpdateEvent
			if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
				return
			}
			update := contract.RipUpdate{
				JobID: evt.JobID,
				Progress: drive.RippingProgress{
					JobID:        evt.JobID,
					CurrentTitle: evt.Progress.CurrentTitle,
					CurrentValue: evt.Progress.CurrentValue,
					TotalTitle:   evt.Progress.TotalTitle,
					TotalValue:   evt.Progress.TotalValue,
					MaxValue:     evt.Progress.MaxValue,
					Logs:         evt.Progress.Logs,
				},
				Done: evt.Done,
				Err:  evt.Err,
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
			if evt.Done {
				return
			}
		}
	}()
	return out, nil
}

// SearchCatalog is out of scope: TMDB ingestion is not implemented by this
// build (SPEC_FULL.md lists TMDB ingestion as an excluded collaborator).
func (c *Client) SearchCatalog(ctx context.Context, req contract.CatalogSearchRequest) (contract.CatalogSearchPage, error) {
	return contract.CatalogSearchPage{}, apperr.Wrap(apperr.ErrPrecondition, clientComponent, "SearchCatalog", "TMDB catalog ingestion is out of scope for this build", nil)
}

// ImportCatalog is out of scope; see SearchCatalog.
func (c *Client) ImportCatalog(ctx context.Context, req contract.CatalogImportRequest) error {
	return apperr.Wrap(apperr.ErrPrecondition, clientComponent, "ImportCatalog", "TMDB catalog ingestion is out of scope for this build", nil)
}

func (c *Client) RebuildExportsDir(ctx context.Context, name string) error {
	return c.postNoBody(ctx, "/exports/"+name+"/rebuild")
}

func (c *Client) GetAutorip(ctx context.Context) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/autorip", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return false, err
	}
	var body autoripResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, apperr.Wrap(apperr.ErrDecode, clientComponent, "GetAutorip", "decoding autorip response", err)
	}
	return body.Enabled, nil
}

func (c *Client) SetAutorip(ctx context.Context, enabled bool) error {
	reqBody, err := json.Marshal(setAutoripRequest{Enabled: enabled})
	if err != nil {
		return apperr.Wrap(apperr.ErrDecode, clientComponent, "SetAutorip", "encoding autorip request", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/autorip", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return errIfNotOK(resp)
}

func (c *Client) FetchSubtitle(ctx context.Context, req contract.SubtitleFetchRequest) (contract.SubtitleFetchResult, error) {
	reqBody, err := json.Marshal(subtitleFetchRequest{VideoType: int(req.VideoType), MatchID: req.MatchID})
	if err != nil {
		return contract.SubtitleFetchResult{}, apperr.Wrap(apperr.ErrDecode, clientComponent, "FetchSubtitle", "encoding request", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/subtitles/fetch", bytes.NewReader(reqBody))
	if err != nil {
		return contract.SubtitleFetchResult{}, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return contract.SubtitleFetchResult{}, err
	}
	var body subtitleFetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return contract.SubtitleFetchResult{}, apperr.Wrap(apperr.ErrDecode, clientComponent, "FetchSubtitle", "decoding response", err)
	}
	return contract.SubtitleFetchResult{Name: body.Name, Text: body.Text}, nil
}

func (c *Client) JobByID(ctx context.Context, id int64) (idx.RipJob, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d", id), nil)
	if err != nil {
		return idx.RipJob{}, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return idx.RipJob{}, err
	}
	var job idx.RipJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return idx.RipJob{}, apperr.Wrap(apperr.ErrDecode, clientComponent, "JobByID", "decoding job", err)
	}
	return job, nil
}

func (c *Client) EpisodeByID(ctx context.Context, id int64) (idx.TvEpisode, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/episodes/%d", id), nil)
	if err != nil {
		return idx.TvEpisode{}, err
	}
	defer resp.Body.Close()
	if err := errIfNotOK(resp); err != nil {
		return idx.TvEpisode{}, err
	}
	var ep idx.TvEpisode
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		return idx.TvEpisode{}, apperr.Wrap(apperr.ErrDecode, clientComponent, "EpisodeByID", "decoding episode", err)
	}
	return ep, nil
}

func (c *Client) TagFile(ctx context.Context, req contract.TagFileRequest) error {
	reqBody, err := json.Marshal(tagFileRequest{FileID: req.FileID, VideoType: int(req.VideoType), MatchID: req.MatchID})
	if err != nil {
		return apperr.Wrap(apperr.ErrDecode, clientComponent, "TagFile", "encoding request", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/tag", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return errIfNotOK(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, clientComponent, "do", "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrTemporary, clientComponent, "do", "request to "+path, err)
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
	switch resp.StatusCode {
	case http.StatusNotFound:
		marker = apperr.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict:
		marker = apperr.ErrPrecondition
	case http.StatusNotImplemented:
		marker = apperr.ErrPrecondition
	case http.StatusGatewayTimeout:
		marker = apperr.ErrTemporary
	}
	return apperr.Wrap(marker, clientComponent, "request", msg, nil)
}
