package opensubtitles

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"mediacorral/internal/apperr"
)

// Download retrieves one candidate's subtitle text: a POST negotiates a
// one-time download link, then a GET fetches the body from it.
func (c *Client) Download(ctx context.Context, fileID int64) (string, error) {
	negotiate, err := c.authenticated(ctx, func() (*http.Request, error) {
		endpoint := c.baseURL.JoinPath("download")
		payload, err := json.Marshal(map[string]int64{"file_id": fileID})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer negotiate.Body.Close()

	if negotiate.StatusCode >= 400 {
		return "", authFailure("Download", negotiate)
	}

	var pointer struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(negotiate.Body).Decode(&pointer); err != nil {
		return "", apperr.Wrap(apperr.ErrDecode, component, "Download", "decoding download pointer", err)
	}
	if strings.TrimSpace(pointer.Link) == "" {
		return "", apperr.Wrap(apperr.ErrDecode, component, "Download", "download response missing link", nil)
	}

	fetch, err := c.authenticated(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, pointer.Link, nil)
	})
	if err != nil {
		return "", err
	}
	defer fetch.Body.Close()

	if fetch.StatusCode >= 400 {
		return "", authFailure("Download", fetch)
	}
	body, err := io.ReadAll(fetch.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrIO, component, "Download", "reading subtitle body", err)
	}
	return string(body), nil
}
