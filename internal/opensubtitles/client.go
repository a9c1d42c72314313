// Package opensubtitles is the reference-subtitle client (C6): an
// authenticated HTTPS client against the OpenSubtitles catalog that
// searches, downloads, and triangulates the most trustworthy reference
// subtitle for a TMDB content ID.
//
// Unlike a pre-issued-token client, this one owns the login flow: it
// exchanges a username/password for a bearer token, caches it, and
// refreshes on expiry following the single-retry rule in authenticated.
package opensubtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/language"
)

const component = "opensubtitles"

const (
	defaultBaseURL   = "https://api.opensubtitles.com/api/v1"
	defaultUserAgent = "Mediacorral v1.0.0"
	defaultTimeout   = 45 * time.Second
	defaultLanguage  = "en"
)

// Config describes the catalog client's configuration.
type Config struct {
	APIKey     string
	Username   string
	Password   string
	UserAgent  string
	BaseURL    string
	// Language filters Search results to this language (ISO 639-1/639-3 or
	// an IETF tag, per language.Matches). Defaults to "en".
	Language   string
	HTTPClient *http.Client
}

// cachedToken is the bearer token returned by login, together with the
// wall-clock time it was acquired. authenticated uses the acquisition time
// to decide whether a 401 warrants a refresh-and-retry or a hard failure.
type cachedToken struct {
	acquiredAt time.Time
	token      string
}

// Client is the OpenSubtitles catalog client (C6).
type Client struct {
	apiKey    string
	username  string
	password  string
	userAgent string
	language  string
	baseURL   *url.URL
	http      *http.Client

	mu    sync.Mutex
	token *cachedToken
}

// New builds a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, apperr.Wrap(apperr.ErrPrecondition, component, "New", "api key is required", nil)
	}
	username := strings.TrimSpace(cfg.Username)
	password := strings.TrimSpace(cfg.Password)
	if username == "" || password == "" {
		return nil, apperr.Wrap(apperr.ErrPrecondition, component, "New", "username and password are required", nil)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPrecondition, component, "New", "invalid base url", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	lang := language.ToISO2(cfg.Language)
	if lang == "" {
		lang = defaultLanguage
	}
	return &Client{
		apiKey:    apiKey,
		username:  username,
		password:  password,
		userAgent: userAgent,
		language:  lang,
		baseURL:   baseURL,
		http:      client,
	}, nil
}

type loginResponse struct {
	Token string `json:"token"`
}

// login exchanges the configured credentials for a fresh bearer token. The
// caller must hold c.mu.
func (c *Client) login(ctx context.Context) error {
	endpoint := c.baseURL.JoinPath("login")
	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return apperr.Wrap(apperr.ErrPrecondition, component, "login", "encoding login request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(string(payload)))
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, component, "login", "building login request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, component, "login", "login request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return authFailure("login", resp)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return apperr.Wrap(apperr.ErrDecode, component, "login", "decoding login response", err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return apperr.Wrap(apperr.ErrAuth, component, "login", "login response missing token", nil)
	}
	c.token = &cachedToken{acquiredAt: time.Now(), token: body.Token}
	return nil
}

// authenticated runs buildReq under the cached bearer token, following the
// 401 refresh rule: if the token was acquired before this call started,
// re-login once and retry; if it was acquired after (meaning a concurrent
// caller already refreshed and the new token is still rejected), the auth
// failure is surfaced immediately to avoid a livelock against a catalog
// that is simply down.
func (c *Client) authenticated(ctx context.Context, buildReq func() (*http.Request, error)) (*http.Response, error) {
	queryStart := time.Now()
	for {
		c.mu.Lock()
		if c.token == nil {
			if err := c.login(ctx); err != nil {
				c.mu.Unlock()
				return nil, err
			}
		}
		token := c.token.token
		tokenTime := c.token.acquiredAt
		c.mu.Unlock()

		req, err := buildReq()
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, component, "authenticated", "building request", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrIO, component, "authenticated", "request failed", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}
		resp.Body.Close()

		c.mu.Lock()
		if tokenTime.Before(queryStart) {
			err := c.login(ctx)
			c.mu.Unlock()
			if err != nil {
				return nil, err
			}
			continue
		}
		c.mu.Unlock()
		return nil, apperr.Wrap(apperr.ErrAuth, component, "authenticated", "catalog rejected refreshed token", nil)
	}
}

func authFailure(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return apperr.Wrap(apperr.ErrAuth, component, op,
		fmt.Sprintf("catalog returned %s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
}
