// Package opencode talks to a running OpenCode server over HTTP.
package opencode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harun/sessionhooks/pkg/host"
)

// basicAuthUser is the user name the server expects alongside its password
const basicAuthUser = "opencode"

// Config configures a Client
type Config struct {
	BaseURL   string
	Directory string // sent as ?directory= when set
	Password  string // basic auth password, optional
	Timeout   time.Duration
	HTTP      *http.Client // optional
}

// Client implements host.Client against the OpenCode HTTP API
type Client struct {
	baseURL   *url.URL
	directory string
	password  string
	timeout   time.Duration
	http      *http.Client
}

var _ host.Client = (*Client)(nil)

// NewClient creates a new OpenCode client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", u.Scheme)
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:   u,
		directory: cfg.Directory,
		password:  cfg.Password,
		timeout:   cfg.Timeout,
		http:      httpClient,
	}, nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if c.directory != "" {
		q := u.Query()
		q.Set("directory", c.directory)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.password != "" {
		req.SetBasicAuth(basicAuthUser, c.password)
	}
	return req, nil
}

// do sends a JSON request and decodes the JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func sessionPath(sessionID string, suffix string) string {
	return "/session/" + url.PathEscape(sessionID) + suffix
}

// GetSession fetches session metadata
func (c *Client) GetSession(ctx context.Context, sessionID string) (*host.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	var session host.Session
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionMessages lists a session's messages with their parts
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]host.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	var messages []host.Message
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/message"), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateSessionTitle renames a session
func (c *Client) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	body := map[string]string{"title": title}
	return c.do(ctx, http.MethodPatch, sessionPath(sessionID, ""), body, nil)
}

// Log writes an entry to the server's application log
func (c *Client) Log(ctx context.Context, entry host.LogEntry) error {
	if entry.Level == "" {
		entry.Level = host.LogInfo
	}
	return c.do(ctx, http.MethodPost, "/log", entry, nil)
}
