package opencode

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/harun/sessionhooks/pkg/host"
)

// maxEventSize bounds a single SSE data payload; message parts can carry whole files
const maxEventSize = 8 * 1024 * 1024

// ErrStreamClosed is returned by Subscribe when the server ends the stream
var ErrStreamClosed = errors.New("event stream closed by server")

// EventHandler receives decoded stream events
type EventHandler func(ctx context.Context, evt host.Event) error

// Subscribe reads the server-sent event stream and calls fn for every event,
// one at a time. It returns when ctx is done, the stream ends (ErrStreamClosed)
// or fn returns an error. Payloads that fail to decode are skipped.
func (c *Client) Subscribe(ctx context.Context, fn EventHandler) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/event", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     http.MethodGet,
			Path:       "/event",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return readEvents(ctx, resp.Body, fn)
}

// readEvents parses an SSE body. Only data fields are used; multi-line data is
// joined with newlines and dispatched on a blank line.
func readEvents(ctx context.Context, r io.Reader, fn EventHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []string
	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		payload := strings.Join(data, "\n")
		data = data[:0]

		var evt host.Event
		if err := json.Unmarshal([]byte(payload), &evt); err != nil || evt.Type == "" {
			return nil
		}
		return fn(ctx, evt)
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrStreamClosed
}
