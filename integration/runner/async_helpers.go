package runner

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

	"github.com/google/uuid"

	"github.com/jhin-exe/weave/internal/handlers"
)

// CreateSession starts a session on a project through POST /v1/sessions.
func CreateSession(ctx context.Context, client *http.Client, baseURL string, req handlers.CreateSessionRequest) (*handlers.SessionResponse, int, error) {
	return doSession(ctx, client, http.MethodPost, baseURL+"/v1/sessions", req)
}

// GetSession fetches the current view and state of a session.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*handlers.SessionResponse, int, error) {
	return doSession(ctx, client, http.MethodGet, baseURL+"/v1/sessions/"+id.String(), nil)
}

// PostChoice activates the choice at index in the session's current scene.
func PostChoice(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, index int) (*handlers.SessionResponse, int, error) {
	return doSession(ctx, client, http.MethodPost, baseURL+"/v1/sessions/"+id.String()+"/choices",
		handlers.ChoiceRequest{Index: &index})
}

// DeleteSession ends a session. A missing session is not an error.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/v1/sessions/"+id.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete session returned %d", resp.StatusCode)
	}
	return nil
}

// doSession sends a request whose success body is a SessionResponse. For
// non-2xx statuses it returns a nil response, the status and the API's
// error message.
func doSession(ctx context.Context, client *http.Client, method, url string, body any) (*handlers.SessionResponse, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return nil, resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return nil, resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errorResp.Error)
	}

	var session handlers.SessionResponse
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &session, resp.StatusCode, nil
}

// StreamEvent is one server-sent event.
type StreamEvent struct {
	Name string
	Data string
}

// EventStream reads a session's server-sent events in the background.
type EventStream struct {
	events chan StreamEvent
	ctx    context.Context
	cancel context.CancelFunc
	body   io.Closer
}

// OpenEventStream connects to GET /v1/events/sessions/{id} and waits for
// the "connected" event, so everything published afterwards is seen.
func OpenEventStream(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, timeout time.Duration) (*EventStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/events/sessions/"+id.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}

	// The shared client may carry a timeout that would cut the stream.
	streamClient := &http.Client{Transport: client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("event stream returned %d", resp.StatusCode)
	}

	s := &EventStream{events: make(chan StreamEvent, 64), ctx: ctx, cancel: cancel, body: resp.Body}
	go s.read(bufio.NewReader(resp.Body))

	ev, err := s.Next(timeout)
	if err != nil {
		s.Close()
		return nil, err
	}
	if ev.Name != "connected" {
		s.Close()
		return nil, fmt.Errorf("expected connected event, got %q", ev.Name)
	}
	return s, nil
}

func (s *EventStream) read(r *bufio.Reader) {
	defer close(s.events)
	var ev StreamEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "" && ev.Name != "":
			select {
			case s.events <- ev:
			case <-s.ctx.Done():
				return
			}
			ev = StreamEvent{}
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

// Next returns the next event, waiting at most timeout.
func (s *EventStream) Next(timeout time.Duration) (StreamEvent, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return StreamEvent{}, fmt.Errorf("event stream closed")
		}
		return ev, nil
	case <-time.After(timeout):
		return StreamEvent{}, fmt.Errorf("timeout waiting for event")
	}
}

// Close ends the stream.
func (s *EventStream) Close() {
	s.cancel()
	_ = s.body.Close()
}
