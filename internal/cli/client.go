package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/buzzer/internal/protocol"
)

// ErrTimeout is returned when the server does not reply in time
var ErrTimeout = errors.New("timed out waiting for the server")

// Client is an HTTP and websocket client for the server
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Fetch performs a GET request and returns the raw body
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%s", errResp.Error.String())
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Get performs a GET request and decodes the JSON response into result
func (c *Client) Get(ctx context.Context, path string, result any) error {
	body, err := c.Fetch(ctx, path)
	if err != nil {
		return err
	}
	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Session is one websocket connection to the server
type Session struct {
	conn    *websocket.Conn
	timeout time.Duration
	Version string
}

// Dial opens a websocket session and consumes the welcome signal
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	s := &Session{conn: conn, timeout: c.timeout}
	env, err := s.Next(time.Now().Add(c.timeout))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if env.Type == protocol.TypeWelcome {
		var welcome protocol.Welcome
		if err := json.Unmarshal(env.Payload, &welcome); err == nil {
			s.Version = welcome.Version
		}
	}
	return s, nil
}

// Send writes one action to the server
func (s *Session) Send(req protocol.Request) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	return s.conn.WriteJSON(req)
}

// Join sends join_room and waits for the first room_update, failing on an
// error signal
func (s *Session) Join(room, name, role string) (protocol.RoomUpdate, error) {
	if err := s.Send(protocol.Request{Type: protocol.TypeJoinRoom, Room: room, Name: name, Role: role}); err != nil {
		return protocol.RoomUpdate{}, err
	}

	var update protocol.RoomUpdate
	_, err := s.Await(func(env protocol.Envelope) (bool, error) {
		if env.Type != protocol.TypeRoomUpdate {
			return false, nil
		}
		return true, json.Unmarshal(env.Payload, &update)
	})
	return update, err
}

// Await reads signals until match reports true, an error signal arrives or
// the session timeout passes
func (s *Session) Await(match func(protocol.Envelope) (bool, error)) (protocol.Envelope, error) {
	deadline := time.Now().Add(s.timeout)
	for {
		env, err := s.Next(deadline)
		if err != nil {
			return protocol.Envelope{}, err
		}
		if env.Type == protocol.TypeError {
			return env, signalError(env)
		}
		ok, err := match(env)
		if err != nil {
			return env, err
		}
		if ok {
			return env, nil
		}
	}
}

// Next reads one signal. A zero deadline waits forever.
func (s *Session) Next(deadline time.Time) (protocol.Envelope, error) {
	_ = s.conn.SetReadDeadline(deadline)

	var env protocol.Envelope
	if err := s.conn.ReadJSON(&env); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return env, ErrTimeout
		}
		return env, fmt.Errorf("connection lost: %w", err)
	}
	return env, nil
}

// Close sends a close frame and closes the connection
func (s *Session) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func signalError(env protocol.Envelope) error {
	var e protocol.Error
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return fmt.Errorf("server error: %s", string(env.Payload))
	}
	return fmt.Errorf("%s (%s)", e.Message, e.Code)
}
