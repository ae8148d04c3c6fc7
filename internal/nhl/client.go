// Package nhl talks to the NHL stats API, the read-only scores
// provider. Payloads pass through to the browser untouched; the only
// structure this package understands is the provider's error payload,
// discriminated by the message/messageNumber field pair.
package nhl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const requestTimeout = 10 * time.Second

// APIError is the provider's structured error payload. It is rendered
// to the viewer, not treated as a transport failure.
type APIError struct {
	Message       string `json:"message"`
	MessageNumber int    `json:"messageNumber"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stats api error %d: %s", e.MessageNumber, e.Message)
}

// IsErrorPayload reports whether raw is the provider's error payload.
func IsErrorPayload(raw json.RawMessage) (*APIError, bool) {
	var probe struct {
		Message       *string `json:"message"`
		MessageNumber *int    `json:"messageNumber"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	if probe.Message == nil || probe.MessageNumber == nil {
		return nil, false
	}
	return &APIError{Message: *probe.Message, MessageNumber: *probe.MessageNumber}, true
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Schedule fetches the day's schedule, hydrated with team and linescore
// data the scorebug renders. date is formatted YYYY-MM-DD.
func (c *Client) Schedule(ctx context.Context, date string) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/schedule?hydrate=team,linescore&date=%s", date))
}

// LiveFeed fetches the live feed for a game.
func (c *Client) LiveFeed(ctx context.Context, gameID string) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/game/%s/feed/live", gameID))
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stats api response: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("stats api request")

	// The provider reports game-level problems as a JSON error payload,
	// sometimes with a non-2xx status. Pass those through; only
	// non-JSON failures are transport errors.
	if !json.Valid(body) {
		return nil, fmt.Errorf("stats api returned status %d with non-JSON body", resp.StatusCode)
	}

	return json.RawMessage(body), nil
}
