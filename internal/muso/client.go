// Package muso talks to the Muso.AI developer API.
package muso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"backoffice/internal/config"
)

var ErrNotConfigured = errors.New("muso: MUSO_AI_API_KEY is not set")

// StatusError is a non-2xx answer from Muso.AI.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Muso.AI Error (Status %d): %s", e.Status, e.Body)
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func New(cfg config.MusoConfig) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("muso %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// Profile is the subset of a Muso.AI profile the back office stores. Data
// keeps the full "data" object.
type Profile struct {
	Popularity int
	Data       json.RawMessage
}

func (c *Client) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	raw, err := c.get(ctx, "/profile/"+url.PathEscape(profileID))
	if err != nil {
		return nil, err
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	var pop struct {
		Popularity float64 `json:"popularity"`
	}
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &pop)
	}
	return &Profile{Popularity: int(pop.Popularity), Data: env.Data}, nil
}

// Credits returns the raw credits page for a profile.
func (c *Client) Credits(ctx context.Context, profileID string, limit, offset int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return c.get(ctx, "/profile/"+url.PathEscape(profileID)+"/credits?"+q.Encode())
}
