// Package auco is a client for the Auco e-signature API.
//
// Reads are authorised with the public key (puk_...), writes with the private
// key (prk_...). The key is sent as the raw Authorization header value.
package auco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"backoffice/internal/config"
	"backoffice/internal/logger"
)

var (
	// ErrConfig reports a missing or malformed key for the requested method.
	ErrConfig = errors.New("auco: invalid configuration")
)

// APIError is a non-2xx answer from Auco.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
	Hint   string
}

func (e *APIError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("auco %s %s: %d: %s (%s)", e.Method, e.URL, e.Status, e.Body, e.Hint)
	}
	return fmt.Sprintf("auco %s %s: %d: %s", e.Method, e.URL, e.Status, e.Body)
}

var faceRe = regexp.MustCompile(`^/(veriface|aucoface)`)

type Client struct {
	http       *http.Client
	base       string
	apiBase    string
	publicKey  string
	privateKey string
	log        *logger.Logger
}

// New builds a client with an otelhttp-instrumented transport.
func New(cfg config.AucoConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		log:        log.With("component", "auco"),
	}
}

func (c *Client) keyFor(method string) (string, error) {
	if method == http.MethodGet {
		if c.publicKey == "" {
			return "", fmt.Errorf("%w: AUCO_PUK is not set", ErrConfig)
		}
		if !strings.HasPrefix(c.publicKey, "puk_") {
			return "", fmt.Errorf("%w: public key for %s must start with puk_: %s", ErrConfig, method, logger.MaskKey(c.publicKey))
		}
		return c.publicKey, nil
	}
	if c.privateKey == "" {
		return "", fmt.Errorf("%w: AUCO_PRK is not set", ErrConfig)
	}
	if !strings.HasPrefix(c.privateKey, "prk_") {
		return "", fmt.Errorf("%w: private key for %s must start with prk_: %s", ErrConfig, method, logger.MaskKey(c.privateKey))
	}
	return c.privateKey, nil
}

func (c *Client) baseFor(path string) string {
	if faceRe.MatchString(path) {
		return c.apiBase
	}
	return c.base
}

// Ping checks that the base URL and public key belong to the same environment.
func (c *Client) Ping(ctx context.Context) error {
	u := c.base + "/document"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.publicKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auco ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method: http.MethodGet, URL: u, Status: resp.StatusCode, Body: string(body),
			Hint: fmt.Sprintf("check that AUCO_BASE_URL and AUCO_PUK (%s) target the same environment and the header has no Bearer prefix", logger.MaskKey(c.publicKey)),
		}
	}
	return nil
}

// Do sends a request and decodes the JSON answer into out when out is not nil.
// With diagnose set, a Ping runs before any non-GET call.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, diagnose bool) error {
	if diagnose && method != http.MethodGet {
		if err := c.Ping(ctx); err != nil {
			return err
		}
	}
	key, err := c.keyFor(method)
	if err != nil {
		return err
	}

	u := c.baseFor(path) + path
	var rdr io.Reader
	if method != http.MethodGet {
		if body == nil {
			body = map[string]any{}
		}
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode auco body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", key)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("auco_request", "method", method, "url", u, "key", logger.MaskKey(key))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auco %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auco response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, URL: u, Status: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr.Hint = fmt.Sprintf("key used %s (GET=>puk_, writes=>prk_); Authorization must not carry Bearer; keys and base URLs must be from the same environment", logger.MaskKey(key))
		}
		c.log.Warn("auco_request_failed", "method", method, "url", u, "status", resp.StatusCode)
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode auco response: %w", err)
	}
	return nil
}
