package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PDFShift renders through the PDFShift conversion API.
type PDFShift struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewPDFShift(url, apiKey string, timeout time.Duration) *PDFShift {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PDFShift{
		http:   &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		url:    url,
		apiKey: apiKey,
	}
}

func (p *PDFShift) Name() string { return "pdfshift" }

type pdfshiftRequest struct {
	Source          string `json:"source"`
	Format          string `json:"format"`
	Margin          string `json:"margin"`
	PrintBackground bool   `json:"print_background"`
}

func (p *PDFShift) Render(ctx context.Context, html string) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("PDFSHIFT_API_KEY not configured")
	}
	body, err := json.Marshal(pdfshiftRequest{Source: html, Format: "A4", Margin: "20px", PrintBackground: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth("api", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdfshift request: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pdfshift status %d: %s", resp.StatusCode, truncate(out, 300))
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
