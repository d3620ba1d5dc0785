package auco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FlexString accepts a JSON string, number or null.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

type Signer struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       FlexString `json:"phone"`
	Status      string     `json:"status"`
	Platform    string     `json:"platform"`
	Location    string     `json:"location"`
	Address     string     `json:"address"`
	ReadingTime FlexString `json:"reading_time"`
	SignedAt    string     `json:"signed_at"`
}

type Document struct {
	Code         string   `json:"code"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
	DocumentURL  string   `json:"document_url"`
	CreatorEmail string   `json:"creator_email"`
	SignProfile  []Signer `json:"signProfile"`
}

// DocumentCode returns Code, falling back to ID.
func (d Document) DocumentCode() string {
	if d.Code != "" {
		return d.Code
	}
	return d.ID
}

// dataEnvelope handles answers that wrap the payload in {"data": ...}.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(raw json.RawMessage) json.RawMessage {
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if d := bytes.TrimSpace(env.Data); len(d) > 0 && string(d) != "null" {
			return d
		}
	}
	return raw
}

// GetDocument fetches one document with its signers.
func (c *Client) GetDocument(ctx context.Context, code string) (*Document, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/document/get?code="+url.QueryEscape(code), nil, &raw, false); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(unwrap(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", code, err)
	}
	if doc.Code == "" {
		doc.Code = code
	}
	if doc.Name == "" {
		doc.Name = "Documento " + code
	}
	if doc.Status == "" {
		doc.Status = "pending"
	}
	return &doc, nil
}

// ListDocuments returns every document visible to the account. Both a bare
// array and {"data": [...]} are accepted.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/document/list", nil, &raw, false); err != nil {
		return nil, err
	}
	body := unwrap(raw)
	if t := bytes.TrimSpace(body); len(t) == 0 || t[0] != '[' {
		return nil, fmt.Errorf("auco document list: unexpected response format")
	}
	docs := make([]Document, 0)
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}
	return docs, nil
}

type SignProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Label bool   `json:"label"`
}

// UploadRequest is the body of POST /document/upload. File is the base64 PDF.
type UploadRequest struct {
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Subject      string        `json:"subject"`
	Message      string        `json:"message"`
	Notification bool          `json:"notification"`
	Remember     int           `json:"remember"`
	SignProfile  []SignProfile `json:"signProfile"`
	File         string        `json:"file"`
}

type uploadResponse struct {
	Code     string `json:"code"`
	Document string `json:"document"`
}

// Upload sends a PDF for signature and returns the document code. An empty
// code means Auco accepted the call without creating a document.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (string, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, "/document/upload", req, &raw, true); err != nil {
		return "", err
	}
	var out uploadResponse
	if err := json.Unmarshal(unwrap(raw), &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.Code != "" {
		return out.Code, nil
	}
	return out.Document, nil
}

var statusMap = map[string]string{
	"pending":   "pending",
	"sent":      "sent",
	"signed":    "completed",
	"completed": "completed",
	"finished":  "completed",
	"rejected":  "rejected",
	"cancelled": "rejected",
	"declined":  "rejected",
	"expired":   "expired",
}

// MapStatus converts an Auco document or signer status to the local status.
// Unknown values map to pending.
func MapStatus(s string) string {
	if v, ok := statusMap[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return "pending"
}

// Ptr returns the trimmed value, or nil when it is empty.
func (f FlexString) Ptr() *string {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return nil
	}
	return &s
}
