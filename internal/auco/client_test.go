package auco

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/config"
)

const (
	testPUK = "puk_0123456789abcdef"
	testPRK = "prk_fedcba9876543210"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.AucoConfig{
		BaseURL:    srv.URL + "/v1.5/ext",
		APIBase:    srv.URL + "/v1.5",
		PublicKey:  testPUK,
		PrivateKey: testPRK,
	}, nil)
}

func TestKeySelection(t *testing.T) {
	var gotAuth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/document/list", nil, nil, false))
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/document/upload", map[string]string{"a": "b"}, nil, false))

	assert.Equal(t, []string{testPUK, testPRK}, gotAuth)
}

func TestKeyValidation(t *testing.T) {
	c := New(config.AucoConfig{BaseURL: "http://unused", PublicKey: "prk_wrong", PrivateKey: ""}, nil)

	err := c.Do(context.Background(), http.MethodGet, "/document/list", nil, nil, false)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "puk_")
	assert.NotContains(t, err.Error(), "prk_wrong")

	err = c.Do(context.Background(), http.MethodPost, "/document/upload", nil, nil, false)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "AUCO_PRK")
}

func TestFacePathsUseAPIBase(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/veriface/start", nil, nil, false))
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/document/get", nil, nil, false))

	assert.Equal(t, []string{"/v1.5/veriface/start", "/v1.5/ext/document/get"}, paths)
}

func TestUnauthorizedCarriesHint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	})

	err := c.Do(context.Background(), http.MethodGet, "/document/list", nil, nil, false)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad key")
	assert.Contains(t, apiErr.Hint, "puk_...cdef(len=20)")
}

func TestDiagnosePingRunsBeforeWrites(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/v1.5/ext/document" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Upload(context.Background(), UploadRequest{Email: "owner@label.co"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, []string{"GET /v1.5/ext/document"}, calls)
}

func TestGetDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DOC1", r.URL.Query().Get("code"))
		_, _ = w.Write([]byte(`{"data":{"name":"Contrato: Song","status":"FINISHED","signProfile":[
			{"name":"Ana","email":"Ana@Mail.co","status":"signed","reading_time":42,"phone":3001234567},
			{"name":"No email"}]}}`))
	})

	doc, err := c.GetDocument(context.Background(), "DOC1")

	require.NoError(t, err)
	assert.Equal(t, "DOC1", doc.Code)
	assert.Equal(t, "Contrato: Song", doc.Name)
	require.Len(t, doc.SignProfile, 2)
	assert.Equal(t, FlexString("42"), doc.SignProfile[0].ReadingTime)
	assert.Equal(t, FlexString("3001234567"), doc.SignProfile[0].Phone)
	assert.Nil(t, doc.SignProfile[1].ReadingTime.Ptr())
}

func TestGetDocument_Defaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	doc, err := c.GetDocument(context.Background(), "XYZ")

	require.NoError(t, err)
	assert.Equal(t, "Documento XYZ", doc.Name)
	assert.Equal(t, "pending", doc.Status)
}

func TestListDocuments(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"wrapped", `{"data":[{"code":"A"},{"code":"B"}]}`, 2, false},
		{"bare array", `[{"code":"A"}]`, 1, false},
		{"unexpected", `{"data":{"code":"A"}}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			docs, err := c.ListDocuments(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Contrato: Song", req.Name)
		assert.True(t, req.Notification)
		assert.Equal(t, 6, req.Remember)
		assert.Len(t, req.SignProfile, 1)
		_, _ = w.Write([]byte(`{"code":"NEWDOC"}`))
	})

	code, err := c.Upload(context.Background(), UploadRequest{
		Email: "owner@label.co", Name: "Contrato: Song", Notification: true, Remember: 6,
		SignProfile: []SignProfile{{Name: "Ana", Email: "ana@mail.co", Label: true}},
		File:        "JVBERi0=",
	})

	require.NoError(t, err)
	assert.Equal(t, "NEWDOC", code)
}

func TestMapStatus(t *testing.T) {
	tests := map[string]string{
		"pending":   "pending",
		"SENT":      "sent",
		"signed":    "completed",
		"Completed": "completed",
		"finished":  "completed",
		"rejected":  "rejected",
		"cancelled": "rejected",
		"declined":  "rejected",
		"expired":   "expired",
		"":          "pending",
		"weird":     "pending",
	}
	for in, want := range tests {
		assert.Equal(t, want, MapStatus(in), in)
	}
}
