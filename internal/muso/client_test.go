package muso

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/config"
)

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "/v4/profile/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"name":"Borngud","popularity":72}}`))
	}))
	defer srv.Close()

	c := New(config.MusoConfig{APIKey: "secret-key", BaseURL: srv.URL + "/v4/"})
	p, err := c.GetProfile(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, 72, p.Popularity)
	assert.JSONEq(t, `{"name":"Borngud","popularity":72}`, string(p.Data))
}

func TestCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/abc/credits", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"data":{"items":[]}}`))
	}))
	defer srv.Close()

	c := New(config.MusoConfig{APIKey: "k", BaseURL: srv.URL})
	raw, err := c.Credits(context.Background(), "abc", 20, 40)

	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"items":[]}}`, string(raw))
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`profile not found`))
	}))
	defer srv.Close()

	c := New(config.MusoConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.GetProfile(context.Background(), "missing")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "Muso.AI Error (Status 404): profile not found", err.Error())
}

func TestNotConfigured(t *testing.T) {
	c := New(config.MusoConfig{BaseURL: "http://unused"})
	_, err := c.Credits(context.Background(), "abc", 20, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
