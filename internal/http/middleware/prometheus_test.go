package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/api/artists/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Delete("/api/artists/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for _, id := range []string{"a1", "a2"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/artists/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/api/artists/:id", "200")))

	_, err = app.Test(httptest.NewRequest("DELETE", "/api/artists/a1", nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("DELETE", "/api/artists/:id", "204")))

	_, err = app.Test(httptest.NewRequest("GET", "/error", nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/error", "400")))

	_, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/metrics", "200")))

	assert.Equal(t, 3, testutil.CollectAndCount(promMiddleware.requestDuration))
}

func TestPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
