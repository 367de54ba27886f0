package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/grading-admin-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"mongo":    func(context.Context) error { return nil },
	})

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"mongo":"ok"`)
}

func TestMetricsHandlerReadyReportsFailures(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assertStatus(t, w, http.StatusServiceUnavailable)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordFetchFailure("submissions")
	h := NewMetricsHandler(metrics, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "grading_fetch_failures_total")

	c, w = newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"fetchFailures":1`)
}
