package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Endpoints(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "candle_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	ok := New(":0", pingFunc(func(context.Context) error { return nil }), reg).Handler()
	assert.Equal(t, http.StatusOK, get(t, ok, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, ok, "/ready").Code)

	rec := get(t, ok, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "candle_test_total 1")

	down := New(":0", pingFunc(func(context.Context) error { return errors.New("down") }), nil).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, down, "/ready").Code)
	assert.Equal(t, http.StatusNotFound, get(t, down, "/metrics").Code)
}
