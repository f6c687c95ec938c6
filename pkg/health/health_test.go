package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	resp := health.Run(context.Background(), health.Checks{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return nil
		},
		"panics": func(context.Context) error { panic("oops") },
	}, health.WithTimeout(50*time.Millisecond))

	assert.Equal(t, health.StatusUnhealthy, resp.Status)
	assert.Equal(t, health.StatusHealthy, resp.Checks["db"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.Contains(t, resp.Checks["slow"].Error, health.ErrCheckTimeout.Error())
	assert.Contains(t, resp.Checks["panics"].Error, "oops")
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, health.StatusHealthy, health.Run(context.Background(), nil).Status)
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	checks := health.Checks{
		"db":    func(context.Context) error { return errors.New("down") },
		"redis": func(context.Context) error { return nil },
	}

	rec = httptest.NewRecorder()
	health.ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, health.StatusUnhealthy, body.Status)
	assert.Equal(t, "down", body.Checks["db"].Error)
	assert.Equal(t, health.StatusHealthy, body.Checks["redis"].Status)

	t.Run("single check", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/health/ready?check=redis", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		var body health.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Checks, 1)
	})

	t.Run("unknown check", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/health/ready?check=s3", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("head", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodHead, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestChecksMerge(t *testing.T) {
	t.Parallel()

	var nilChecks health.Checks
	merged := nilChecks.Merge(health.Checks{"a": nil}, health.Checks{"b": nil})
	assert.Len(t, merged, 2)
}
