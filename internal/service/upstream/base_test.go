package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
	xhttp "MarketPulse/pkg/http"
)

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(fmt.Errorf("x: %w", &xhttp.StatusError{Code: 503})))
	assert.True(t, Retryable(&xhttp.StatusError{Code: 429}))
	assert.False(t, Retryable(&xhttp.StatusError{Code: 404}))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(errors.New("decode json: bad")))
}

func TestGetJSONWithRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := New("test", srv.URL, WithAttempts(2))
	var dest map[string]any
	err := b.GetJSONWithRetry(t.Context(), "/x", nil, &dest)

	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.EqualValues(t, 2, calls.Load())

	var ue *models.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "test", ue.Source)
	assert.Equal(t, http.StatusServiceUnavailable, ue.Status)
	assert.Equal(t, "test: HTTP 503", ue.Brief())
}

func TestRateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	b := New("test", srv.URL+"/", WithRateLimit(1, 1))
	var dest map[string]any
	require.NoError(t, b.GetJSON(t.Context(), "/x", nil, &dest))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	err := b.GetJSON(ctx, "/x", nil, &dest)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
