package telegram_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/service/telegram"
)

func TestSendPayload(t *testing.T) {
	t.Parallel()

	// Arrange: capture the sendMessage request.
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	n := telegram.NewNotifier("123:abc", "@pulse", telegram.WithAPIURL(srv.URL))

	// Act
	err := n.Send(t.Context(), "🔥 <b>hi</b>")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "@pulse", got["chat_id"])
	assert.Equal(t, "🔥 <b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestSendAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	err := telegram.NewNotifier("t", "c", telegram.WithAPIURL(srv.URL)).Send(t.Context(), "x")

	var apiErr *telegram.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	assert.True(t, apiErr.Temporary())
}

func TestSendBadRequestIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	err := telegram.NewNotifier("t", "c", telegram.WithAPIURL(srv.URL)).Send(t.Context(), "<b>")

	var apiErr *telegram.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, apiErr.Description, "can't parse entities")
}

func TestSendNotConfigured(t *testing.T) {
	t.Parallel()

	err := telegram.NewNotifier("", "c").Send(t.Context(), "x")
	assert.ErrorIs(t, err, telegram.ErrNotConfigured)
}

func TestSendTransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	err := telegram.NewNotifier("supersecret", "c", telegram.WithAPIURL(srv.URL)).Send(t.Context(), "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "supersecret")
}
