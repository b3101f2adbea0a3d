package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type ipHandler struct{}

func (ipHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ip", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })
}

func clientIP(s *Server, remote, forwarded string) string {
	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = remote
	req.Header.Set(echo.HeaderXForwardedFor, forwarded)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestClientIPIgnoresForwardedForByDefault(t *testing.T) {
	s := NewServer(ipHandler{}, WithMetricsPath(""))

	assert.Equal(t, "203.0.113.7", clientIP(s, "203.0.113.7:5000", "192.0.2.1"))
}

func TestClientIPFromTrustedProxy(t *testing.T) {
	s := NewServer(ipHandler{}, WithMetricsPath(""), WithTrustedProxies([]string{"10.0.0.0/8", "not-a-cidr"}))

	assert.Equal(t, "192.0.2.1", clientIP(s, "10.1.2.3:5000", "192.0.2.1"))
	// an untrusted peer cannot claim another address
	assert.Equal(t, "203.0.113.7", clientIP(s, "203.0.113.7:5000", "192.0.2.1"))
}
