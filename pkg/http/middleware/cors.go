package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

var readOnlyMethods = strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, ", ")

// CORS lets browser dashboards poll the read-only API. An empty origin list disables it.
func CORS(allowOrigins []string) echo.MiddlewareFunc {
	wildcard := slices.Contains(allowOrigins, "*")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if len(allowOrigins) == 0 || origin == "" || (!wildcard && !slices.Contains(allowOrigins, origin)) {
				return next(c)
			}

			h := c.Response().Header()
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", readOnlyMethods)

			// preflight
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
