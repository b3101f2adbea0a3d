package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/metrics"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/services/report"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
)

// DigestEchoHandler serves liveness and the read-only digest API.
type DigestEchoHandler struct {
	logger  *xlogger.Logger
	store   domrepo.DigestStore
	limiter *ratelimit.Limiter
	brand   string
}

// NewDigestEchoHandler builds the handler. A nil or disabled limiter leaves the API unlimited.
func NewDigestEchoHandler(logger *xlogger.Logger, store domrepo.DigestStore, limiter *ratelimit.Limiter, brand string) *DigestEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if brand == "" {
		brand = report.DefaultBrand
	}
	return &DigestEchoHandler{
		logger:  logger,
		store:   store,
		limiter: limiter,
		brand:   brand,
	}
}

func (h *DigestEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	e.GET("/health", h.Health)

	var mw []echo.MiddlewareFunc
	if h.limiter.Enabled() {
		mw = append(mw, h.limiter.Middleware())
	}
	g := e.Group("/api", mw...)
	g.GET("/digest/latest", h.Latest)
	g.GET("/state", h.State)
}

func (h *DigestEchoHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, fmt.Sprintf("🚀 %s Stats Bot is running!", h.brand))
}

func (h *DigestEchoHandler) Latest(c echo.Context) error {
	defer observe("digest_latest", time.Now())

	req := &models.DigestRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("digest_latest").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, ok := h.store.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no digest delivered yet"))
	}
	if req.Format == "text" {
		rec.Text = report.StripMarkup(rec.Text)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, rec)
}

func (h *DigestEchoHandler) State(c echo.Context) error {
	defer observe("state", time.Now())

	rec, ok := h.store.Latest()
	return xhttp.SuccessResponse(c, models.NewStateView(rec, ok))
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

var _ xhttp.Handler = (*DigestEchoHandler)(nil)
