package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything the checker can probe for connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker reports liveness and readiness for the engine, probing the
// database and snapshot cache it depends on.
type Checker struct {
	db        Pinger
	cache     Pinger
	version   string
	startTime time.Time
	ready     atomic.Bool
}

func NewChecker(db Pinger, cache Pinger, version string) *Checker {
	return &Checker{
		db:        db,
		cache:     cache,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady flips the readiness gate once startup has finished.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

type Report struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Checks     map[string]CheckResult `json:"checks"`
	ReportedAt time.Time              `json:"reported_at"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

func (c *Checker) Health(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	report := &Report{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]CheckResult),
		ReportedAt: time.Now().UTC(),
	}

	report.Checks["database"] = probe(reqCtx, c.db)
	if c.cache != nil {
		report.Checks["cache"] = probe(reqCtx, c.cache)
	}

	httpStatus := http.StatusOK
	for _, check := range report.Checks {
		if check.Status != "healthy" {
			report.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	return ctx.JSON(httpStatus, report)
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if p == nil {
		return CheckResult{Status: "unhealthy", Message: "not configured"}
	}

	start := time.Now()
	if err := p.PingContext(ctx); err != nil {
		return CheckResult{Status: "unhealthy", Message: err.Error()}
	}
	return CheckResult{Status: "healthy", Latency: time.Since(start).String()}
}

func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
