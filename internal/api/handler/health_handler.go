package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthHandler reports liveness and dependency readiness.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler probes every non-nil dependency in deps.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{deps: active}
}

// Health pings the dependencies concurrently.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	failures := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			failures[i] = h.deps[name].Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status, overall := http.StatusOK, "ok"
	checks := make(map[string]string, len(names))
	for i, name := range names {
		checks[name] = "ok"
		if failures[i] != nil {
			_ = c.Error(failures[i])
			checks[name] = "unavailable"
			status, overall = http.StatusServiceUnavailable, "degraded"
		}
	}

	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
