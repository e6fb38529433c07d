// internal/http/handler/status.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"support-chatbot/internal/conversation/orchestrator"
	"support-chatbot/internal/http/dto"
)

type StatusProber interface {
	Status(ctx context.Context) map[string]orchestrator.CapabilityStatus
}

// ReadinessCheck pings one infrastructure dependency.
type ReadinessCheck func(ctx context.Context) error

type StatusHandler struct {
	prober StatusProber
	checks map[string]ReadinessCheck
	now    func() time.Time
}

func NewStatusHandler(prober StatusProber, checks map[string]ReadinessCheck) *StatusHandler {
	if checks == nil {
		checks = map[string]ReadinessCheck{}
	}
	return &StatusHandler{prober: prober, checks: checks, now: time.Now}
}

func (h *StatusHandler) Integrations(c *gin.Context) {
	report := h.prober.Status(c.Request.Context())
	out := make(map[string]string, len(report))
	for name, status := range report {
		out[name] = string(status)
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Integrations: out, CheckedAt: h.now().UTC()})
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 when any infrastructure dependency is unreachable.
// Integration outages do not affect readiness: the pipeline degrades instead.
func (h *StatusHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
