package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/service"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// MetricsHandler exposes Prometheus scraping and an operator snapshot.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler creates a new handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Prometheus serves the Prometheus exposition endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary System metrics snapshot
// @Description Aggregated request, cache and database figures for operators
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats/system [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.OK(c, "system metrics", h.service.Snapshot())
}
