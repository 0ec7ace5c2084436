package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// DashboardHandler serves cached dashboard aggregates.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Student godoc
// @Summary Get the caller's dashboard
// @Description Billing and payment summary for the authenticated student
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/stats/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.StudentDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "student dashboard", dashboard)
}

// Admin godoc
// @Summary Get the portal-wide dashboard
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/stats/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.service.AdminDashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "admin dashboard", dashboard)
}
