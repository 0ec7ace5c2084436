package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// AdminHandler serves admin account management endpoints.
type AdminHandler struct {
	service *service.UserService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc *service.UserService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// List godoc
// @Summary List admin accounts
// @Tags Admins
// @Produce json
// @Param search query string false "Name or email search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.UserFilter{
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	admins, pagination, err := h.service.ListAdmins(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, admins)
}

// Create godoc
// @Summary Create an admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body models.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	admin, err := h.service.CreateAdmin(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "admin created", admin)
}

// Update godoc
// @Summary Update an admin account
// @Description Patch profile, permissions or active flag. Permission changes close the target's sessions.
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body models.UpdateAdminRequest true "Admin patch"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admins/{id} [patch]
func (h *AdminHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin patch"))
		return
	}

	admin, err := h.service.UpdateAdmin(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "admin updated", admin)
}

// Deactivate godoc
// @Summary Deactivate an admin account
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admins/{id} [delete]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeactivateAdmin(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
