package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// ProgrammeHandler serves academic programme endpoints.
type ProgrammeHandler struct {
	service *service.ProgrammeService
}

// NewProgrammeHandler creates a new handler.
func NewProgrammeHandler(svc *service.ProgrammeService) *ProgrammeHandler {
	return &ProgrammeHandler{service: svc}
}

// List godoc
// @Summary List programmes
// @Tags Programmes
// @Produce json
// @Param search query string false "Name search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /programmes [get]
func (h *ProgrammeHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	programmes, pagination, err := h.service.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, programmes)
}

// Get godoc
// @Summary Get one programme
// @Tags Programmes
// @Produce json
// @Param id path string true "Programme ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmes/{id} [get]
func (h *ProgrammeHandler) Get(c *gin.Context) {
	programme, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "programme", programme)
}

// Create godoc
// @Summary Create a programme
// @Tags Programmes
// @Accept json
// @Produce json
// @Param payload body service.ProgrammeRequest true "Programme payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programmes [post]
func (h *ProgrammeHandler) Create(c *gin.Context) {
	var req service.ProgrammeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid programme payload"))
		return
	}

	programme, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "programme created", programme)
}

// Update godoc
// @Summary Update a programme
// @Tags Programmes
// @Accept json
// @Produce json
// @Param id path string true "Programme ID"
// @Param payload body service.ProgrammeRequest true "Programme payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmes/{id} [patch]
func (h *ProgrammeHandler) Update(c *gin.Context) {
	var req service.ProgrammeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid programme payload"))
		return
	}

	programme, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "programme updated", programme)
}

// Delete godoc
// @Summary Delete a programme
// @Tags Programmes
// @Produce json
// @Param id path string true "Programme ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programmes/{id} [delete]
func (h *ProgrammeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
