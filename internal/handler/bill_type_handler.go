package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// BillTypeHandler serves bill category endpoints.
type BillTypeHandler struct {
	service *service.BillTypeService
}

// NewBillTypeHandler creates a new handler.
func NewBillTypeHandler(svc *service.BillTypeService) *BillTypeHandler {
	return &BillTypeHandler{service: svc}
}

// List godoc
// @Summary List bill types
// @Tags Bill types
// @Produce json
// @Param search query string false "Name search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /bill-types [get]
func (h *BillTypeHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	billTypes, pagination, err := h.service.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, billTypes)
}

// Get godoc
// @Summary Get one bill type
// @Tags Bill types
// @Produce json
// @Param id path string true "Bill type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bill-types/{id} [get]
func (h *BillTypeHandler) Get(c *gin.Context) {
	billType, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "bill type", billType)
}

// Create godoc
// @Summary Create a bill type
// @Tags Bill types
// @Accept json
// @Produce json
// @Param payload body service.BillTypeRequest true "Bill type payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bill-types [post]
func (h *BillTypeHandler) Create(c *gin.Context) {
	var req service.BillTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bill type payload"))
		return
	}

	billType, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "bill type created", billType)
}

// Update godoc
// @Summary Update a bill type
// @Tags Bill types
// @Accept json
// @Produce json
// @Param id path string true "Bill type ID"
// @Param payload body service.BillTypeRequest true "Bill type payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bill-types/{id} [patch]
func (h *BillTypeHandler) Update(c *gin.Context) {
	var req service.BillTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bill type payload"))
		return
	}

	billType, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "bill type updated", billType)
}

// Delete godoc
// @Summary Delete a bill type
// @Tags Bill types
// @Produce json
// @Param id path string true "Bill type ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bill-types/{id} [delete]
func (h *BillTypeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
