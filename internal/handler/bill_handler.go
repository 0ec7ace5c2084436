package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// BillHandler serves bill endpoints.
type BillHandler struct {
	service *service.BillService
}

// NewBillHandler creates a new handler.
func NewBillHandler(svc *service.BillService) *BillHandler {
	return &BillHandler{service: svc}
}

// List godoc
// @Summary List bills
// @Tags Bills
// @Produce json
// @Param search query string false "Name search"
// @Param billType query string false "Bill type filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.BillFilter{
		BillTypeID: c.Query("billType"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	bills, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, bills)
}

// Get godoc
// @Summary Get one bill
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bills/{id} [get]
func (h *BillHandler) Get(c *gin.Context) {
	bill, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "bill", bill)
}

// Create godoc
// @Summary Create a bill
// @Tags Bills
// @Accept json
// @Produce json
// @Param payload body service.BillRequest true "Bill payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bills [post]
func (h *BillHandler) Create(c *gin.Context) {
	var req service.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bill payload"))
		return
	}

	bill, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "bill created", bill)
}

// Update godoc
// @Summary Update a bill
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param payload body service.BillRequest true "Bill payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bills/{id} [patch]
func (h *BillHandler) Update(c *gin.Context) {
	var req service.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bill payload"))
		return
	}

	bill, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "bill updated", bill)
}

// Delete godoc
// @Summary Delete a bill
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bills/{id} [delete]
func (h *BillHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
