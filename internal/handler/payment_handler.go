package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// PaymentHandler serves payment and payment-category endpoints.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param status query string false "Status filter"
// @Param search query string false "Payer or reference search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.PaymentFilter{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	payments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, payments)
}

// Get godoc
// @Summary Get one payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "payment", payment)
}

// Initiate godoc
// @Summary Initiate a payment
// @Description Open a hosted checkout session for one of the caller's bills
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.InitiatePaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transaction/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	res, err := h.service.Initiate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "checkout session created", res)
}

// Verify godoc
// @Summary Verify a payment
// @Description Reconcile a pending payment against the gateway by reference
// @Tags Payments
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /transaction/verify/{reference} [get]
func (h *PaymentHandler) Verify(c *gin.Context) {
	payment, err := h.service.Verify(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "payment verified", payment)
}

// Receipt godoc
// @Summary Download a payment receipt
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	payload, payment, err := h.service.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", payment.PaymentReference)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ListCategories godoc
// @Summary List payment categories
// @Tags Payments
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /payment-category [get]
func (h *PaymentHandler) ListCategories(c *gin.Context) {
	page, pageSize := pageParams(c)
	categories, pagination, err := h.service.ListCategories(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, categories)
}

// GetCategory godoc
// @Summary Get one payment category
// @Tags Payments
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payment-category/{id} [get]
func (h *PaymentHandler) GetCategory(c *gin.Context) {
	category, err := h.service.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "payment category", category)
}

// CreateCategory godoc
// @Summary Create a payment category
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.PaymentCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payment-category [post]
func (h *PaymentHandler) CreateCategory(c *gin.Context) {
	var req service.PaymentCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "payment category created", category)
}

// UpdateCategory godoc
// @Summary Update a payment category
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.PaymentCategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payment-category/{id} [patch]
func (h *PaymentHandler) UpdateCategory(c *gin.Context) {
	var req service.PaymentCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "payment category updated", category)
}

// DeleteCategory godoc
// @Summary Delete a payment category
// @Tags Payments
// @Produce json
// @Param id path string true "Category ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payment-category/{id} [delete]
func (h *PaymentHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
