package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
	"github.com/noah-isme/fms-portal-api/pkg/storage"
)

// FinancialAidHandler serves aid types, discounts, applications and the
// signed document downloads backing them.
type FinancialAidHandler struct {
	service *service.FinancialAidService
	files   *storage.LocalStorage
}

// NewFinancialAidHandler creates a new handler.
func NewFinancialAidHandler(svc *service.FinancialAidService, files *storage.LocalStorage) *FinancialAidHandler {
	return &FinancialAidHandler{service: svc, files: files}
}

// ListTypes godoc
// @Summary List financial-aid types
// @Tags Financial aid
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /financial-aid-types [get]
func (h *FinancialAidHandler) ListTypes(c *gin.Context) {
	page, pageSize := pageParams(c)
	aidTypes, pagination, err := h.service.ListTypes(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, aidTypes)
}

// GetType godoc
// @Summary Get one financial-aid type
// @Tags Financial aid
// @Produce json
// @Param id path string true "Aid type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-types/{id} [get]
func (h *FinancialAidHandler) GetType(c *gin.Context) {
	aidType, err := h.service.GetType(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "aid type", aidType)
}

// CreateType godoc
// @Summary Create a financial-aid type
// @Tags Financial aid
// @Accept json
// @Produce json
// @Param payload body service.AidTypeRequest true "Aid type payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /financial-aid-types [post]
func (h *FinancialAidHandler) CreateType(c *gin.Context) {
	var req service.AidTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid aid type payload"))
		return
	}

	aidType, err := h.service.CreateType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "aid type created", aidType)
}

// UpdateType godoc
// @Summary Update a financial-aid type
// @Tags Financial aid
// @Accept json
// @Produce json
// @Param id path string true "Aid type ID"
// @Param payload body service.AidTypeRequest true "Aid type payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-types/{id} [patch]
func (h *FinancialAidHandler) UpdateType(c *gin.Context) {
	var req service.AidTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid aid type payload"))
		return
	}

	aidType, err := h.service.UpdateType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "aid type updated", aidType)
}

// DeleteType godoc
// @Summary Delete a financial-aid type
// @Tags Financial aid
// @Produce json
// @Param id path string true "Aid type ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-types/{id} [delete]
func (h *FinancialAidHandler) DeleteType(c *gin.Context) {
	if err := h.service.DeleteType(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDiscounts godoc
// @Summary List financial-aid discounts
// @Tags Financial aid
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /financial-aid-discounts [get]
func (h *FinancialAidHandler) ListDiscounts(c *gin.Context) {
	page, pageSize := pageParams(c)
	discounts, pagination, err := h.service.ListDiscounts(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, discounts)
}

// GetDiscount godoc
// @Summary Get one financial-aid discount
// @Tags Financial aid
// @Produce json
// @Param id path string true "Discount ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-discounts/{id} [get]
func (h *FinancialAidHandler) GetDiscount(c *gin.Context) {
	discount, err := h.service.GetDiscount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "discount", discount)
}

// CreateDiscount godoc
// @Summary Create a financial-aid discount
// @Tags Financial aid
// @Accept json
// @Produce json
// @Param payload body service.AidDiscountRequest true "Discount payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /financial-aid-discounts [post]
func (h *FinancialAidHandler) CreateDiscount(c *gin.Context) {
	var req service.AidDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid discount payload"))
		return
	}

	discount, err := h.service.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "discount created", discount)
}

// UpdateDiscount godoc
// @Summary Update a financial-aid discount
// @Tags Financial aid
// @Accept json
// @Produce json
// @Param id path string true "Discount ID"
// @Param payload body service.AidDiscountRequest true "Discount payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-discounts/{id} [patch]
func (h *FinancialAidHandler) UpdateDiscount(c *gin.Context) {
	var req service.AidDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid discount payload"))
		return
	}

	discount, err := h.service.UpdateDiscount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "discount updated", discount)
}

// DeleteDiscount godoc
// @Summary Delete a financial-aid discount
// @Tags Financial aid
// @Produce json
// @Param id path string true "Discount ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-discounts/{id} [delete]
func (h *FinancialAidHandler) DeleteDiscount(c *gin.Context) {
	if err := h.service.DeleteDiscount(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListApplications godoc
// @Summary List financial-aid applications
// @Tags Financial aid
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Page
// @Router /financial-aid-applications [get]
func (h *FinancialAidHandler) ListApplications(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.AidApplicationFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	applications, pagination, err := h.service.ListApplications(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, pagination.Page, pagination.Count, pagination.Total, applications)
}

// GetApplication godoc
// @Summary Get one financial-aid application
// @Tags Financial aid
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /financial-aid-applications/{id} [get]
func (h *FinancialAidHandler) GetApplication(c *gin.Context) {
	application, err := h.service.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "application", application)
}

// Apply godoc
// @Summary Apply for financial aid
// @Description File an application with its supporting documents as multipart form data
// @Tags Financial aid
// @Accept multipart/form-data
// @Produce json
// @Param type formData string true "Aid type ID"
// @Param household_income formData int true "Household income in minor units"
// @Param has_received_previous_financial_aid formData bool false "Received aid before"
// @Param bank_statement formData file true "Bank statement"
// @Param cover_letter formData file true "Cover letter"
// @Param letter_of_recommendation formData file false "Letter of recommendation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /financial-aid-applications [post]
func (h *FinancialAidHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ApplyRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	documents, closers, err := h.collectDocuments(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		for _, closer := range closers {
			closer.Close() //nolint:errcheck
		}
	}()

	application, err := h.service.Apply(c.Request.Context(), claims.UserID, req, documents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "application submitted", application)
}

// Decide godoc
// @Summary Approve or reject an application
// @Tags Financial aid
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body service.AidDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /financial-aid-applications/{id}/decision [patch]
func (h *FinancialAidHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AidDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	application, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "decision recorded", application)
}

// MyAid godoc
// @Summary Get the caller's approved aid
// @Tags Financial aid
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/financial-aid [get]
func (h *FinancialAidHandler) MyAid(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.service.MyAid(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "financial aid", info)
}

// Document godoc
// @Summary Download a supporting document
// @Description Serve a stored document through its signed token
// @Tags Financial aid
// @Produce application/octet-stream
// @Param token path string true "Signed document token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/{token} [get]
func (h *FinancialAidHandler) Document(c *gin.Context) {
	relPath, err := h.service.SignedDocumentURL(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(h.files.Path(relPath))
}

func (h *FinancialAidHandler) collectDocuments(c *gin.Context) ([]service.ApplicationDocument, []multipart.File, error) {
	fields := []struct {
		form string
		kind string
	}{
		{"bank_statement", service.DocBankStatement},
		{"cover_letter", service.DocCoverLetter},
		{"letter_of_recommendation", service.DocRecommendationLetter},
	}

	var documents []service.ApplicationDocument
	var closers []multipart.File
	for _, field := range fields {
		header, err := c.FormFile(field.form)
		if err != nil {
			continue
		}
		file, err := header.Open()
		if err != nil {
			for _, closer := range closers {
				closer.Close() //nolint:errcheck
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
		}
		closers = append(closers, file)
		documents = append(documents, service.ApplicationDocument{
			Kind:     field.kind,
			Filename: header.Filename,
			Content:  file,
		})
	}
	return documents, closers, nil
}
