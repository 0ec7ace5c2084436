package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// ExportHandler streams tabular exports of payments and students.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Payments godoc
// @Summary Export payments
// @Description Download the filtered payments as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {file} binary
// @Router /payments/export [get]
func (h *ExportHandler) Payments(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.PaymentFilter{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	file, err := h.service.Payments(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

// Students godoc
// @Summary Export students
// @Description Download the filtered student roster as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param search query string false "Name or email search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {file} binary
// @Router /students/export [get]
func (h *ExportHandler) Students(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.UserFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	file, err := h.service.Students(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

func serveExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
