package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

// AdminHandler serves teacher-only statistics and export endpoints
type AdminHandler struct {
	BaseHandler
	stats  services.StatisticsService
	export services.ExportService
}

func NewAdminHandler(stats services.StatisticsService, export services.ExportService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		stats:       stats,
		export:      export,
	}
}

// GetStatistics handles GET /api/admin/statistics
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	resp, err := h.stats.GetStatistics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportCases handles GET /api/admin/export?format=json|csv|xlsx
func (h *AdminHandler) ExportCases(c *gin.Context) {
	var req services.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	format := c.DefaultQuery("format", "json")
	filename := fmt.Sprintf("cases-%s", time.Now().Format("2006-01-02"))

	h.LogRequest(c, "Exporting cases", "format", format)

	switch format {
	case "json":
		data, err := h.export.ExportJSON(c.Request.Context(), req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename+".json")
		c.Data(http.StatusOK, "application/json", data)

	case "csv":
		data, err := h.export.ExportCSV(c.Request.Context(), req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename+".csv")
		c.Data(http.StatusOK, "text/csv", data)

	case "xlsx":
		data, err := h.export.ExportExcel(c.Request.Context(), req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename+".xlsx")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	default:
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported export format", nil, format)
	}
}
