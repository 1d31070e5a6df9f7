package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

// CaseHandler serves case generation and catalog endpoints
type CaseHandler struct {
	BaseHandler
	generation services.GenerationService
	cases      services.CaseService
}

func NewCaseHandler(generation services.GenerationService, cases services.CaseService, logger utils.Logger) *CaseHandler {
	return &CaseHandler{
		BaseHandler: NewBaseHandler(logger),
		generation:  generation,
		cases:       cases,
	}
}

// Simulate handles POST /api/simulate: either generates a brand new
// case or analyzes submitted free text
func (h *CaseHandler) Simulate(c *gin.Context) {
	var req services.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Simulation requested",
		"generate", req.Generate,
		"theme", req.Theme,
		"difficulty", req.Difficulty)

	var createdBy *uint
	if claims := MustClaims(c); claims != nil && claims.StudentID != 0 {
		id := claims.StudentID
		createdBy = &id
	}

	resp, err := h.generation.Simulate(c.Request.Context(), req, createdBy)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SaveCase handles POST /api/cases for client-supplied payloads
func (h *CaseHandler) SaveCase(c *gin.Context) {
	var payload models.CasePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid case payload", err)
		return
	}

	saved, err := h.cases.Save(c.Request.Context(), &payload, payload.Eje, payload.Nivel, nil)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "saved": saved})
}

// ListCases handles GET /api/cases with theme/difficulty/title filters
func (h *CaseHandler) ListCases(c *gin.Context) {
	var req services.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	resp, err := h.cases.List(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "cases": resp.Cases, "total": resp.Total})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	caseID := h.parseStringParam(c, "id")
	if caseID == "" {
		return
	}

	resp, err := h.cases.GetByID(c.Request.Context(), caseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateCase handles PUT /api/cases/:id for rating, tags and notes
func (h *CaseHandler) UpdateCase(c *gin.Context) {
	caseID := h.parseStringParam(c, "id")
	if caseID == "" {
		return
	}

	var req services.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.cases.Update(c.Request.Context(), caseID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteCase handles DELETE /api/cases/:id (soft delete)
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	caseID := h.parseStringParam(c, "id")
	if caseID == "" {
		return
	}

	h.LogRequest(c, "Deleting case", "case_id", caseID)

	if err := h.cases.Delete(c.Request.Context(), caseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
