package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

// CollectionHandler serves collection management endpoints
type CollectionHandler struct {
	BaseHandler
	collections services.CollectionService
}

func NewCollectionHandler(collections services.CollectionService, logger utils.Logger) *CollectionHandler {
	return &CollectionHandler{
		BaseHandler: NewBaseHandler(logger),
		collections: collections,
	}
}

// CreateCollection handles POST /api/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req services.CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	collection, err := h.collections.Create(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// ListCollections handles GET /api/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.collections.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "collections": resp.Collections, "total": resp.Total})
}

// GetCollection handles GET /api/collections/:id (with member cases)
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}

	collection, err := h.collections.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

// UpdateCollection handles PUT /api/collections/:id
func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	collection, err := h.collections.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

// DeleteCollection handles DELETE /api/collections/:id
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.collections.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddCase handles POST /api/collections/:id/cases/:case_id
func (h *CollectionHandler) AddCase(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}
	caseID := h.parseStringParam(c, "case_id")
	if caseID == "" {
		return
	}

	collection, err := h.collections.AddCase(c.Request.Context(), id, caseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

// RemoveCase handles DELETE /api/collections/:id/cases/:case_id
func (h *CollectionHandler) RemoveCase(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}
	caseID := h.parseStringParam(c, "case_id")
	if caseID == "" {
		return
	}

	if err := h.collections.RemoveCase(c.Request.Context(), id, caseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
