package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

// AuthHandler serves login and registration endpoints
type AuthHandler struct {
	BaseHandler
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// StudentLogin handles POST /api/auth/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.auth.StudentLogin(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TeacherLogin handles POST /api/auth/teacher-login against the
// server-side shared credential
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.auth.TeacherLogin(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterStudent handles POST /api/auth/register
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req services.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	student, err := h.auth.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}
