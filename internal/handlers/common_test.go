package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
	"github.com/simts-edu/casesim-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", services.ErrCaseNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("context: %w", services.ErrSessionNotFound), http.StatusNotFound},
		{"unauthorized", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"validation", services.ErrQuestionMismatch, http.StatusBadRequest},
		{"conflict", services.ErrUsernameTaken, http.StatusConflict},
		{"timeout", services.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{"unknown", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}

	base := NewBaseHandler(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			base.handleServiceError(c, tt.err)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

func TestHandleServiceError_StructValidation(t *testing.T) {
	v := validator.New()
	err := v.ValidateStruct(struct {
		Theme string `json:"theme" validate:"required,case_theme"`
	}{Theme: "Astrofísica"})
	require.Error(t, err)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	base := NewBaseHandler(testLogger())
	base.handleServiceError(c, err)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "theme")
}

func issueTestToken(t *testing.T, auth services.AuthService) string {
	t.Helper()
	resp, err := auth.TeacherLogin(context.Background(), services.LoginRequest{Username: "academicxs", Password: "simulador"})
	require.NoError(t, err)
	return resp.Token
}

func testAuthService() services.AuthService {
	return services.NewAuthService(nil, services.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		TeacherUsername: "academicxs",
		TeacherPassword: "simulador",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), validator.New())
}

func TestAuthMiddleware(t *testing.T) {
	auth := testAuthService()

	router := gin.New()
	router.GET("/protected", AuthMiddleware(auth), func(c *gin.Context) {
		claims := MustClaims(c)
		require.NotNil(t, claims)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role})
	})

	t.Run("missing token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, auth))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestRequireRole(t *testing.T) {
	auth := testAuthService()

	router := gin.New()
	router.GET("/teacher-only", AuthMiddleware(auth), RequireRole(models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/teacher-only", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, auth))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	router := gin.New()
	handler := NewHealthHandler(nil, true, testLogger())
	router.GET("/api/health", handler.Check)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"degraded"`)
	assert.Contains(t, recorder.Body.String(), `"llm_configured":true`)
}
