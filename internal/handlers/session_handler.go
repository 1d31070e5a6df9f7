package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

// SessionHandler serves answer submission and review endpoints
type SessionHandler struct {
	BaseHandler
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
	}
}

// SubmitAnswers handles POST /api/answers. The token must belong to a
// student; the whole sheet is stored or nothing is.
func (h *SessionHandler) SubmitAnswers(c *gin.Context) {
	claims := MustClaims(c)
	if claims == nil || claims.StudentID == 0 {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Only students can submit answers"})
		return
	}

	var req services.SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Answer submission", "case_id", req.CaseID, "answers", len(req.Answers))

	session, err := h.sessions.Submit(c.Request.Context(), claims.StudentID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":         true,
		"session_id": session.ID,
		"session":    session,
	})
}

// ListSessions handles GET /api/answers with optional student_id,
// case_id and session_id filters. A session_id narrows the response to
// that single session, answers included.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	claims := MustClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Not authenticated"})
		return
	}

	if v := c.Query("session_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid session_id", err)
			return
		}
		session, err := h.sessions.GetByID(c.Request.Context(), uint(id), claims)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "sessions": []any{session}, "total": int64(1)})
		return
	}

	var req services.ListSessionsRequest
	if v := c.Query("student_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid student_id", err)
			return
		}
		sid := uint(id)
		req.StudentID = &sid
	}
	if v := c.Query("case_id"); v != "" {
		req.CaseID = &v
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		req.Limit = limit
	}

	resp, err := h.sessions.List(c.Request.Context(), req, claims)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "sessions": resp.Sessions, "total": resp.Total})
}

// GetSession handles GET /api/answers/:id, returning one session with
// its answers
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims := MustClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Not authenticated"})
		return
	}

	sessionID := h.parseUintParam(c, "id")
	if sessionID == 0 {
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), sessionID, claims)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// AttachFeedback handles PUT /api/answers/:id/feedback (teacher only)
func (h *SessionHandler) AttachFeedback(c *gin.Context) {
	answerID := h.parseUintParam(c, "id")
	if answerID == 0 {
		return
	}

	var req services.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Attaching feedback", "answer_id", answerID)

	answer, err := h.sessions.AttachFeedback(c.Request.Context(), answerID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
