// internal/handler/archive_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hp82240-service/internal/repository"
	"hp82240-service/internal/utils"
)

// ArchiveHandler serves the archived print sessions
type ArchiveHandler struct {
	repo   repository.PaperRepository
	logger *utils.ServiceLogger
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(repo repository.PaperRepository, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		repo:   repo,
		logger: utils.NewServiceLogger(logger, "archive-handler"),
	}
}

// RegisterRoutes registers archive routes
func (h *ArchiveHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/archive/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.GET("/:id/lines", h.ListLines)
	}
}

// ListSessions lists archived print sessions
// @Summary List print sessions
// @Tags Archive
// @Produce json
// @Param source query string false "Filter by input source"
// @Param start_date query string false "Sessions started at or after (RFC3339)"
// @Param end_date query string false "Sessions started at or before (RFC3339)"
// @Param limit query int false "Maximum sessions" default(100)
// @Success 200 {object} utils.APIResponse{data=object{count=int,sessions=[]model.PrintSession}} "Sessions retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /archive/sessions [get]
func (h *ArchiveHandler) ListSessions(c *gin.Context) {
	filter := &repository.SessionFilter{}

	if source := c.Query("source"); source != "" {
		filter.Source = &source
	}
	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
		filter.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		filter.EndDate = &t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	sessions, err := h.repo.ListSessions(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list print sessions", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved", gin.H{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// GetSession returns one print session
// @Summary Get print session
// @Tags Archive
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintSession} "Session retrieved"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /archive/sessions/{id} [get]
func (h *ArchiveHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.repo.GetSession(c.Request.Context(), id)
	if err != nil {
		h.writeRepoError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session retrieved", session)
}

// ListLines returns the lines of a print session
// @Summary List session lines
// @Tags Archive
// @Produce json
// @Param id path string true "Session ID"
// @Param after query int false "Only lines numbered after this one"
// @Param q query string false "Text search"
// @Param limit query int false "Maximum lines" default(100)
// @Success 200 {object} utils.APIResponse{data=object{count=int,lines=[]model.ArchivedLine}} "Lines retrieved"
// @Failure 404 {object} utils.APIResponse "Session not found"
// @Router /archive/sessions/{id}/lines [get]
func (h *ArchiveHandler) ListLines(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	filter := &repository.LineFilter{}
	if after := c.Query("after"); after != "" {
		n, err := strconv.Atoi(after)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid after parameter", err)
			return
		}
		filter.AfterLine = n
	}
	if q := c.Query("q"); q != "" {
		filter.TextSearch = &q
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	if _, err := h.repo.GetSession(c.Request.Context(), id); err != nil {
		h.writeRepoError(c, err)
		return
	}

	lines, err := h.repo.ListLines(c.Request.Context(), id, filter)
	if err != nil {
		h.writeRepoError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Lines retrieved", gin.H{
		"count": len(lines),
		"lines": lines,
	})
}

func (h *ArchiveHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid session ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ArchiveHandler) writeRepoError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrSessionNotFound) {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}
	h.logger.Error("Archive query failed", zap.Error(err))
	utils.ErrorResponse(c, http.StatusInternalServerError, "Archive query failed", err)
}
