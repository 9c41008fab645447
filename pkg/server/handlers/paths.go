package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/pathfinder"
	"github.com/soundprediction/pathfinder/pkg/server/dto"
)

// PathsHandler handles path search requests
type PathsHandler struct {
	finder         pathfinder.PathFinder
	defaultMaxHops int
	logger         *slog.Logger
}

// NewPathsHandler creates a new paths handler. defaultMaxHops is used when a
// request leaves max_hops unset.
func NewPathsHandler(f pathfinder.PathFinder, defaultMaxHops int, logger *slog.Logger) *PathsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PathsHandler{
		finder:         f,
		defaultMaxHops: defaultMaxHops,
		logger:         logger,
	}
}

// FindPath handles POST /api/v1/paths
func (h *PathsHandler) FindPath(c *gin.Context) {
	var req dto.FindPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, err.Error())
		return
	}
	if h.finder == nil {
		writeError(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "pathfinder client not initialized")
		return
	}

	maxHops := req.MaxHops
	if maxHops == 0 {
		maxHops = h.defaultMaxHops
	}

	res, err := h.finder.FindPath(c.Request.Context(), pathfinder.Request{
		Source:    req.Source,
		Target:    req.Target,
		MaxHops:   maxHops,
		SessionID: req.SessionID,
	})
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(c.Request.Context(), "path search failed",
				"source", req.Source, "target", req.Target, "error", err)
		}
		writeError(c, status, code, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.NewFindPathResponse(res))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pathfinder.ErrInvalidHopBudget), errors.Is(err, pathfinder.ErrEmptyEntity):
		return http.StatusBadRequest, dto.ErrCodeInvalidRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, dto.ErrCodeCancelled
	default:
		return http.StatusInternalServerError, dto.ErrCodeInternal
	}
}

// writeError writes an error response as JSON
func writeError(c *gin.Context, status int, errCode, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:   errCode,
		Message: message,
		Code:    status,
	})
}
