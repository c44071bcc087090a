package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retrievalworks/bankgraph/pkg/search"
	"github.com/retrievalworks/bankgraph/pkg/server/dto"
	"github.com/retrievalworks/bankgraph/pkg/telemetry"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

// SearchService is the part of the engine the HTTP layer needs.
type SearchService interface {
	Search(ctx context.Context, req *search.Request) (*search.Response, error)
}

// SearchHandler handles search requests
type SearchHandler struct {
	service  SearchService
	recorder *telemetry.EventRecorder // may be nil
	logger   *slog.Logger
}

// NewSearchHandler creates a new search handler. recorder may be nil.
func NewSearchHandler(service SearchService, recorder *telemetry.EventRecorder, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{service: service, recorder: recorder, logger: logger}
}

// Search handles POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	req, err := query.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "search_failed"
		switch {
		case errors.Is(err, types.ErrInvalidSearchType),
			errors.Is(err, types.ErrEmptyQuery),
			errors.Is(err, types.ErrInvalidTopK):
			status = http.StatusBadRequest
			code = "invalid_request"
		case errors.Is(err, search.ErrEmbeddingUnavailable):
			status = http.StatusServiceUnavailable
			code = "embedding_unavailable"
		}
		h.logger.ErrorContext(c.Request.Context(), "search failed",
			"search_type", req.SearchType, "error", err)
		c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	if h.recorder != nil {
		if err := h.recorder.Record(req, resp); err != nil {
			h.logger.Warn("failed to record search event", "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}
