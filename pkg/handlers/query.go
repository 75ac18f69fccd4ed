package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/logging"
	"github.com/rifyops/rify-engine/pkg/monitoring"
)

// QueryRequest for POST /api/query. The query text is opaque and forwarded
// to the monitoring tool unchanged.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryHandler proxies opaque queries to the external monitoring tool.
type QueryHandler struct {
	executor monitoring.Executor
	logger   *zap.Logger
}

// NewQueryHandler creates a new query proxy handler.
func NewQueryHandler(executor monitoring.Executor, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		executor: executor,
		logger:   logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Query)
}

// Query handles POST /api/query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Query == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "query is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.executor.Query(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("Query proxy failed",
			zap.String("query", logging.TruncateQuery(req.Query)),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadGateway, "query_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(result); err != nil {
		h.logger.Error("Failed to write query response", zap.Error(err))
	}
}
