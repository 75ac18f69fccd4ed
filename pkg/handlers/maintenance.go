package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// PruneValuesRequest for POST /api/maintenance/prune-variable-values.
// A zero or missing retention_days falls back to the configured default.
type PruneValuesRequest struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// PruneResponse reports the number of rows removed by a prune job.
type PruneResponse struct {
	Removed int64 `json:"removed"`
}

// ============================================================================
// Handler
// ============================================================================

// MaintenanceHandler exposes the administratively triggered cleanup jobs.
type MaintenanceHandler struct {
	maintenanceService services.MaintenanceService
	retentionDays      int
	logger             *zap.Logger
}

// NewMaintenanceHandler creates a new maintenance handler. retentionDays is
// the configured default window for value history pruning.
func NewMaintenanceHandler(
	maintenanceService services.MaintenanceService,
	retentionDays int,
	logger *zap.Logger,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		retentionDays:      retentionDays,
		logger:             logger,
	}
}

// RegisterRoutes registers the maintenance handler's routes on the given mux.
func (h *MaintenanceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/maintenance/dedup-dashboards", h.DedupDashboards)
	mux.HandleFunc("POST /api/maintenance/prune-orphaned-variables", h.PruneOrphanedVariables)
	mux.HandleFunc("POST /api/maintenance/prune-variable-values", h.PruneVariableValues)
}

// DedupDashboards handles POST /api/maintenance/dedup-dashboards
func (h *MaintenanceHandler) DedupDashboards(w http.ResponseWriter, r *http.Request) {
	report, err := h.maintenanceService.DeduplicateDashboards(r.Context())
	if err != nil {
		h.logger.Error("Failed to deduplicate dashboards", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "dedup_dashboards_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PruneOrphanedVariables handles POST /api/maintenance/prune-orphaned-variables
func (h *MaintenanceHandler) PruneOrphanedVariables(w http.ResponseWriter, r *http.Request) {
	removed, err := h.maintenanceService.PruneOrphanedVariables(r.Context())
	if err != nil {
		h.logger.Error("Failed to prune orphaned variables", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "prune_orphaned_variables_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: PruneResponse{Removed: removed}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PruneVariableValues handles POST /api/maintenance/prune-variable-values
func (h *MaintenanceHandler) PruneVariableValues(w http.ResponseWriter, r *http.Request) {
	req := PruneValuesRequest{RetentionDays: h.retentionDays}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}
	if req.RetentionDays <= 0 {
		req.RetentionDays = h.retentionDays
	}

	removed, err := h.maintenanceService.PruneOldVariableValues(r.Context(), req.RetentionDays)
	if err != nil {
		h.logger.Error("Failed to prune variable values", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "prune_variable_values_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: PruneResponse{Removed: removed}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
