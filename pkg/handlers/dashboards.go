package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/models"
	"github.com/rifyops/rify-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// DashboardListResponse for GET /api/dashboards
type DashboardListResponse struct {
	Dashboards []*models.Dashboard `json:"dashboards"`
	Total      int                 `json:"total"`
}

// CreateDashboardRequest for POST /api/dashboards
type CreateDashboardRequest struct {
	ID              string   `json:"id,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
	TimeRange       string   `json:"time_range,omitempty"`
	RefreshInterval int      `json:"refresh_interval,omitempty"`
	Variables       []any    `json:"variables,omitempty"`
	Panels          []any    `json:"panels,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	IsTemplate      bool     `json:"is_template,omitempty"`
	IsPublic        bool     `json:"is_public,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// DashboardHandler handles dashboard HTTP requests.
type DashboardHandler struct {
	dashboardService services.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers the dashboard handler's routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboards", h.List)
	mux.HandleFunc("POST /api/dashboards", h.Create)
	mux.HandleFunc("GET /api/dashboards/{id}", h.Get)
	mux.HandleFunc("PUT /api/dashboards/{id}", h.Update)
	mux.HandleFunc("DELETE /api/dashboards/{id}", h.Delete)
}

// List handles GET /api/dashboards
func (h *DashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	dashboards, err := h.dashboardService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list dashboards", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_dashboards_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DashboardListResponse{
		Dashboards: dashboards,
		Total:      len(dashboards),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/dashboards
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	draft := &models.Dashboard{
		ID:              req.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		TimeRange:       req.TimeRange,
		RefreshInterval: req.RefreshInterval,
		Variables:       req.Variables,
		Panels:          req.Panels,
		Tags:            req.Tags,
		IsTemplate:      req.IsTemplate,
		IsPublic:        req.IsPublic,
	}

	dashboard, err := h.dashboardService.Create(r.Context(), draft)
	if err != nil {
		h.logger.Error("Failed to create dashboard",
			zap.String("title", req.Title),
			zap.Error(err))

		if req.Title == "" {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		if err := ErrorResponse(w, statusForError(err), "create_dashboard_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: dashboard}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/dashboards/{id}
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	dashboard, err := h.dashboardService.Get(r.Context(), id)
	if err != nil {
		if statusForError(err) != http.StatusNotFound {
			h.logger.Error("Failed to get dashboard",
				zap.String("dashboard_id", id),
				zap.Error(err))
		}
		if err := ErrorResponse(w, statusForError(err), "dashboard_not_found", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: dashboard}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/dashboards/{id}
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update models.DashboardUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	dashboard, err := h.dashboardService.Update(r.Context(), id, &update)
	if err != nil {
		h.logger.Error("Failed to update dashboard",
			zap.String("dashboard_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "update_dashboard_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: dashboard}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/dashboards/{id}
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.dashboardService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete dashboard",
			zap.String("dashboard_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "delete_dashboard_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
