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

// TemplateListResponse for GET /api/dashboard-templates
type TemplateListResponse struct {
	Templates []*models.DashboardTemplate `json:"templates"`
	Total     int                         `json:"total"`
}

// CreateTemplateRequest for POST /api/dashboard-templates
type CreateTemplateRequest struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Panels      []any    `json:"panels,omitempty"`
	Variables   []any    `json:"variables,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsBuiltin   bool     `json:"is_builtin,omitempty"`
	Version     string   `json:"version,omitempty"`
}

// SyncTemplatesRequest for POST /api/dashboard-templates/sync
type SyncTemplatesRequest struct {
	Templates []CreateTemplateRequest `json:"templates"`
}

// SyncTemplatesResponse for POST /api/dashboard-templates/sync
type SyncTemplatesResponse struct {
	Synced    []*models.DashboardTemplate `json:"synced"`
	Requested int                         `json:"requested"`
	Skipped   int                         `json:"skipped"`
}

// ============================================================================
// Handler
// ============================================================================

// TemplateHandler handles dashboard template HTTP requests.
type TemplateHandler struct {
	templateService services.TemplateService
	logger          *zap.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(templateService services.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// RegisterRoutes registers the template handler's routes on the given mux.
func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard-templates", h.List)
	mux.HandleFunc("POST /api/dashboard-templates", h.Create)
	mux.HandleFunc("POST /api/dashboard-templates/sync", h.Sync)
	mux.HandleFunc("GET /api/dashboard-templates/{id}", h.Get)
	mux.HandleFunc("PUT /api/dashboard-templates/{id}", h.Update)
	mux.HandleFunc("DELETE /api/dashboard-templates/{id}", h.Delete)
}

// List handles GET /api/dashboard-templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	templates, err := h.templateService.List(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("Failed to list templates", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_templates_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := TemplateListResponse{
		Templates: templates,
		Total:     len(templates),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/dashboard-templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	template, err := h.templateService.Create(r.Context(), req.toModel())
	if err != nil {
		h.logger.Error("Failed to create template",
			zap.String("name", req.Name),
			zap.Error(err))

		if req.Name == "" {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		if err := ErrorResponse(w, statusForError(err), "create_template_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Sync handles POST /api/dashboard-templates/sync
func (h *TemplateHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncTemplatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	drafts := make([]*models.DashboardTemplate, 0, len(req.Templates))
	for _, t := range req.Templates {
		drafts = append(drafts, t.toModel())
	}

	synced := h.templateService.BatchSync(r.Context(), drafts)

	response := SyncTemplatesResponse{
		Synced:    synced,
		Requested: len(drafts),
		Skipped:   len(drafts) - len(synced),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/dashboard-templates/{id}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	template, err := h.templateService.Get(r.Context(), id)
	if err != nil {
		if statusForError(err) != http.StatusNotFound {
			h.logger.Error("Failed to get template",
				zap.String("template_id", id),
				zap.Error(err))
		}
		if err := ErrorResponse(w, statusForError(err), "template_not_found", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/dashboard-templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update models.TemplateUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	template, err := h.templateService.Update(r.Context(), id, &update)
	if err != nil {
		h.logger.Error("Failed to update template",
			zap.String("template_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "update_template_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/dashboard-templates/{id}
// Templates are soft-deleted; the row stays and can be reactivated.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.templateService.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete template",
			zap.String("template_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "delete_template_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deactivated"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (req *CreateTemplateRequest) toModel() *models.DashboardTemplate {
	return &models.DashboardTemplate{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Panels:      req.Panels,
		Variables:   req.Variables,
		Tags:        req.Tags,
		IsBuiltin:   req.IsBuiltin,
		Version:     req.Version,
	}
}
