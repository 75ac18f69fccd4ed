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

// VariableListResponse for GET /api/variables
type VariableListResponse struct {
	Variables []*models.Variable `json:"variables"`
	Total     int                `json:"total"`
}

// CreateVariableRequest for POST /api/variables
type CreateVariableRequest struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Label       string  `json:"label,omitempty"`
	Type        string  `json:"type,omitempty"`
	Query       string  `json:"query,omitempty"`
	Options     []any   `json:"options,omitempty"`
	Value       any     `json:"value,omitempty"`
	Multi       bool    `json:"multi,omitempty"`
	Description string  `json:"description,omitempty"`
	Refresh     string  `json:"refresh,omitempty"`
	Sort        string  `json:"sort,omitempty"`
	IncludeAll  bool    `json:"include_all,omitempty"`
	AllValue    string  `json:"all_value,omitempty"`
	Regex       string  `json:"regex,omitempty"`
	Hide        string  `json:"hide,omitempty"`
	DashboardID *string `json:"dashboard_id,omitempty"`
	TemplateID  *string `json:"template_id,omitempty"`
}

// RecordVariableValueRequest for POST /api/variable-values
type RecordVariableValueRequest struct {
	VariableName string  `json:"variable_name"`
	Value        any     `json:"value"`
	DashboardID  *string `json:"dashboard_id,omitempty"`
	SessionID    string  `json:"session_id,omitempty"`
}

// VariableValueListResponse for GET /api/variable-values
type VariableValueListResponse struct {
	Values []*models.VariableValue `json:"values"`
	Total  int                     `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// VariableHandler handles variable and variable value history HTTP requests.
type VariableHandler struct {
	variableService services.VariableService
	valueService    services.VariableValueService
	logger          *zap.Logger
}

// NewVariableHandler creates a new variable handler.
func NewVariableHandler(
	variableService services.VariableService,
	valueService services.VariableValueService,
	logger *zap.Logger,
) *VariableHandler {
	return &VariableHandler{
		variableService: variableService,
		valueService:    valueService,
		logger:          logger,
	}
}

// RegisterRoutes registers the variable handler's routes on the given mux.
func (h *VariableHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/variables", h.List)
	mux.HandleFunc("POST /api/variables", h.Create)
	mux.HandleFunc("GET /api/variables/{id}", h.Get)
	mux.HandleFunc("PUT /api/variables/{id}", h.Update)
	mux.HandleFunc("DELETE /api/variables/{id}", h.Delete)

	mux.HandleFunc("POST /api/variable-values", h.RecordValue)
	mux.HandleFunc("GET /api/variable-values", h.ListValues)
}

// dashboardScope reads the optional dashboard_id query parameter. An absent
// or empty parameter means the global scope.
func dashboardScope(r *http.Request) *string {
	if id := r.URL.Query().Get("dashboard_id"); id != "" {
		return &id
	}
	return nil
}

// List handles GET /api/variables
func (h *VariableHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := dashboardScope(r)

	variables, err := h.variableService.List(r.Context(), scope)
	if err != nil {
		h.logger.Error("Failed to list variables", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_variables_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := VariableListResponse{
		Variables: variables,
		Total:     len(variables),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/variables
func (h *VariableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVariableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	draft := &models.Variable{
		ID:          req.ID,
		Name:        req.Name,
		Label:       req.Label,
		Type:        req.Type,
		Query:       req.Query,
		Options:     req.Options,
		Value:       req.Value,
		Multi:       req.Multi,
		Description: req.Description,
		Refresh:     req.Refresh,
		Sort:        req.Sort,
		IncludeAll:  req.IncludeAll,
		AllValue:    req.AllValue,
		Regex:       req.Regex,
		Hide:        req.Hide,
		DashboardID: req.DashboardID,
		TemplateID:  req.TemplateID,
	}

	variable, err := h.variableService.Create(r.Context(), draft)
	if err != nil {
		h.logger.Error("Failed to create variable",
			zap.String("name", req.Name),
			zap.Error(err))

		if req.Name == "" || !models.IsValidVariableType(draft.Type) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		if err := ErrorResponse(w, statusForError(err), "create_variable_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: variable}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/variables/{id}
func (h *VariableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	variable, err := h.variableService.Get(r.Context(), id)
	if err != nil {
		if statusForError(err) != http.StatusNotFound {
			h.logger.Error("Failed to get variable",
				zap.String("variable_id", id),
				zap.Error(err))
		}
		if err := ErrorResponse(w, statusForError(err), "variable_not_found", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: variable}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/variables/{id}
func (h *VariableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update models.VariableUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	variable, err := h.variableService.Update(r.Context(), id, &update)
	if err != nil {
		h.logger.Error("Failed to update variable",
			zap.String("variable_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "update_variable_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: variable}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/variables/{id}
func (h *VariableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.variableService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete variable",
			zap.String("variable_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "delete_variable_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RecordValue handles POST /api/variable-values
func (h *VariableHandler) RecordValue(w http.ResponseWriter, r *http.Request) {
	var req RecordVariableValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.VariableName == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "variable_name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	record, err := h.valueService.Record(r.Context(), req.VariableName, req.Value, req.DashboardID, req.SessionID)
	if err != nil {
		h.logger.Error("Failed to record variable value",
			zap.String("variable_name", req.VariableName),
			zap.Error(err))
		if err := ErrorResponse(w, statusForError(err), "record_variable_value_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListValues handles GET /api/variable-values
func (h *VariableHandler) ListValues(w http.ResponseWriter, r *http.Request) {
	scope := dashboardScope(r)

	values, err := h.valueService.List(r.Context(), scope)
	if err != nil {
		h.logger.Error("Failed to list variable values", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_variable_values_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := VariableValueListResponse{
		Values: values,
		Total:  len(values),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
