package models

import "time"

// Variable types.
const (
	VariableTypeQuery      = "query"
	VariableTypeCustom     = "custom"
	VariableTypeConstant   = "constant"
	VariableTypeInterval   = "interval"
	VariableTypeDatasource = "datasource"
)

// IsValidVariableType reports whether t is a known variable type.
func IsValidVariableType(t string) bool {
	switch t {
	case VariableTypeQuery, VariableTypeCustom, VariableTypeConstant,
		VariableTypeInterval, VariableTypeDatasource:
		return true
	}
	return false
}

// Variable is a template-able dashboard variable. A variable is scoped
// either globally (DashboardID nil) or to one dashboard; the pair
// (name, dashboard_id) is unique within its scope.
//
// Query text is opaque — it is resolved by the external monitoring tool,
// never interpreted here. Options cache the last resolved result and are
// advisory only. Value holds the current selection: a single value, or a
// list when Multi is set.
type Variable struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        string    `json:"type"`
	Query       string    `json:"query"`
	Options     []any     `json:"options"`
	Value       any       `json:"value"`
	Multi       bool      `json:"multi"`
	Description string    `json:"description"`
	Refresh     string    `json:"refresh"`
	Sort        string    `json:"sort"`
	IncludeAll  bool      `json:"include_all"`
	AllValue    string    `json:"all_value"`
	Regex       string    `json:"regex"`
	Hide        string    `json:"hide"`
	DashboardID *string   `json:"dashboard_id"`
	TemplateID  *string   `json:"template_id"`
	IsGlobal    bool      `json:"is_global"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize reasserts the derived invariants: IsGlobal is computed from
// DashboardID (caller-supplied values are ignored), and Label falls back to
// Name so it is never persisted empty when Name is non-empty.
func (v *Variable) Normalize() {
	v.IsGlobal = v.DashboardID == nil
	if v.Label == "" {
		v.Label = v.Name
	}
}

// VariableUpdate is a partial update. Nil fields are left unchanged.
// Scope (dashboard_id) is immutable after creation.
type VariableUpdate struct {
	Name        *string `json:"name,omitempty"`
	Label       *string `json:"label,omitempty"`
	Type        *string `json:"type,omitempty"`
	Query       *string `json:"query,omitempty"`
	Options     *[]any  `json:"options,omitempty"`
	Value       *any    `json:"value,omitempty"`
	Multi       *bool   `json:"multi,omitempty"`
	Description *string `json:"description,omitempty"`
	Refresh     *string `json:"refresh,omitempty"`
	Sort        *string `json:"sort,omitempty"`
	IncludeAll  *bool   `json:"include_all,omitempty"`
	AllValue    *string `json:"all_value,omitempty"`
	Regex       *string `json:"regex,omitempty"`
	Hide        *string `json:"hide,omitempty"`
	TemplateID  *string `json:"template_id,omitempty"`
}

// Apply copies the fields present in the update onto the variable.
func (u *VariableUpdate) Apply(v *Variable) {
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Label != nil {
		v.Label = *u.Label
	}
	if u.Type != nil {
		v.Type = *u.Type
	}
	if u.Query != nil {
		v.Query = *u.Query
	}
	if u.Options != nil {
		v.Options = *u.Options
	}
	if u.Value != nil {
		v.Value = *u.Value
	}
	if u.Multi != nil {
		v.Multi = *u.Multi
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.Refresh != nil {
		v.Refresh = *u.Refresh
	}
	if u.Sort != nil {
		v.Sort = *u.Sort
	}
	if u.IncludeAll != nil {
		v.IncludeAll = *u.IncludeAll
	}
	if u.AllValue != nil {
		v.AllValue = *u.AllValue
	}
	if u.Regex != nil {
		v.Regex = *u.Regex
	}
	if u.Hide != nil {
		v.Hide = *u.Hide
	}
	if u.TemplateID != nil {
		v.TemplateID = u.TemplateID
	}
}
