package models

import "time"

// DashboardTemplate is a reusable catalog entry. Panels and variables are
// template-shaped descriptors copied into a dashboard when instantiated.
// Templates are soft-deleted (IsActive=false), never physically removed,
// and Version is a free-form semantic version string set by the caller.
type DashboardTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Panels      []any     `json:"panels"`
	Variables   []any     `json:"variables"`
	Tags        []string  `json:"tags"`
	IsBuiltin   bool      `json:"is_builtin"`
	Version     string    `json:"version"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateUpdate is a partial update. Nil fields are left unchanged.
// Setting IsActive to true through an update reactivates a soft-deleted
// template.
type TemplateUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Panels      *[]any    `json:"panels,omitempty"`
	Variables   *[]any    `json:"variables,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsBuiltin   *bool     `json:"is_builtin,omitempty"`
	Version     *string   `json:"version,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// Apply copies the fields present in the update onto the template.
func (u *TemplateUpdate) Apply(t *DashboardTemplate) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Panels != nil {
		t.Panels = *u.Panels
	}
	if u.Variables != nil {
		t.Variables = *u.Variables
	}
	if u.Tags != nil {
		t.Tags = *u.Tags
	}
	if u.IsBuiltin != nil {
		t.IsBuiltin = *u.IsBuiltin
	}
	if u.Version != nil {
		t.Version = *u.Version
	}
	if u.IsActive != nil {
		t.IsActive = *u.IsActive
	}
}

// AsUpdate converts a full template into the update applied during an
// upsert: every field overwritten, including reactivation via IsActive.
func (t *DashboardTemplate) AsUpdate() *TemplateUpdate {
	return &TemplateUpdate{
		Name:        &t.Name,
		Description: &t.Description,
		Category:    &t.Category,
		Panels:      &t.Panels,
		Variables:   &t.Variables,
		Tags:        &t.Tags,
		IsBuiltin:   &t.IsBuiltin,
		Version:     &t.Version,
		IsActive:    &t.IsActive,
	}
}
