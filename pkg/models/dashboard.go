// Package models contains domain types for rify-engine.
package models

import "time"

// Dashboard is an operations dashboard: display configuration plus a
// denormalized snapshot of its variable references and panel descriptors.
// Panels and variable descriptors are opaque JSON to the persistence core.
type Dashboard struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	TimeRange       string    `json:"time_range"`
	RefreshInterval int       `json:"refresh_interval"`
	Variables       []any     `json:"variables"`
	Panels          []any     `json:"panels"`
	Tags            []string  `json:"tags"`
	IsTemplate      bool      `json:"is_template"`
	IsPublic        bool      `json:"is_public"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DashboardUpdate is a partial update. Nil fields are left unchanged.
type DashboardUpdate struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Category        *string   `json:"category,omitempty"`
	TimeRange       *string   `json:"time_range,omitempty"`
	RefreshInterval *int      `json:"refresh_interval,omitempty"`
	Variables       *[]any    `json:"variables,omitempty"`
	Panels          *[]any    `json:"panels,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	IsTemplate      *bool     `json:"is_template,omitempty"`
	IsPublic        *bool     `json:"is_public,omitempty"`
}

// Apply copies the fields present in the update onto the dashboard.
// Version and timestamps are owned by the repository layer.
func (u *DashboardUpdate) Apply(d *Dashboard) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Category != nil {
		d.Category = *u.Category
	}
	if u.TimeRange != nil {
		d.TimeRange = *u.TimeRange
	}
	if u.RefreshInterval != nil {
		d.RefreshInterval = *u.RefreshInterval
	}
	if u.Variables != nil {
		d.Variables = *u.Variables
	}
	if u.Panels != nil {
		d.Panels = *u.Panels
	}
	if u.Tags != nil {
		d.Tags = *u.Tags
	}
	if u.IsTemplate != nil {
		d.IsTemplate = *u.IsTemplate
	}
	if u.IsPublic != nil {
		d.IsPublic = *u.IsPublic
	}
}
