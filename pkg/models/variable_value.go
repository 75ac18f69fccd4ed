package models

import "time"

// VariableValue is one append-only history record of a variable selection.
// Rows are written exactly once per value-change event and never updated;
// they are removed only by retention pruning or cascade deletion.
type VariableValue struct {
	ID           int64     `json:"id"`
	VariableID   string    `json:"variable_id"`
	VariableName string    `json:"variable_name"`
	Value        any       `json:"value"`
	DashboardID  *string   `json:"dashboard_id"`
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
}
