package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/models"
)

// VariableValueRepository defines the interface for variable value history.
// History rows are append-only: there is no update path, only inserts and
// the delete operations used by cascades and retention pruning.
type VariableValueRepository interface {
	Insert(ctx context.Context, value *models.VariableValue) error
	List(ctx context.Context, dashboardID *string) ([]*models.VariableValue, error)

	DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error)
	DeleteByVariable(ctx context.Context, variableID string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteForOrphanedVariables removes history belonging to variables
	// whose dashboard no longer exists. Run before DeleteOrphaned on the
	// variables themselves, in the same transaction.
	DeleteForOrphanedVariables(ctx context.Context) (int64, error)
}

// variableValueRepository implements VariableValueRepository using PostgreSQL.
type variableValueRepository struct {
	db *database.DB
}

// NewVariableValueRepository creates a new variable value repository.
func NewVariableValueRepository(db *database.DB) VariableValueRepository {
	return &variableValueRepository{db: db}
}

// Insert appends one history row. The surrogate id and write timestamp are
// assigned by the store and written back to the model.
func (r *variableValueRepository) Insert(ctx context.Context, value *models.VariableValue) error {
	raw, err := json.Marshal(value.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	query := `
		INSERT INTO variable_values (variable_id, variable_name, value, dashboard_id, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.db.Querier(ctx).QueryRow(ctx, query,
		value.VariableID,
		value.VariableName,
		raw,
		value.DashboardID,
		value.SessionID,
	).Scan(&value.ID, &value.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert variable value: %w", err)
	}

	return nil
}

// List returns history rows most recent first. A nil dashboardID returns
// all history irrespective of dashboard.
func (r *variableValueRepository) List(ctx context.Context, dashboardID *string) ([]*models.VariableValue, error) {
	query := `SELECT id, variable_id, variable_name, value, dashboard_id, session_id, created_at
		FROM variable_values`
	args := []any{}
	if dashboardID != nil {
		query += ` WHERE dashboard_id = $1`
		args = append(args, *dashboardID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list variable values: %w", err)
	}
	defer rows.Close()

	return scanVariableValues(rows)
}

// DeleteByDashboard removes every history row recorded in the dashboard's context.
func (r *variableValueRepository) DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx,
		`DELETE FROM variable_values WHERE dashboard_id = $1`, dashboardID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dashboard variable values: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteByVariable removes every history row of one variable.
func (r *variableValueRepository) DeleteByVariable(ctx context.Context, variableID string) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx,
		`DELETE FROM variable_values WHERE variable_id = $1`, variableID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete variable values: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteOlderThan removes history rows written before the cutoff.
func (r *variableValueRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx,
		`DELETE FROM variable_values WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune variable values: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteForOrphanedVariables removes history of variables whose dashboard is gone.
func (r *variableValueRepository) DeleteForOrphanedVariables(ctx context.Context) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx, `
		DELETE FROM variable_values vv
		USING variables v
		WHERE vv.variable_id = v.id
		  AND v.dashboard_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM dashboards d WHERE d.id = v.dashboard_id)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned variable values: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanVariableValues(rows pgx.Rows) ([]*models.VariableValue, error) {
	var values []*models.VariableValue
	for rows.Next() {
		var vv models.VariableValue
		var raw []byte

		err := rows.Scan(
			&vv.ID,
			&vv.VariableID,
			&vv.VariableName,
			&raw,
			&vv.DashboardID,
			&vv.SessionID,
			&vv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variable value: %w", err)
		}

		if err := json.Unmarshal(raw, &vv.Value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal value: %w", err)
		}

		values = append(values, &vv)
	}
	return values, rows.Err()
}

// Ensure variableValueRepository implements VariableValueRepository at compile time.
var _ VariableValueRepository = (*variableValueRepository)(nil)
