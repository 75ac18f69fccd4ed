package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rifyops/rify-engine/pkg/apperrors"
	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/models"
)

// VariableRepository defines the interface for variable data access.
// A nil dashboardID denotes the global scope throughout.
type VariableRepository interface {
	Create(ctx context.Context, variable *models.Variable) error
	Get(ctx context.Context, id string) (*models.Variable, error)
	GetByName(ctx context.Context, name string, dashboardID *string) (*models.Variable, error)
	List(ctx context.Context, dashboardID *string) ([]*models.Variable, error)
	Update(ctx context.Context, variable *models.Variable) error
	Delete(ctx context.Context, id string) error

	// DeleteByDashboard removes every variable scoped to the dashboard.
	DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error)
	// DeleteOrphaned removes every scoped variable whose dashboard no
	// longer exists.
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// variableRepository implements VariableRepository using PostgreSQL.
type variableRepository struct {
	db *database.DB
}

// NewVariableRepository creates a new variable repository.
func NewVariableRepository(db *database.DB) VariableRepository {
	return &variableRepository{db: db}
}

const variableColumns = `id, name, label, type, query, options, value, multi, description,
	refresh, sort, include_all, all_value, regex, hide, dashboard_id, template_id,
	version, created_at, updated_at`

// Create inserts a new variable. A duplicate (name, dashboard_id) pair
// surfaces as ErrConflict via the store's unique constraint, which treats
// the global scope (NULL dashboard_id) like any other scope.
func (r *variableRepository) Create(ctx context.Context, variable *models.Variable) error {
	now := time.Now().UTC()
	variable.CreatedAt = now
	variable.UpdatedAt = now

	options, value, err := marshalVariableJSON(variable)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO variables (id, name, label, type, query, options, value, multi, description,
			refresh, sort, include_all, all_value, regex, hide, dashboard_id, template_id,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err = r.db.Querier(ctx).Exec(ctx, query,
		variable.ID,
		variable.Name,
		variable.Label,
		variable.Type,
		variable.Query,
		options,
		value,
		variable.Multi,
		variable.Description,
		variable.Refresh,
		variable.Sort,
		variable.IncludeAll,
		variable.AllValue,
		variable.Regex,
		variable.Hide,
		variable.DashboardID,
		variable.TemplateID,
		variable.Version,
		variable.CreatedAt,
		variable.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("variable %q in %s: %w", variable.Name, scopeLabel(variable.DashboardID), apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create variable: %w", err)
	}

	return nil
}

// Get retrieves a variable by ID.
func (r *variableRepository) Get(ctx context.Context, id string) (*models.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE id = $1`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, id))
}

// GetByName retrieves a variable by name within exactly one scope.
// IS NOT DISTINCT FROM makes NULL (global) compare like a value.
func (r *variableRepository) GetByName(ctx context.Context, name string, dashboardID *string) (*models.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables
		WHERE name = $1 AND dashboard_id IS NOT DISTINCT FROM $2`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, name, dashboardID))
}

// List returns the variables of one scope, ordered by name. Global and
// per-dashboard scopes are never mixed.
func (r *variableRepository) List(ctx context.Context, dashboardID *string) ([]*models.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables
		WHERE dashboard_id IS NOT DISTINCT FROM $1
		ORDER BY name`

	rows, err := r.db.Querier(ctx).Query(ctx, query, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Update writes every mutable field and increments version by exactly 1.
// Scope (dashboard_id) is immutable and not part of the update.
func (r *variableRepository) Update(ctx context.Context, variable *models.Variable) error {
	options, value, err := marshalVariableJSON(variable)
	if err != nil {
		return err
	}

	query := `
		UPDATE variables
		SET name = $2, label = $3, type = $4, query = $5, options = $6, value = $7, multi = $8,
			description = $9, refresh = $10, sort = $11, include_all = $12, all_value = $13,
			regex = $14, hide = $15, template_id = $16,
			version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING version, updated_at`

	err = r.db.Querier(ctx).QueryRow(ctx, query,
		variable.ID,
		variable.Name,
		variable.Label,
		variable.Type,
		variable.Query,
		options,
		value,
		variable.Multi,
		variable.Description,
		variable.Refresh,
		variable.Sort,
		variable.IncludeAll,
		variable.AllValue,
		variable.Regex,
		variable.Hide,
		variable.TemplateID,
	).Scan(&variable.Version, &variable.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("variable %s: %w", variable.ID, apperrors.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("variable %q in %s: %w", variable.Name, scopeLabel(variable.DashboardID), apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update variable: %w", err)
	}

	return nil
}

// Delete removes a variable row. Its value history is the service's
// responsibility, within the same transaction.
func (r *variableRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM variables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete variable: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("variable %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// DeleteByDashboard removes every variable scoped to the dashboard.
func (r *variableRepository) DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx,
		`DELETE FROM variables WHERE dashboard_id = $1`, dashboardID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dashboard variables: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteOrphaned removes every scoped variable whose dashboard no longer exists.
func (r *variableRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx, `
		DELETE FROM variables v
		WHERE v.dashboard_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM dashboards d WHERE d.id = v.dashboard_id)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned variables: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *variableRepository) scanOne(row pgx.Row) (*models.Variable, error) {
	v, err := scanVariable(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get variable: %w", err)
	}
	return v, nil
}

func (r *variableRepository) scanAll(rows pgx.Rows) ([]*models.Variable, error) {
	var variables []*models.Variable
	for rows.Next() {
		v, err := scanVariable(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		variables = append(variables, v)
	}
	return variables, rows.Err()
}

func scanVariable(scan func(dest ...any) error) (*models.Variable, error) {
	var v models.Variable
	var options, value []byte

	err := scan(
		&v.ID,
		&v.Name,
		&v.Label,
		&v.Type,
		&v.Query,
		&options,
		&value,
		&v.Multi,
		&v.Description,
		&v.Refresh,
		&v.Sort,
		&v.IncludeAll,
		&v.AllValue,
		&v.Regex,
		&v.Hide,
		&v.DashboardID,
		&v.TemplateID,
		&v.Version,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(options, &v.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if err := json.Unmarshal(value, &v.Value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	// is_global is computed, never stored.
	v.IsGlobal = v.DashboardID == nil

	return &v, nil
}

func marshalVariableJSON(v *models.Variable) (options, value []byte, err error) {
	if options, err = json.Marshal(emptyList(v.Options)); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal options: %w", err)
	}
	if value, err = json.Marshal(v.Value); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return options, value, nil
}

func scopeLabel(dashboardID *string) string {
	if dashboardID == nil {
		return "global scope"
	}
	return "dashboard " + *dashboardID
}

// Ensure variableRepository implements VariableRepository at compile time.
var _ VariableRepository = (*variableRepository)(nil)
