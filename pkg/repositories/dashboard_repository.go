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

// DashboardRepository defines the interface for dashboard data access.
type DashboardRepository interface {
	Create(ctx context.Context, dashboard *models.Dashboard) error
	Get(ctx context.Context, id string) (*models.Dashboard, error)
	GetByTitle(ctx context.Context, title string) (*models.Dashboard, error)
	List(ctx context.Context) ([]*models.Dashboard, error)
	Update(ctx context.Context, dashboard *models.Dashboard) error
	Delete(ctx context.Context, id string) error

	// DuplicateTitles returns every title held by more than one dashboard.
	DuplicateTitles(ctx context.Context) ([]string, error)
	// ListByTitle returns all dashboards with the given title, newest first
	// (updated_at, then created_at, then id for a deterministic order).
	ListByTitle(ctx context.Context, title string) ([]*models.Dashboard, error)
}

// dashboardRepository implements DashboardRepository using PostgreSQL.
type dashboardRepository struct {
	db *database.DB
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *database.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

const dashboardColumns = `id, title, description, category, time_range, refresh_interval,
	variables, panels, tags, is_template, is_public, version, created_at, updated_at`

// Create inserts a new dashboard. A duplicate title or id surfaces as
// ErrConflict via the store's unique constraints.
func (r *dashboardRepository) Create(ctx context.Context, dashboard *models.Dashboard) error {
	now := time.Now().UTC()
	dashboard.CreatedAt = now
	dashboard.UpdatedAt = now

	variables, panels, tags, err := marshalDashboardJSON(dashboard)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO dashboards (id, title, description, category, time_range, refresh_interval,
			variables, panels, tags, is_template, is_public, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.Querier(ctx).Exec(ctx, query,
		dashboard.ID,
		dashboard.Title,
		dashboard.Description,
		dashboard.Category,
		dashboard.TimeRange,
		dashboard.RefreshInterval,
		variables,
		panels,
		tags,
		dashboard.IsTemplate,
		dashboard.IsPublic,
		dashboard.Version,
		dashboard.CreatedAt,
		dashboard.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("dashboard %q: %w", dashboard.Title, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	return nil
}

// Get retrieves a dashboard by ID.
func (r *dashboardRepository) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + ` FROM dashboards WHERE id = $1`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, id))
}

// GetByTitle retrieves a dashboard by its unique title.
func (r *dashboardRepository) GetByTitle(ctx context.Context, title string) (*models.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + ` FROM dashboards WHERE title = $1`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, title))
}

// List returns all dashboards, most recently touched first.
func (r *dashboardRepository) List(ctx context.Context) ([]*models.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + ` FROM dashboards ORDER BY updated_at DESC`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Update writes every field of the dashboard and increments its version by
// exactly 1. The new version and updated_at are written back to the model.
func (r *dashboardRepository) Update(ctx context.Context, dashboard *models.Dashboard) error {
	variables, panels, tags, err := marshalDashboardJSON(dashboard)
	if err != nil {
		return err
	}

	query := `
		UPDATE dashboards
		SET title = $2, description = $3, category = $4, time_range = $5, refresh_interval = $6,
			variables = $7, panels = $8, tags = $9, is_template = $10, is_public = $11,
			version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING version, updated_at`

	err = r.db.Querier(ctx).QueryRow(ctx, query,
		dashboard.ID,
		dashboard.Title,
		dashboard.Description,
		dashboard.Category,
		dashboard.TimeRange,
		dashboard.RefreshInterval,
		variables,
		panels,
		tags,
		dashboard.IsTemplate,
		dashboard.IsPublic,
	).Scan(&dashboard.Version, &dashboard.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("dashboard %s: %w", dashboard.ID, apperrors.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("dashboard %q: %w", dashboard.Title, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update dashboard: %w", err)
	}

	return nil
}

// Delete removes a dashboard row. Dependent variables and value history are
// the service's responsibility, within the same transaction.
func (r *dashboardRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM dashboards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("dashboard %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// DuplicateTitles performs the grouped read behind dashboard deduplication.
func (r *dashboardRepository) DuplicateTitles(ctx context.Context) ([]string, error) {
	query := `SELECT title FROM dashboards GROUP BY title HAVING COUNT(*) > 1 ORDER BY title`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

// ListByTitle returns all dashboards with the given title, newest first.
func (r *dashboardRepository) ListByTitle(ctx context.Context, title string) ([]*models.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + ` FROM dashboards
		WHERE title = $1
		ORDER BY updated_at DESC, created_at DESC, id ASC`

	rows, err := r.db.Querier(ctx).Query(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards by title: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *dashboardRepository) scanOne(row pgx.Row) (*models.Dashboard, error) {
	var d models.Dashboard
	var variables, panels, tags []byte

	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Category,
		&d.TimeRange,
		&d.RefreshInterval,
		&variables,
		&panels,
		&tags,
		&d.IsTemplate,
		&d.IsPublic,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}

	if err := unmarshalDashboardJSON(&d, variables, panels, tags); err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *dashboardRepository) scanAll(rows pgx.Rows) ([]*models.Dashboard, error) {
	var dashboards []*models.Dashboard
	for rows.Next() {
		var d models.Dashboard
		var variables, panels, tags []byte

		err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.Category,
			&d.TimeRange,
			&d.RefreshInterval,
			&variables,
			&panels,
			&tags,
			&d.IsTemplate,
			&d.IsPublic,
			&d.Version,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}

		if err := unmarshalDashboardJSON(&d, variables, panels, tags); err != nil {
			return nil, err
		}

		dashboards = append(dashboards, &d)
	}

	return dashboards, rows.Err()
}

func marshalDashboardJSON(d *models.Dashboard) (variables, panels, tags []byte, err error) {
	if variables, err = json.Marshal(emptyList(d.Variables)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	if panels, err = json.Marshal(emptyList(d.Panels)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal panels: %w", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if tags, err = json.Marshal(d.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return variables, panels, tags, nil
}

func unmarshalDashboardJSON(d *models.Dashboard, variables, panels, tags []byte) error {
	if err := json.Unmarshal(variables, &d.Variables); err != nil {
		return fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	if err := json.Unmarshal(panels, &d.Panels); err != nil {
		return fmt.Errorf("failed to unmarshal panels: %w", err)
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return nil
}

// emptyList keeps JSONB list columns as [] rather than null.
func emptyList(list []any) []any {
	if list == nil {
		return []any{}
	}
	return list
}

// Ensure dashboardRepository implements DashboardRepository at compile time.
var _ DashboardRepository = (*dashboardRepository)(nil)
