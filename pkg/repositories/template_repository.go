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

// TemplateRepository defines the interface for dashboard template data access.
type TemplateRepository interface {
	Create(ctx context.Context, template *models.DashboardTemplate) error
	Get(ctx context.Context, id string) (*models.DashboardTemplate, error)
	GetByName(ctx context.Context, name string) (*models.DashboardTemplate, error)
	List(ctx context.Context, includeInactive bool) ([]*models.DashboardTemplate, error)
	Update(ctx context.Context, template *models.DashboardTemplate) error
	// SoftDelete marks a template inactive. Template rows are never
	// physically removed.
	SoftDelete(ctx context.Context, id string) error
}

// templateRepository implements TemplateRepository using PostgreSQL.
type templateRepository struct {
	db *database.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *database.DB) TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, name, description, category, panels, variables, tags,
	is_builtin, version, is_active, created_at, updated_at`

// Create inserts a new template. A duplicate name surfaces as ErrConflict.
func (r *templateRepository) Create(ctx context.Context, template *models.DashboardTemplate) error {
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	panels, variables, tags, err := marshalTemplateJSON(template)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO dashboard_templates (id, name, description, category, panels, variables, tags,
			is_builtin, version, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Querier(ctx).Exec(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.Category,
		panels,
		variables,
		tags,
		template.IsBuiltin,
		template.Version,
		template.IsActive,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("template %q: %w", template.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// Get retrieves a template by ID, active or not.
func (r *templateRepository) Get(ctx context.Context, id string) (*models.DashboardTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM dashboard_templates WHERE id = $1`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, id))
}

// GetByName retrieves a template by its unique name, active or not.
func (r *templateRepository) GetByName(ctx context.Context, name string) (*models.DashboardTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM dashboard_templates WHERE name = $1`
	return r.scanOne(r.db.Querier(ctx).QueryRow(ctx, query, name))
}

// List returns templates ordered by name. Inactive rows are excluded unless
// includeInactive is set.
func (r *templateRepository) List(ctx context.Context, includeInactive bool) ([]*models.DashboardTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM dashboard_templates`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.DashboardTemplate
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// Update overwrites the template's fields and refreshes updated_at. The
// version column is a caller-owned semantic version string, not a counter,
// so there is no increment here.
func (r *templateRepository) Update(ctx context.Context, template *models.DashboardTemplate) error {
	panels, variables, tags, err := marshalTemplateJSON(template)
	if err != nil {
		return err
	}

	query := `
		UPDATE dashboard_templates
		SET name = $2, description = $3, category = $4, panels = $5, variables = $6, tags = $7,
			is_builtin = $8, version = $9, is_active = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.Querier(ctx).QueryRow(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.Category,
		panels,
		variables,
		tags,
		template.IsBuiltin,
		template.Version,
		template.IsActive,
	).Scan(&template.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("template %s: %w", template.ID, apperrors.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("template %q: %w", template.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

// SoftDelete marks the template inactive.
func (r *templateRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).Exec(ctx,
		`UPDATE dashboard_templates SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *templateRepository) scanOne(row pgx.Row) (*models.DashboardTemplate, error) {
	t, err := scanTemplate(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func scanTemplate(scan func(dest ...any) error) (*models.DashboardTemplate, error) {
	var t models.DashboardTemplate
	var panels, variables, tags []byte

	err := scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Category,
		&panels,
		&variables,
		&tags,
		&t.IsBuiltin,
		&t.Version,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(panels, &t.Panels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal panels: %w", err)
	}
	if err := json.Unmarshal(variables, &t.Variables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	if err := json.Unmarshal(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return &t, nil
}

func marshalTemplateJSON(t *models.DashboardTemplate) (panels, variables, tags []byte, err error) {
	if panels, err = json.Marshal(emptyList(t.Panels)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal panels: %w", err)
	}
	if variables, err = json.Marshal(emptyList(t.Variables)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if tags, err = json.Marshal(t.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return panels, variables, tags, nil
}

// Ensure templateRepository implements TemplateRepository at compile time.
var _ TemplateRepository = (*templateRepository)(nil)
