package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/apperrors"
	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/identity"
	"github.com/rifyops/rify-engine/pkg/models"
	"github.com/rifyops/rify-engine/pkg/repositories"
)

// TemplateService reconciles dashboard templates against the store.
// Templates are catalog entries: deletion is always soft, and the version
// field is a caller-owned semantic version string.
type TemplateService interface {
	Create(ctx context.Context, draft *models.DashboardTemplate) (*models.DashboardTemplate, error)
	Get(ctx context.Context, id string) (*models.DashboardTemplate, error)
	// List returns active templates; includeInactive adds soft-deleted ones.
	List(ctx context.Context, includeInactive bool) ([]*models.DashboardTemplate, error)
	Update(ctx context.Context, id string, update *models.TemplateUpdate) (*models.DashboardTemplate, error)
	// Upsert creates the template, or applies update semantics when a
	// template with the same id already exists.
	Upsert(ctx context.Context, template *models.DashboardTemplate) (*models.DashboardTemplate, error)
	// BatchSync upserts each element in order. A failing element is
	// logged and skipped; it never aborts the rest of the batch. The
	// returned slice holds the successfully synchronized templates.
	BatchSync(ctx context.Context, templates []*models.DashboardTemplate) []*models.DashboardTemplate
	// SoftDelete marks the template inactive; rows are never removed.
	SoftDelete(ctx context.Context, id string) error
}

type templateService struct {
	tx           database.TxRunner
	templateRepo repositories.TemplateRepository
	logger       *zap.Logger
}

// NewTemplateService creates a new template service.
func NewTemplateService(
	tx database.TxRunner,
	templateRepo repositories.TemplateRepository,
	logger *zap.Logger,
) TemplateService {
	return &templateService{
		tx:           tx,
		templateRepo: templateRepo,
		logger:       logger.Named("template-service"),
	}
}

var _ TemplateService = (*templateService)(nil)

func (s *templateService) Create(ctx context.Context, draft *models.DashboardTemplate) (*models.DashboardTemplate, error) {
	if draft.Name == "" {
		return nil, fmt.Errorf("template name is required")
	}

	applyTemplateDefaults(draft)
	draft.ID = identity.EnsureID(identity.TemplatePrefix, draft.ID)
	draft.IsActive = true

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.templateRepo.GetByName(ctx, draft.Name)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("template %q already exists: %w", draft.Name, apperrors.ErrConflict)
		}

		return s.templateRepo.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	return draft, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*models.DashboardTemplate, error) {
	return s.templateRepo.Get(ctx, id)
}

func (s *templateService) List(ctx context.Context, includeInactive bool) ([]*models.DashboardTemplate, error) {
	return s.templateRepo.List(ctx, includeInactive)
}

func (s *templateService) Update(ctx context.Context, id string, update *models.TemplateUpdate) (*models.DashboardTemplate, error) {
	var result *models.DashboardTemplate
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		template, err := s.templateRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if update.Name != nil && *update.Name != template.Name {
			other, err := s.templateRepo.GetByName(ctx, *update.Name)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if other != nil && other.ID != id {
				return fmt.Errorf("template %q already exists: %w", *update.Name, apperrors.ErrConflict)
			}
		}

		update.Apply(template)
		if err := s.templateRepo.Update(ctx, template); err != nil {
			return err
		}
		result = template
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *templateService) Upsert(ctx context.Context, template *models.DashboardTemplate) (*models.DashboardTemplate, error) {
	if template.ID != "" {
		existing, err := s.templateRepo.Get(ctx, template.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			applyTemplateDefaults(template)
			// Upsert implies active, like Create: a sync reactivates a
			// soft-deleted row and never deactivates a live one.
			template.IsActive = true
			return s.Update(ctx, template.ID, template.AsUpdate())
		}
	}

	return s.Create(ctx, template)
}

func (s *templateService) BatchSync(ctx context.Context, templates []*models.DashboardTemplate) []*models.DashboardTemplate {
	synced := make([]*models.DashboardTemplate, 0, len(templates))
	for _, template := range templates {
		result, err := s.Upsert(ctx, template)
		if err != nil {
			s.logger.Warn("Skipping template in batch sync",
				zap.String("template_id", template.ID),
				zap.String("name", template.Name),
				zap.Error(err))
			continue
		}
		synced = append(synced, result)
	}

	s.logger.Info("Batch template sync completed",
		zap.Int("requested", len(templates)),
		zap.Int("synced", len(synced)))
	return synced
}

func (s *templateService) SoftDelete(ctx context.Context, id string) error {
	return s.templateRepo.SoftDelete(ctx, id)
}

func applyTemplateDefaults(t *models.DashboardTemplate) {
	if t.Category == "" {
		t.Category = "default"
	}
	if t.Version == "" {
		t.Version = "1.0.0"
	}
}
