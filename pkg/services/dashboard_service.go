// Package services implements the operation layer of the persistence core.
// Every public operation executes as one atomic unit of work against the
// store; services are constructed explicitly and injected into their callers
// rather than shared through process-wide state.
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

// Title-conflict policies for dashboard creation.
const (
	// OnConflictFail rejects a create whose title already exists.
	OnConflictFail = "fail"
	// OnConflictUpsert resolves a title collision on create by updating
	// the existing dashboard instead of failing.
	OnConflictUpsert = "upsert"
)

// DashboardService defines the interface for dashboard operations.
type DashboardService interface {
	// Create stores a new dashboard. When the draft's id or title already
	// exists, the configured on-conflict policy decides between
	// ErrConflict and updating the existing row.
	Create(ctx context.Context, draft *models.Dashboard) (*models.Dashboard, error)
	Get(ctx context.Context, id string) (*models.Dashboard, error)
	// List returns all dashboards, most recently touched first.
	List(ctx context.Context) ([]*models.Dashboard, error)
	Update(ctx context.Context, id string, update *models.DashboardUpdate) (*models.Dashboard, error)
	// Delete removes the dashboard and, in the same transaction, every
	// variable and value-history row scoped to it.
	Delete(ctx context.Context, id string) error
}

type dashboardService struct {
	tx            database.TxRunner
	dashboardRepo repositories.DashboardRepository
	variableRepo  repositories.VariableRepository
	valueRepo     repositories.VariableValueRepository
	onConflict    string
	logger        *zap.Logger
}

// NewDashboardService creates a new dashboard service. onConflict is one of
// OnConflictFail or OnConflictUpsert.
func NewDashboardService(
	tx database.TxRunner,
	dashboardRepo repositories.DashboardRepository,
	variableRepo repositories.VariableRepository,
	valueRepo repositories.VariableValueRepository,
	onConflict string,
	logger *zap.Logger,
) DashboardService {
	if onConflict != OnConflictFail {
		onConflict = OnConflictUpsert
	}
	return &dashboardService{
		tx:            tx,
		dashboardRepo: dashboardRepo,
		variableRepo:  variableRepo,
		valueRepo:     valueRepo,
		onConflict:    onConflict,
		logger:        logger.Named("dashboard-service"),
	}
}

var _ DashboardService = (*dashboardService)(nil)

func (s *dashboardService) Create(ctx context.Context, draft *models.Dashboard) (*models.Dashboard, error) {
	if draft.Title == "" {
		return nil, fmt.Errorf("dashboard title is required")
	}

	applyDashboardDefaults(draft)
	draft.ID = identity.EnsureID(identity.DashboardPrefix, draft.ID)

	var result *models.Dashboard
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// A caller-supplied id that already exists degrades to an update
		// of that row, so client retries stay idempotent.
		existing, err := s.dashboardRepo.Get(ctx, draft.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err == nil {
			s.logger.Info("Create with existing id, updating",
				zap.String("dashboard_id", existing.ID))
			result, err = s.overwrite(ctx, existing, draft)
			return err
		}

		existing, err = s.dashboardRepo.GetByTitle(ctx, draft.Title)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err == nil {
			if s.onConflict == OnConflictFail {
				return fmt.Errorf("dashboard %q: %w", draft.Title, apperrors.ErrConflict)
			}
			s.logger.Info("Create with existing title, updating",
				zap.String("dashboard_id", existing.ID),
				zap.String("title", draft.Title))
			result, err = s.overwrite(ctx, existing, draft)
			return err
		}

		draft.Version = identity.InitialVersion
		if err := s.dashboardRepo.Create(ctx, draft); err != nil {
			return err
		}
		result = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *dashboardService) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	return s.dashboardRepo.Get(ctx, id)
}

func (s *dashboardService) List(ctx context.Context) ([]*models.Dashboard, error) {
	return s.dashboardRepo.List(ctx)
}

func (s *dashboardService) Update(ctx context.Context, id string, update *models.DashboardUpdate) (*models.Dashboard, error) {
	var result *models.Dashboard
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		dashboard, err := s.dashboardRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if update.Title != nil && *update.Title != dashboard.Title {
			other, err := s.dashboardRepo.GetByTitle(ctx, *update.Title)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if err == nil && other.ID != id {
				return fmt.Errorf("dashboard %q: %w", *update.Title, apperrors.ErrConflict)
			}
		}

		update.Apply(dashboard)
		if err := s.dashboardRepo.Update(ctx, dashboard); err != nil {
			return err
		}
		result = dashboard
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *dashboardService) Delete(ctx context.Context, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		// Resolve first so an unknown id fails cleanly before any cascade.
		if _, err := s.dashboardRepo.Get(ctx, id); err != nil {
			return err
		}

		valuesDeleted, err := s.valueRepo.DeleteByDashboard(ctx, id)
		if err != nil {
			return err
		}
		variablesDeleted, err := s.variableRepo.DeleteByDashboard(ctx, id)
		if err != nil {
			return err
		}
		if err := s.dashboardRepo.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("Deleted dashboard",
			zap.String("dashboard_id", id),
			zap.Int64("variables_deleted", variablesDeleted),
			zap.Int64("values_deleted", valuesDeleted))
		return nil
	})
}

// overwrite applies a create draft onto an existing dashboard as a full
// update, keeping the existing id.
func (s *dashboardService) overwrite(ctx context.Context, existing, draft *models.Dashboard) (*models.Dashboard, error) {
	update := &models.DashboardUpdate{
		Title:           &draft.Title,
		Description:     &draft.Description,
		Category:        &draft.Category,
		TimeRange:       &draft.TimeRange,
		RefreshInterval: &draft.RefreshInterval,
		Variables:       &draft.Variables,
		Panels:          &draft.Panels,
		Tags:            &draft.Tags,
		IsTemplate:      &draft.IsTemplate,
		IsPublic:        &draft.IsPublic,
	}

	update.Apply(existing)
	if err := s.dashboardRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func applyDashboardDefaults(d *models.Dashboard) {
	if d.Category == "" {
		d.Category = "default"
	}
	if d.TimeRange == "" {
		d.TimeRange = "1h"
	}
	if d.RefreshInterval == 0 {
		d.RefreshInterval = 30
	}
}
