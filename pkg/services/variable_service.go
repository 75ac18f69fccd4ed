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

// VariableService defines the interface for variable operations. Variables
// live in exactly one scope: global (nil dashboard id) or one dashboard.
type VariableService interface {
	Create(ctx context.Context, draft *models.Variable) (*models.Variable, error)
	Get(ctx context.Context, id string) (*models.Variable, error)
	GetByName(ctx context.Context, name string, dashboardID *string) (*models.Variable, error)
	// List returns the variables of one scope; global and per-dashboard
	// results are never mixed.
	List(ctx context.Context, dashboardID *string) ([]*models.Variable, error)
	Update(ctx context.Context, id string, update *models.VariableUpdate) (*models.Variable, error)
	// Delete removes the variable and its value history atomically.
	Delete(ctx context.Context, id string) error
}

type variableService struct {
	tx           database.TxRunner
	variableRepo repositories.VariableRepository
	valueRepo    repositories.VariableValueRepository
	logger       *zap.Logger
}

// NewVariableService creates a new variable service.
func NewVariableService(
	tx database.TxRunner,
	variableRepo repositories.VariableRepository,
	valueRepo repositories.VariableValueRepository,
	logger *zap.Logger,
) VariableService {
	return &variableService{
		tx:           tx,
		variableRepo: variableRepo,
		valueRepo:    valueRepo,
		logger:       logger.Named("variable-service"),
	}
}

var _ VariableService = (*variableService)(nil)

func (s *variableService) Create(ctx context.Context, draft *models.Variable) (*models.Variable, error) {
	if draft.Name == "" {
		return nil, fmt.Errorf("variable name is required")
	}

	applyVariableDefaults(draft)
	if !models.IsValidVariableType(draft.Type) {
		return nil, fmt.Errorf("invalid variable type: %s", draft.Type)
	}

	draft.ID = identity.EnsureID(identity.VariablePrefix, draft.ID)
	draft.Version = identity.InitialVersion
	draft.Normalize()

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.variableRepo.GetByName(ctx, draft.Name, draft.DashboardID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("variable %q already exists in its scope: %w", draft.Name, apperrors.ErrConflict)
		}

		return s.variableRepo.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	return draft, nil
}

func (s *variableService) Get(ctx context.Context, id string) (*models.Variable, error) {
	return s.variableRepo.Get(ctx, id)
}

func (s *variableService) GetByName(ctx context.Context, name string, dashboardID *string) (*models.Variable, error) {
	return s.variableRepo.GetByName(ctx, name, dashboardID)
}

func (s *variableService) List(ctx context.Context, dashboardID *string) ([]*models.Variable, error) {
	return s.variableRepo.List(ctx, dashboardID)
}

func (s *variableService) Update(ctx context.Context, id string, update *models.VariableUpdate) (*models.Variable, error) {
	var result *models.Variable
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		variable, err := s.variableRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if update.Name != nil && *update.Name != variable.Name {
			other, err := s.variableRepo.GetByName(ctx, *update.Name, variable.DashboardID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if other != nil && other.ID != id {
				return fmt.Errorf("variable %q already exists in its scope: %w", *update.Name, apperrors.ErrConflict)
			}
		}

		update.Apply(variable)
		if update.Type != nil && !models.IsValidVariableType(variable.Type) {
			return fmt.Errorf("invalid variable type: %s", variable.Type)
		}
		variable.Normalize()

		if err := s.variableRepo.Update(ctx, variable); err != nil {
			return err
		}
		result = variable
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *variableService) Delete(ctx context.Context, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.variableRepo.Get(ctx, id); err != nil {
			return err
		}

		valuesDeleted, err := s.valueRepo.DeleteByVariable(ctx, id)
		if err != nil {
			return err
		}
		if err := s.variableRepo.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("Deleted variable",
			zap.String("variable_id", id),
			zap.Int64("values_deleted", valuesDeleted))
		return nil
	})
}

func applyVariableDefaults(v *models.Variable) {
	if v.Type == "" {
		v.Type = models.VariableTypeQuery
	}
	if v.Refresh == "" {
		v.Refresh = "on_dashboard_load"
	}
	if v.Sort == "" {
		v.Sort = "disabled"
	}
	if v.Hide == "" {
		v.Hide = "none"
	}
}
