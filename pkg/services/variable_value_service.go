package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/identity"
	"github.com/rifyops/rify-engine/pkg/models"
	"github.com/rifyops/rify-engine/pkg/repositories"
)

// VariableValueService records variable value changes and serves their
// history. Recording a value and updating the owning variable's current
// selection are one logical operation: both commit together or not at all.
type VariableValueService interface {
	// Record resolves the variable by name in the scope implied by
	// dashboardID (nil means global), appends one immutable history row,
	// and sets the variable's current value. Returns ErrNotFound when no
	// such variable exists in that scope.
	Record(ctx context.Context, name string, value any, dashboardID *string, sessionID string) (*models.VariableValue, error)
	// List returns history rows most recent first; a nil dashboardID
	// returns all history irrespective of dashboard.
	List(ctx context.Context, dashboardID *string) ([]*models.VariableValue, error)
}

type variableValueService struct {
	tx           database.TxRunner
	variableRepo repositories.VariableRepository
	valueRepo    repositories.VariableValueRepository
	logger       *zap.Logger
}

// NewVariableValueService creates a new variable value service.
func NewVariableValueService(
	tx database.TxRunner,
	variableRepo repositories.VariableRepository,
	valueRepo repositories.VariableValueRepository,
	logger *zap.Logger,
) VariableValueService {
	return &variableValueService{
		tx:           tx,
		variableRepo: variableRepo,
		valueRepo:    valueRepo,
		logger:       logger.Named("variable-value-service"),
	}
}

var _ VariableValueService = (*variableValueService)(nil)

func (s *variableValueService) Record(ctx context.Context, name string, value any, dashboardID *string, sessionID string) (*models.VariableValue, error) {
	if sessionID == "" {
		sessionID = identity.NewID(identity.SessionPrefix)
	}

	var record *models.VariableValue
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		variable, err := s.variableRepo.GetByName(ctx, name, dashboardID)
		if err != nil {
			return err
		}

		record = &models.VariableValue{
			VariableID:   variable.ID,
			VariableName: variable.Name,
			Value:        value,
			DashboardID:  dashboardID,
			SessionID:    sessionID,
		}
		if err := s.valueRepo.Insert(ctx, record); err != nil {
			return err
		}

		variable.Value = value
		variable.Normalize()
		return s.variableRepo.Update(ctx, variable)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Recorded variable value",
		zap.String("variable", name),
		zap.String("session_id", sessionID))
	return record, nil
}

func (s *variableValueService) List(ctx context.Context, dashboardID *string) ([]*models.VariableValue, error) {
	return s.valueRepo.List(ctx, dashboardID)
}
