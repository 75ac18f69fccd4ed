package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/models"
	"github.com/rifyops/rify-engine/pkg/repositories"
)

// DefaultRetentionDays is the default retention window for variable value
// history when the caller does not supply one.
const DefaultRetentionDays = 30

// DedupReport summarizes one dashboard deduplication run.
type DedupReport struct {
	RemovedCount    int      `json:"removed_count"`
	DuplicateTitles []string `json:"duplicate_titles"`
}

// MaintenanceService implements the administratively triggered cleanup jobs.
// Jobs run out-of-band, each as one transaction; none of them touches
// templates.
type MaintenanceService interface {
	// DeduplicateDashboards keeps, per duplicated title, the most recently
	// updated dashboard and cascade-deletes the rest. Idempotent: a second
	// run with no intervening writes removes nothing.
	DeduplicateDashboards(ctx context.Context) (*DedupReport, error)
	// PruneOrphanedVariables removes variables (and their value history)
	// whose dashboard no longer exists. Returns the variable count removed.
	PruneOrphanedVariables(ctx context.Context) (int64, error)
	// PruneOldVariableValues removes history older than retentionDays.
	// Returns the count removed.
	PruneOldVariableValues(ctx context.Context, retentionDays int) (int64, error)
}

type maintenanceService struct {
	tx            database.TxRunner
	dashboardRepo repositories.DashboardRepository
	variableRepo  repositories.VariableRepository
	valueRepo     repositories.VariableValueRepository
	logger        *zap.Logger
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(
	tx database.TxRunner,
	dashboardRepo repositories.DashboardRepository,
	variableRepo repositories.VariableRepository,
	valueRepo repositories.VariableValueRepository,
	logger *zap.Logger,
) MaintenanceService {
	return &maintenanceService{
		tx:            tx,
		dashboardRepo: dashboardRepo,
		variableRepo:  variableRepo,
		valueRepo:     valueRepo,
		logger:        logger.Named("maintenance-service"),
	}
}

var _ MaintenanceService = (*maintenanceService)(nil)

func (s *maintenanceService) DeduplicateDashboards(ctx context.Context) (*DedupReport, error) {
	report := &DedupReport{DuplicateTitles: []string{}}

	// One grouped read plus a bounded set of cascading deletes, all inside
	// one transaction, so concurrent writers observe pre- or post-state.
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		titles, err := s.dashboardRepo.DuplicateTitles(ctx)
		if err != nil {
			return err
		}

		for _, title := range titles {
			group, err := s.dashboardRepo.ListByTitle(ctx, title)
			if err != nil {
				return err
			}
			if len(group) < 2 {
				continue
			}

			report.DuplicateTitles = append(report.DuplicateTitles, title)

			// group is ordered newest first; keep the head.
			for _, loser := range group[1:] {
				if err := s.cascadeDelete(ctx, loser); err != nil {
					return err
				}
				report.RemovedCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deduplicate dashboards: %w", err)
	}

	if report.RemovedCount > 0 {
		s.logger.Info("Deduplicated dashboards",
			zap.Int("removed", report.RemovedCount),
			zap.Strings("titles", report.DuplicateTitles))
	}
	return report, nil
}

func (s *maintenanceService) PruneOrphanedVariables(ctx context.Context) (int64, error) {
	var removed int64
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// History first: once the variables are gone the orphan join is lost.
		valuesRemoved, err := s.valueRepo.DeleteForOrphanedVariables(ctx)
		if err != nil {
			return err
		}

		removed, err = s.variableRepo.DeleteOrphaned(ctx)
		if err != nil {
			return err
		}

		if removed > 0 {
			s.logger.Info("Pruned orphaned variables",
				zap.Int64("variables_removed", removed),
				zap.Int64("values_removed", valuesRemoved))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune orphaned variables: %w", err)
	}

	return removed, nil
}

func (s *maintenanceService) PruneOldVariableValues(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed, err := s.valueRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune variable values: %w", err)
	}

	if removed > 0 {
		s.logger.Info("Pruned old variable values",
			zap.Int("retention_days", retentionDays),
			zap.Int64("removed", removed))
	}
	return removed, nil
}

// cascadeDelete removes one dashboard and its dependent rows within the
// caller's transaction.
func (s *maintenanceService) cascadeDelete(ctx context.Context, dashboard *models.Dashboard) error {
	if _, err := s.valueRepo.DeleteByDashboard(ctx, dashboard.ID); err != nil {
		return err
	}
	if _, err := s.variableRepo.DeleteByDashboard(ctx, dashboard.ID); err != nil {
		return err
	}
	return s.dashboardRepo.Delete(ctx, dashboard.ID)
}
