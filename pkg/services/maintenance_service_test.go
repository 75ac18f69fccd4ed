package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/models"
)

func newMaintenanceServiceForTest() (MaintenanceService, *mockDashboardRepo, *mockVariableRepo, *mockVariableValueRepo) {
	dashboardRepo := newMockDashboardRepo()
	variableRepo := newMockVariableRepo()
	valueRepo := newMockVariableValueRepo()
	svc := NewMaintenanceService(inlineTxRunner{}, dashboardRepo, variableRepo, valueRepo, zap.NewNop())
	return svc, dashboardRepo, variableRepo, valueRepo
}

func addDashboard(repo *mockDashboardRepo, id, title string) *models.Dashboard {
	d := &models.Dashboard{ID: id, Title: title, Version: 1}
	d.UpdatedAt = repo.tick()
	repo.dashboards[id] = d
	return d
}

func TestDedupKeepsNewestPerTitle(t *testing.T) {
	svc, dashboardRepo, _, _ := newMaintenanceServiceForTest()
	ctx := context.Background()

	addDashboard(dashboardRepo, "dash_old", "CPU Overview")
	addDashboard(dashboardRepo, "dash_mid", "CPU Overview")
	newest := addDashboard(dashboardRepo, "dash_new", "CPU Overview")
	addDashboard(dashboardRepo, "dash_other", "Memory Overview")

	report, err := svc.DeduplicateDashboards(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.RemovedCount)
	assert.Equal(t, []string{"CPU Overview"}, report.DuplicateTitles)

	require.Len(t, dashboardRepo.dashboards, 2)
	_, kept := dashboardRepo.dashboards[newest.ID]
	assert.True(t, kept, "the most recently updated duplicate survives")
	_, other := dashboardRepo.dashboards["dash_other"]
	assert.True(t, other)
}

func TestDedupCascadesDependentRows(t *testing.T) {
	svc, dashboardRepo, variableRepo, valueRepo := newMaintenanceServiceForTest()
	ctx := context.Background()

	loser := addDashboard(dashboardRepo, "dash_loser", "CPU Overview")
	addDashboard(dashboardRepo, "dash_winner", "CPU Overview")

	variableRepo.variables["var_1"] = &models.Variable{
		ID: "var_1", Name: "instance", DashboardID: &loser.ID,
	}
	valueRepo.values = append(valueRepo.values, &models.VariableValue{
		ID: 1, VariableID: "var_1", DashboardID: &loser.ID,
	})

	report, err := svc.DeduplicateDashboards(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.RemovedCount)
	assert.Empty(t, variableRepo.variables)
	assert.Empty(t, valueRepo.values)
}

func TestDedupIsIdempotent(t *testing.T) {
	svc, dashboardRepo, _, _ := newMaintenanceServiceForTest()
	ctx := context.Background()

	addDashboard(dashboardRepo, "dash_a", "CPU Overview")
	addDashboard(dashboardRepo, "dash_b", "CPU Overview")

	first, err := svc.DeduplicateDashboards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RemovedCount)

	second, err := svc.DeduplicateDashboards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RemovedCount)
	assert.Empty(t, second.DuplicateTitles)
}

func TestPruneOrphanedVariables(t *testing.T) {
	svc, dashboardRepo, variableRepo, valueRepo := newMaintenanceServiceForTest()
	ctx := context.Background()

	addDashboard(dashboardRepo, "dash_live", "CPU Overview")
	liveID := "dash_live"
	goneID := "dash_gone"

	variableRepo.variables["var_live"] = &models.Variable{
		ID: "var_live", Name: "a", DashboardID: &liveID,
	}
	variableRepo.variables["var_orphan"] = &models.Variable{
		ID: "var_orphan", Name: "b", DashboardID: &goneID,
	}
	variableRepo.variables["var_global"] = &models.Variable{
		ID: "var_global", Name: "c",
	}
	variableRepo.orphanCheck = func(dashboardID string) bool {
		_, exists := dashboardRepo.dashboards[dashboardID]
		return !exists
	}

	valueRepo.values = append(valueRepo.values,
		&models.VariableValue{ID: 1, VariableID: "var_orphan"},
		&models.VariableValue{ID: 2, VariableID: "var_live"})
	valueRepo.orphanCheck = func(variableID string) bool {
		return variableID == "var_orphan"
	}

	removed, err := svc.PruneOrphanedVariables(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), removed)
	_, orphan := variableRepo.variables["var_orphan"]
	assert.False(t, orphan)
	_, global := variableRepo.variables["var_global"]
	assert.True(t, global, "global variables are never orphans")
	require.Len(t, valueRepo.values, 1)
	assert.Equal(t, "var_live", valueRepo.values[0].VariableID)
}

func TestPruneOldVariableValues(t *testing.T) {
	svc, _, _, valueRepo := newMaintenanceServiceForTest()
	ctx := context.Background()

	now := time.Now().UTC()
	valueRepo.values = append(valueRepo.values,
		&models.VariableValue{ID: 1, VariableID: "var_1", CreatedAt: now.AddDate(0, 0, -40)},
		&models.VariableValue{ID: 2, VariableID: "var_1", CreatedAt: now.AddDate(0, 0, -10)},
		&models.VariableValue{ID: 3, VariableID: "var_1", CreatedAt: now})

	removed, err := svc.PruneOldVariableValues(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, int64(1), removed)
	assert.Len(t, valueRepo.values, 2)
}

func TestPruneOldVariableValuesDefaultsRetention(t *testing.T) {
	svc, _, _, valueRepo := newMaintenanceServiceForTest()
	ctx := context.Background()

	now := time.Now().UTC()
	valueRepo.values = append(valueRepo.values,
		&models.VariableValue{ID: 1, VariableID: "var_1", CreatedAt: now.AddDate(0, 0, -(DefaultRetentionDays + 5))},
		&models.VariableValue{ID: 2, VariableID: "var_1", CreatedAt: now})

	removed, err := svc.PruneOldVariableValues(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), removed)
	require.Len(t, valueRepo.values, 1)
	assert.Equal(t, int64(2), valueRepo.values[0].ID)
}
