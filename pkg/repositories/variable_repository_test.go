//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifyops/rify-engine/pkg/apperrors"
	"github.com/rifyops/rify-engine/pkg/models"
	"github.com/rifyops/rify-engine/pkg/testhelpers"
)

func setupVariableRepoTest(t *testing.T) VariableRepository {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	return NewVariableRepository(tdb.DB)
}

func TestVariableRepositoryGlobalScopeUnique(t *testing.T) {
	repo := setupVariableRepoTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Variable{
		ID: "var_1", Name: "instance", Type: "query", Version: 1,
	}))

	// NULL dashboard_id participates in uniqueness: a second global
	// "instance" is rejected by the store itself.
	err := repo.Create(ctx, &models.Variable{
		ID: "var_2", Name: "instance", Type: "query", Version: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestVariableRepositoryScopesAreIndependent(t *testing.T) {
	repo := setupVariableRepoTest(t)
	ctx := context.Background()
	dashboardID := "dash_1"

	require.NoError(t, repo.Create(ctx, &models.Variable{
		ID: "var_1", Name: "instance", Type: "query", Version: 1,
	}))
	require.NoError(t, repo.Create(ctx, &models.Variable{
		ID: "var_2", Name: "instance", Type: "query", Version: 1, DashboardID: &dashboardID,
	}))

	global, err := repo.GetByName(ctx, "instance", nil)
	require.NoError(t, err)
	assert.Equal(t, "var_1", global.ID)
	assert.True(t, global.IsGlobal)

	scoped, err := repo.GetByName(ctx, "instance", &dashboardID)
	require.NoError(t, err)
	assert.Equal(t, "var_2", scoped.ID)
	assert.False(t, scoped.IsGlobal)
}

func TestVariableRepositoryListByScope(t *testing.T) {
	repo := setupVariableRepoTest(t)
	ctx := context.Background()
	dashboardID := "dash_1"

	require.NoError(t, repo.Create(ctx, &models.Variable{
		ID: "var_g", Name: "global_one", Type: "query", Version: 1,
	}))
	require.NoError(t, repo.Create(ctx, &models.Variable{
		ID: "var_s", Name: "scoped_one", Type: "query", Version: 1, DashboardID: &dashboardID,
	}))

	global, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "var_g", global[0].ID)

	scoped, err := repo.List(ctx, &dashboardID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "var_s", scoped[0].ID)
}

func TestVariableRepositoryDeleteOrphaned(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := context.Background()

	dashboardRepo := NewDashboardRepository(tdb.DB)
	variableRepo := NewVariableRepository(tdb.DB)

	require.NoError(t, dashboardRepo.Create(ctx, &models.Dashboard{
		ID: "dash_live", Title: "Live", Version: 1,
	}))

	liveID := "dash_live"
	goneID := "dash_gone"
	require.NoError(t, variableRepo.Create(ctx, &models.Variable{
		ID: "var_live", Name: "a", Type: "query", Version: 1, DashboardID: &liveID,
	}))
	require.NoError(t, variableRepo.Create(ctx, &models.Variable{
		ID: "var_orphan", Name: "b", Type: "query", Version: 1, DashboardID: &goneID,
	}))
	require.NoError(t, variableRepo.Create(ctx, &models.Variable{
		ID: "var_global", Name: "c", Type: "query", Version: 1,
	}))

	removed, err := variableRepo.DeleteOrphaned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = variableRepo.Get(ctx, "var_orphan")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = variableRepo.Get(ctx, "var_live")
	assert.NoError(t, err)
	_, err = variableRepo.Get(ctx, "var_global")
	assert.NoError(t, err)
}
