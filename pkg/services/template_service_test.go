package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/apperrors"
	"github.com/rifyops/rify-engine/pkg/models"
)

func newTemplateServiceForTest() (TemplateService, *mockTemplateRepo) {
	templateRepo := newMockTemplateRepo()
	svc := NewTemplateService(inlineTxRunner{}, templateRepo, zap.NewNop())
	return svc, templateRepo
}

func TestTemplateCreate(t *testing.T) {
	svc, _ := newTemplateServiceForTest()

	template, err := svc.Create(context.Background(), &models.DashboardTemplate{Name: "Node Exporter"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(template.ID, "tpl_"))
	assert.True(t, template.IsActive)
	assert.Equal(t, "default", template.Category)
	assert.Equal(t, "1.0.0", template.Version)
}

func TestTemplateCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newTemplateServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.DashboardTemplate{Name: "Node Exporter"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &models.DashboardTemplate{Name: "Node Exporter"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestTemplateUpsertCreatesThenUpdates(t *testing.T) {
	svc, repo := newTemplateServiceForTest()
	ctx := context.Background()

	first, err := svc.Upsert(ctx, &models.DashboardTemplate{
		ID: "tpl_node", Name: "Node Exporter", Description: "v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tpl_node", first.ID)

	second, err := svc.Upsert(ctx, &models.DashboardTemplate{
		ID: "tpl_node", Name: "Node Exporter", Description: "v2",
	})
	require.NoError(t, err)

	assert.Equal(t, "tpl_node", second.ID)
	assert.Equal(t, "v2", second.Description)
	assert.True(t, second.IsActive)
	assert.Len(t, repo.templates, 1)

	// The zero-value IsActive on the second draft must not deactivate the
	// template: it has to stay in active listings after the sync.
	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestTemplateUpsertReactivatesSoftDeleted(t *testing.T) {
	svc, _ := newTemplateServiceForTest()
	ctx := context.Background()

	template, err := svc.Create(ctx, &models.DashboardTemplate{ID: "tpl_node", Name: "Node Exporter"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, template.ID))

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The draft does not set IsActive; upserting alone reactivates.
	restored, err := svc.Upsert(ctx, &models.DashboardTemplate{
		ID: "tpl_node", Name: "Node Exporter",
	})
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
}

func TestTemplateBatchSyncSkipsFailures(t *testing.T) {
	svc, repo := newTemplateServiceForTest()
	ctx := context.Background()

	// A pre-existing template under a different id makes one batch element
	// collide by name.
	_, err := svc.Create(ctx, &models.DashboardTemplate{ID: "tpl_existing", Name: "Prometheus"})
	require.NoError(t, err)

	batch := []*models.DashboardTemplate{
		{ID: "tpl_a", Name: "Node Exporter"},
		{ID: "tpl_b", Name: "Prometheus"}, // name collision, skipped
		{ID: "tpl_c", Name: "Kubernetes Overview"},
		{ID: "tpl_d", Name: "Database"},
		{ID: "tpl_existing", Name: "Prometheus", Description: "updated"},
	}

	synced := svc.BatchSync(ctx, batch)

	require.Len(t, synced, 4)
	assert.Len(t, repo.templates, 4)
	assert.Equal(t, "updated", repo.templates["tpl_existing"].Description)
	_, skipped := repo.templates["tpl_b"]
	assert.False(t, skipped)
}

func TestTemplateListFiltersInactive(t *testing.T) {
	svc, _ := newTemplateServiceForTest()
	ctx := context.Background()

	first, err := svc.Create(ctx, &models.DashboardTemplate{Name: "First"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.DashboardTemplate{Name: "Second"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, first.ID))

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Second", active[0].Name)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTemplateSoftDeleteNotFound(t *testing.T) {
	svc, _ := newTemplateServiceForTest()

	err := svc.SoftDelete(context.Background(), "tpl_missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTemplateUpdateRejectsRenameCollision(t *testing.T) {
	svc, _ := newTemplateServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.DashboardTemplate{Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &models.DashboardTemplate{Name: "Second"})
	require.NoError(t, err)

	name := "First"
	_, err = svc.Update(ctx, second.ID, &models.TemplateUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
