package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rifyops/rify-engine/pkg/apperrors"
	"github.com/rifyops/rify-engine/pkg/models"
)

// ============================================================================
// Mock Implementations for Service Tests
// ============================================================================

// inlineTxRunner runs the unit of work directly, with no real transaction.
type inlineTxRunner struct{}

func (inlineTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ----------------------------------------------------------------------------
// Dashboards
// ----------------------------------------------------------------------------

type mockDashboardRepo struct {
	dashboards map[string]*models.Dashboard
	clock      time.Time
	createErr  error
	updateErr  error
}

func newMockDashboardRepo() *mockDashboardRepo {
	return &mockDashboardRepo{
		dashboards: make(map[string]*models.Dashboard),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *mockDashboardRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockDashboardRepo) Create(ctx context.Context, d *models.Dashboard) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.dashboards[d.ID]; exists {
		return fmt.Errorf("dashboard %s: %w", d.ID, apperrors.ErrConflict)
	}
	for _, other := range m.dashboards {
		if other.Title == d.Title {
			return fmt.Errorf("dashboard %q: %w", d.Title, apperrors.ErrConflict)
		}
	}
	now := m.tick()
	d.CreatedAt = now
	d.UpdatedAt = now
	m.dashboards[d.ID] = d
	return nil
}

func (m *mockDashboardRepo) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	d, exists := m.dashboards[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return d, nil
}

func (m *mockDashboardRepo) GetByTitle(ctx context.Context, title string) (*models.Dashboard, error) {
	for _, d := range m.dashboards {
		if d.Title == title {
			return d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockDashboardRepo) List(ctx context.Context) ([]*models.Dashboard, error) {
	var result []*models.Dashboard
	for _, d := range m.dashboards {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *mockDashboardRepo) Update(ctx context.Context, d *models.Dashboard) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.dashboards[d.ID]; !exists {
		return fmt.Errorf("dashboard %s: %w", d.ID, apperrors.ErrNotFound)
	}
	for _, other := range m.dashboards {
		if other.ID != d.ID && other.Title == d.Title {
			return fmt.Errorf("dashboard %q: %w", d.Title, apperrors.ErrConflict)
		}
	}
	d.Version++
	d.UpdatedAt = m.tick()
	m.dashboards[d.ID] = d
	return nil
}

func (m *mockDashboardRepo) Delete(ctx context.Context, id string) error {
	if _, exists := m.dashboards[id]; !exists {
		return fmt.Errorf("dashboard %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.dashboards, id)
	return nil
}

func (m *mockDashboardRepo) DuplicateTitles(ctx context.Context) ([]string, error) {
	counts := make(map[string]int)
	for _, d := range m.dashboards {
		counts[d.Title]++
	}
	var titles []string
	for title, n := range counts {
		if n > 1 {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

func (m *mockDashboardRepo) ListByTitle(ctx context.Context, title string) ([]*models.Dashboard, error) {
	var result []*models.Dashboard
	for _, d := range m.dashboards {
		if d.Title == title {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ----------------------------------------------------------------------------
// Variables
// ----------------------------------------------------------------------------

type mockVariableRepo struct {
	variables map[string]*models.Variable
	createErr error
	updateErr error
	// orphanCheck reports whether a dashboard id no longer exists; tests
	// that exercise orphan pruning wire it to the dashboard mock.
	orphanCheck func(dashboardID string) bool
}

func newMockVariableRepo() *mockVariableRepo {
	return &mockVariableRepo{variables: make(map[string]*models.Variable)}
}

func (m *mockVariableRepo) Create(ctx context.Context, v *models.Variable) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, other := range m.variables {
		if other.Name == v.Name && sameScope(other.DashboardID, v.DashboardID) {
			return fmt.Errorf("variable %q: %w", v.Name, apperrors.ErrConflict)
		}
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	m.variables[v.ID] = v
	return nil
}

func (m *mockVariableRepo) Get(ctx context.Context, id string) (*models.Variable, error) {
	v, exists := m.variables[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

func (m *mockVariableRepo) GetByName(ctx context.Context, name string, dashboardID *string) (*models.Variable, error) {
	for _, v := range m.variables {
		if v.Name == name && sameScope(v.DashboardID, dashboardID) {
			return v, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockVariableRepo) List(ctx context.Context, dashboardID *string) ([]*models.Variable, error) {
	var result []*models.Variable
	for _, v := range m.variables {
		if sameScope(v.DashboardID, dashboardID) {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockVariableRepo) Update(ctx context.Context, v *models.Variable) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.variables[v.ID]; !exists {
		return fmt.Errorf("variable %s: %w", v.ID, apperrors.ErrNotFound)
	}
	v.Version++
	v.UpdatedAt = time.Now().UTC()
	m.variables[v.ID] = v
	return nil
}

func (m *mockVariableRepo) Delete(ctx context.Context, id string) error {
	if _, exists := m.variables[id]; !exists {
		return fmt.Errorf("variable %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.variables, id)
	return nil
}

func (m *mockVariableRepo) DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error) {
	var removed int64
	for id, v := range m.variables {
		if v.DashboardID != nil && *v.DashboardID == dashboardID {
			delete(m.variables, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockVariableRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	if m.orphanCheck == nil {
		return 0, nil
	}
	var removed int64
	for id, v := range m.variables {
		if v.DashboardID != nil && m.orphanCheck(*v.DashboardID) {
			delete(m.variables, id)
			removed++
		}
	}
	return removed, nil
}

// ----------------------------------------------------------------------------
// Variable values
// ----------------------------------------------------------------------------

type mockVariableValueRepo struct {
	values    []*models.VariableValue
	nextID    int64
	insertErr error
	// orphanCheck reports whether a variable id belongs to an orphaned
	// variable; tests that exercise orphan pruning wire it in.
	orphanCheck func(variableID string) bool
}

func newMockVariableValueRepo() *mockVariableValueRepo {
	return &mockVariableValueRepo{}
}

func (m *mockVariableValueRepo) Insert(ctx context.Context, value *models.VariableValue) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	value.ID = m.nextID
	value.CreatedAt = time.Now().UTC()
	m.values = append(m.values, value)
	return nil
}

func (m *mockVariableValueRepo) List(ctx context.Context, dashboardID *string) ([]*models.VariableValue, error) {
	var result []*models.VariableValue
	for _, v := range m.values {
		if dashboardID == nil || sameScope(v.DashboardID, dashboardID) {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockVariableValueRepo) DeleteByDashboard(ctx context.Context, dashboardID string) (int64, error) {
	return m.deleteWhere(func(v *models.VariableValue) bool {
		return v.DashboardID != nil && *v.DashboardID == dashboardID
	}), nil
}

func (m *mockVariableValueRepo) DeleteByVariable(ctx context.Context, variableID string) (int64, error) {
	return m.deleteWhere(func(v *models.VariableValue) bool {
		return v.VariableID == variableID
	}), nil
}

func (m *mockVariableValueRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleteWhere(func(v *models.VariableValue) bool {
		return v.CreatedAt.Before(cutoff)
	}), nil
}

func (m *mockVariableValueRepo) DeleteForOrphanedVariables(ctx context.Context) (int64, error) {
	if m.orphanCheck == nil {
		return 0, nil
	}
	return m.deleteWhere(func(v *models.VariableValue) bool {
		return m.orphanCheck(v.VariableID)
	}), nil
}

func (m *mockVariableValueRepo) deleteWhere(match func(*models.VariableValue) bool) int64 {
	var kept []*models.VariableValue
	var removed int64
	for _, v := range m.values {
		if match(v) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	m.values = kept
	return removed
}

// ----------------------------------------------------------------------------
// Templates
// ----------------------------------------------------------------------------

type mockTemplateRepo struct {
	templates map[string]*models.DashboardTemplate
	createErr error
	updateErr error
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*models.DashboardTemplate)}
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *models.DashboardTemplate) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, other := range m.templates {
		if other.Name == t.Name {
			return fmt.Errorf("template %q: %w", t.Name, apperrors.ErrConflict)
		}
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) Get(ctx context.Context, id string) (*models.DashboardTemplate, error) {
	t, exists := m.templates[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTemplateRepo) GetByName(ctx context.Context, name string) (*models.DashboardTemplate, error) {
	for _, t := range m.templates {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTemplateRepo) List(ctx context.Context, includeInactive bool) ([]*models.DashboardTemplate, error) {
	var result []*models.DashboardTemplate
	for _, t := range m.templates {
		if t.IsActive || includeInactive {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, t *models.DashboardTemplate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.templates[t.ID]; !exists {
		return fmt.Errorf("template %s: %w", t.ID, apperrors.ErrNotFound)
	}
	t.UpdatedAt = time.Now().UTC()
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) SoftDelete(ctx context.Context, id string) error {
	t, exists := m.templates[id]
	if !exists {
		return fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
	}
	t.IsActive = false
	return nil
}
