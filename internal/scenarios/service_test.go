package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/rbac"
	"github.com/pitchlab/pitchlab/internal/shared"
)

type mockRepository struct {
	scenarios map[int64]*Scenario
	nextID    int64

	listError   error
	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{scenarios: make(map[int64]*Scenario), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Scenario, int, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	var out []Scenario
	for _, s := range m.scenarios {
		if s.TenantID != tenantID {
			continue
		}
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, tenantID string, id int64) (*Scenario, error) {
	s, ok := m.scenarios[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, s Scenario) (*Scenario, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	s.ID = m.nextID
	m.nextID++
	m.scenarios[s.ID] = &s
	cp := s
	return &cp, nil
}

func (m *mockRepository) Update(ctx context.Context, s Scenario) (*Scenario, error) {
	existing, ok := m.scenarios[s.ID]
	if !ok || existing.TenantID != s.TenantID {
		return nil, shared.ErrNotFound
	}
	s.CreatedBy = existing.CreatedBy
	m.scenarios[s.ID] = &s
	cp := s
	return &cp, nil
}

func (m *mockRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	s, ok := m.scenarios[id]
	if !ok || s.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(m.scenarios, id)
	return nil
}

func TestCreateScenarioDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), 7, Scenario{
		TenantID: "T1",
		Title:    "  Cold call: skeptical CFO  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cold call: skeptical CFO", created.Title)
	assert.Equal(t, DifficultyMedium, created.Difficulty)
	assert.Equal(t, StatusDraft, created.Status)
	assert.Equal(t, int64(7), created.CreatedBy)
}

func TestCreateScenarioValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	cases := []struct {
		name  string
		input Scenario
	}{
		{"blank title", Scenario{TenantID: "T1", Title: "   "}},
		{"bad difficulty", Scenario{TenantID: "T1", Title: "x", Difficulty: "impossible"}},
		{"bad status", Scenario{TenantID: "T1", Title: "x", Status: "published"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tc.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, repo.scenarios)
}

func TestUpdateScenarioArchivedStaysArchived(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), 1, Scenario{
		TenantID: "T1", Title: "Renewal pushback", Status: StatusActive, Difficulty: DifficultyHard,
	})
	require.NoError(t, err)

	created.Status = StatusArchived
	_, err = svc.Update(context.Background(), 1, *created)
	require.NoError(t, err)

	created.Status = StatusActive
	_, err = svc.Update(context.Background(), 1, *created)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateScenarioTenantScoped(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), 1, Scenario{TenantID: "T1", Title: "Demo follow-up"})
	require.NoError(t, err)

	created.TenantID = "T2"
	created.Status = StatusDraft
	created.Difficulty = DifficultyMedium
	_, err = svc.Update(context.Background(), 1, *created)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteScenarioNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), 1, "T1", 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPropagatesRepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.listError = errors.New("connection reset")
	svc := NewService(repo, nil)

	_, _, err := svc.List(context.Background(), "T1", ListFilters{Page: 1, PerPage: 20})
	assert.Error(t, err)
}

func TestCardAffordances(t *testing.T) {
	scenario := Scenario{ID: 1, TenantID: "T1", Title: "Objection handling"}

	admin := &rbac.Identity{ID: 1, Role: rbac.RoleAdmin, TenantID: "T1"}
	card := newCard(admin, scenario)
	assert.True(t, card.CanEdit)
	assert.True(t, card.CanDelete)

	employee := &rbac.Identity{ID: 2, Role: rbac.RoleEmployee, TenantID: "T1"}
	card = newCard(employee, scenario)
	assert.False(t, card.CanEdit)
	assert.False(t, card.CanDelete)
}
