package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/shared"
)

type mockRepository struct {
	plans         map[string]*Plan
	subscriptions map[string]*Subscription
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		plans: map[string]*Plan{
			"starter": {ID: 1, Code: "starter", Name: "Starter", PricePerSeatCents: 2900, Currency: "USD", SeatLimit: 10},
			"growth":  {ID: 2, Code: "growth", Name: "Growth", PricePerSeatCents: 4900, Currency: "USD", SeatLimit: 100},
		},
		subscriptions: make(map[string]*Subscription),
	}
}

func (m *mockRepository) ListPlans(ctx context.Context) ([]Plan, error) {
	return []Plan{*m.plans["starter"], *m.plans["growth"]}, nil
}

func (m *mockRepository) GetPlan(ctx context.Context, code string) (*Plan, error) {
	p, ok := m.plans[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) GetSubscription(ctx context.Context, tenantID string) (*Subscription, error) {
	s, ok := m.subscriptions[tenantID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) UpdateSubscription(ctx context.Context, s Subscription) (*Subscription, error) {
	if _, ok := m.subscriptions[s.TenantID]; !ok {
		return nil, shared.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	m.subscriptions[s.TenantID] = &s
	cp := s
	return &cp, nil
}

func seedSubscription(repo *mockRepository, tenantID, plan string, seats int, status string) {
	repo.subscriptions[tenantID] = &Subscription{
		ID: 1, TenantID: tenantID, PlanCode: plan, Seats: seats, Status: status,
		RenewsAt: time.Now().AddDate(0, 1, 0),
	}
}

func TestSummaryComputesMonthlySpend(t *testing.T) {
	repo := newMockRepository()
	seedSubscription(repo, "T1", "growth", 8, StatusActive)
	svc := NewService(repo, nil)

	summary, err := svc.Summary(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "growth", summary.Plan.Code)
	assert.Equal(t, int64(8*4900), summary.MonthlyCents)
}

func TestSummaryNoSubscription(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	_, err := svc.Summary(context.Background(), "T1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChangeSubscription(t *testing.T) {
	repo := newMockRepository()
	seedSubscription(repo, "T1", "starter", 5, StatusActive)
	svc := NewService(repo, nil)

	updated, err := svc.ChangeSubscription(context.Background(), 1, "T1", "growth", 20)
	require.NoError(t, err)
	assert.Equal(t, "growth", updated.PlanCode)
	assert.Equal(t, 20, updated.Seats)
}

func TestChangeSubscriptionValidation(t *testing.T) {
	repo := newMockRepository()
	seedSubscription(repo, "T1", "starter", 5, StatusActive)
	svc := NewService(repo, nil)

	_, err := svc.ChangeSubscription(context.Background(), 1, "T1", "enterprise", 5)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ChangeSubscription(context.Background(), 1, "T1", "starter", 0)
	assert.ErrorIs(t, err, ErrValidation)

	// Starter caps at 10 seats.
	_, err = svc.ChangeSubscription(context.Background(), 1, "T1", "starter", 11)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChangeSubscriptionCancelledBlocked(t *testing.T) {
	repo := newMockRepository()
	seedSubscription(repo, "T1", "starter", 5, StatusCancelled)
	svc := NewService(repo, nil)

	_, err := svc.ChangeSubscription(context.Background(), 1, "T1", "growth", 5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelSubscriptionIdempotent(t *testing.T) {
	repo := newMockRepository()
	seedSubscription(repo, "T1", "starter", 5, StatusActive)
	svc := NewService(repo, nil)

	first, err := svc.CancelSubscription(context.Background(), 1, "T1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)

	second, err := svc.CancelSubscription(context.Background(), 1, "T1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)
}
