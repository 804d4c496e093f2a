package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pitchlab/pitchlab/internal/shared"
)

// ErrValidation wraps input problems the handler maps to 400.
var ErrValidation = errors.New("billing: validation")

// RepositoryPort defines data access methods for billing.
type RepositoryPort interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, code string) (*Plan, error)
	GetSubscription(ctx context.Context, tenantID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, s Subscription) (*Subscription, error)
}

// Service handles billing business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Plans returns the pricing catalogue.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// Summary joins the tenant's subscription with its plan.
func (s *Service) Summary(ctx context.Context, tenantID string) (*Summary, error) {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, sub.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", sub.PlanCode, err)
	}
	return &Summary{
		Subscription: *sub,
		Plan:         *plan,
		MonthlyCents: plan.PricePerSeatCents * int64(sub.Seats),
	}, nil
}

// ChangeSubscription moves the tenant to a new plan or seat count.
// Cancelled subscriptions must be reactivated explicitly.
func (s *Service) ChangeSubscription(ctx context.Context, actorID int64, tenantID, planCode string, seats int) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: subscription is cancelled", ErrValidation)
	}
	if seats < 1 {
		return nil, fmt.Errorf("%w: at least one seat required", ErrValidation)
	}
	plan, err := s.repo.GetPlan(ctx, planCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, planCode)
		}
		return nil, err
	}
	if plan.SeatLimit > 0 && seats > plan.SeatLimit {
		return nil, fmt.Errorf("%w: plan %q allows at most %d seats", ErrValidation, planCode, plan.SeatLimit)
	}

	sub.PlanCode = plan.Code
	sub.Seats = seats
	updated, err := s.repo.UpdateSubscription(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, tenantID, "subscription.change", updated.ID, map[string]any{
		"plan": updated.PlanCode, "seats": updated.Seats,
	})
	return updated, nil
}

// CancelSubscription stops renewal at the end of the current term.
func (s *Service) CancelSubscription(ctx context.Context, actorID int64, tenantID string) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == StatusCancelled {
		return sub, nil
	}
	sub.Status = StatusCancelled
	updated, err := s.repo.UpdateSubscription(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, tenantID, "subscription.cancel", updated.ID, nil)
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, tenantID, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   action,
		Entity:   "subscription",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
