package service

import (
	"context"
	"fmt"

	"studyboard/internal/apperr"
	"studyboard/internal/quota"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Meter is one resource's consumption against its limit.
type Meter struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Report is the owner-facing view of the usage counters.
type Report struct {
	Plan         quota.Plan `json:"plan"`
	Date         string     `json:"date"`
	Boards       Meter      `json:"boards"`
	ChatSessions Meter      `json:"chat_sessions"`
	Prompts      Meter      `json:"prompts"`
	Credits      int        `json:"credits"`
}

func (s *Lifecycle) Usage(ctx context.Context, ownerID uuid.UUID) (*Report, error) {
	counter, err := s.store.Usage.Ensure(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}
	today := s.today()
	usage := counter.Snapshot(today)
	plan := counter.Role
	return &Report{
		Plan:         plan,
		Date:         today,
		Boards:       Meter{Used: usage.Boards, Limit: s.policy.Limit(plan, quota.KindBoard)},
		ChatSessions: Meter{Used: usage.ChatSessions, Limit: s.policy.Limit(plan, quota.KindChatSession)},
		Prompts:      Meter{Used: usage.PromptCount, Limit: s.policy.Limit(plan, quota.KindAIPrompt)},
		Credits:      usage.Credits,
	}, nil
}

// SetPlan switches the owner's subscription tier.
func (s *Lifecycle) SetPlan(ctx context.Context, ownerID uuid.UUID, plan quota.Plan) (*Report, error) {
	if !plan.Valid() {
		return nil, apperr.Validation("plan must be free or premium")
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := s.store.Usage.SetPlan(ctx, ownerID, plan); err != nil {
		return nil, fmt.Errorf("set plan: %w", err)
	}
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "plan": plan}).Info("plan changed")
	return s.Usage(ctx, ownerID)
}

// GrantCredits adds purchased AI prompt credits. It is reached only from
// the billing API, never from an owner's own session.
func (s *Lifecycle) GrantCredits(ctx context.Context, ownerID uuid.UUID, n int) (*Report, error) {
	if n <= 0 || n > quota.MaxCreditGrant {
		return nil, apperr.Validation(fmt.Sprintf("credits must be between 1 and %d", quota.MaxCreditGrant))
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	added, err := s.store.Usage.AddCredits(ctx, ownerID, n)
	if err != nil {
		return nil, fmt.Errorf("add credits: %w", err)
	}
	if !added {
		return nil, apperr.Validation(fmt.Sprintf("credit balance cannot exceed %d", quota.MaxCreditBalance))
	}
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "credits": n}).Info("credits granted")
	return s.Usage(ctx, ownerID)
}

// requireOwner makes sure the owner exists and has a usage counter before a
// billing change is applied to it.
func (s *Lifecycle) requireOwner(ctx context.Context, ownerID uuid.UUID) error {
	user, err := s.store.Users.GetByID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}
	if _, err := s.store.Usage.Ensure(ctx, ownerID); err != nil {
		return fmt.Errorf("get usage: %w", err)
	}
	return nil
}

// Reconciler recomputes resource counters from the rows that exist,
// repairing drift left by a failed best-effort decrement.
type Reconciler struct {
	store *repository.Store
	log   logrus.FieldLogger
}

func NewReconciler(store *repository.Store, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{store: store, log: log.WithField("component", "reconciler")}
}

func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	n, err := r.store.Usage.Reconcile(ctx)
	if err != nil {
		r.log.WithError(err).Error("usage reconcile failed")
		return 0, fmt.Errorf("reconcile usage: %w", err)
	}
	r.log.WithField("counters", n).Info("usage reconciled")
	return n, nil
}
