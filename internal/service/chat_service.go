package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studyboard/internal/apperr"
	"studyboard/internal/model"
	"studyboard/internal/quota"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultChatTitle = "New chat"

// PromptReceipt records how an AI prompt was paid for.
type PromptReceipt struct {
	UsedCredit bool    `json:"used_credit"`
	Usage      *Report `json:"usage"`
}

func (s *Lifecycle) ListChatSessions(ctx context.Context, ownerID uuid.UUID) ([]model.ChatSession, error) {
	sessions, err := s.store.ChatSessions.GetOwned(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return sessions, nil
}

// CreateChatSession opens an assistant conversation if the owner's plan
// allows another one.
func (s *Lifecycle) CreateChatSession(ctx context.Context, ownerID uuid.UUID, title string) (*model.ChatSession, *quota.Denial, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultChatTitle
	}

	usage, err := s.store.Usage.Ensure(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("get usage: %w", err)
	}
	decision := s.policy.Check(quota.KindChatSession, usage.Role, usage.Snapshot(s.today()))
	if !decision.Allowed {
		return nil, decision.Denial, nil
	}
	limit := s.policy.Limit(usage.Role, quota.KindChatSession)

	var (
		session *model.ChatSession
		lost    bool
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Usage.IncrementBelow(ctx, ownerID, repository.ChatSessionCount, limit)
		if err != nil {
			return fmt.Errorf("count chat session: %w", err)
		}
		if !ok {
			lost = true
			return nil
		}
		session = &model.ChatSession{OwnerID: ownerID, Title: title}
		if err := tx.ChatSessions.Create(ctx, session); err != nil {
			return fmt.Errorf("create chat session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lost {
		denial, err := s.denial(ctx, ownerID, quota.KindChatSession)
		return nil, denial, err
	}
	return session, nil, nil
}

// DeleteChatSession removes a conversation and releases its quota slot.
func (s *Lifecycle) DeleteChatSession(ctx context.Context, ownerID, sessionID uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		session, err := tx.ChatSessions.GetByID(ctx, sessionID)
		if errors.Is(err, repository.ErrChatSessionNotFound) || (err == nil && session.OwnerID != ownerID) {
			return apperr.NotFound("chat session not found")
		}
		if err != nil {
			return fmt.Errorf("get chat session: %w", err)
		}
		if err := tx.ChatSessions.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("delete chat session: %w", err)
		}
		return tx.Usage.Decrement(ctx, ownerID, repository.ChatSessionCount)
	})
}

// ConsumePrompt spends one AI prompt: a slot of today's allowance, or a
// bonus credit once the allowance is used up.
func (s *Lifecycle) ConsumePrompt(ctx context.Context, ownerID uuid.UUID) (*PromptReceipt, *quota.Denial, error) {
	today := s.today()

	// A second attempt covers losing the last daily slot to a concurrent
	// prompt while credits remain.
	for attempt := 0; attempt < 2; attempt++ {
		usage, err := s.store.Usage.Ensure(ctx, ownerID)
		if err != nil {
			return nil, nil, fmt.Errorf("get usage: %w", err)
		}
		decision := s.policy.Check(quota.KindAIPrompt, usage.Role, usage.Snapshot(today))
		if !decision.Allowed {
			return nil, decision.Denial, nil
		}

		var ok bool
		if decision.UseCredit {
			ok, err = s.store.Usage.ConsumeCredit(ctx, ownerID)
		} else {
			ok, err = s.store.Usage.ConsumePrompt(ctx, ownerID, today, s.policy.Limit(usage.Role, quota.KindAIPrompt))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("consume prompt: %w", err)
		}
		if !ok {
			continue
		}

		report, err := s.Usage(ctx, ownerID)
		if err != nil {
			return nil, nil, err
		}
		s.log.WithFields(logrus.Fields{"owner_id": ownerID, "used_credit": decision.UseCredit}).Debug("prompt consumed")
		return &PromptReceipt{UsedCredit: decision.UseCredit, Usage: report}, nil, nil
	}

	denial, err := s.denial(ctx, ownerID, quota.KindAIPrompt)
	return nil, denial, err
}
