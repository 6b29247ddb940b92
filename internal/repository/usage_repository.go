package repository

import (
	"context"
	"errors"
	"fmt"

	"studyboard/internal/model"
	"studyboard/internal/quota"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter names a resource counter column of usage_counters.
type Counter string

const (
	BoardCount       Counter = "board_count"
	ChatSessionCount Counter = "chat_session_count"
)

// UsageRepository owns the per-user usage counters. Every write is a single
// conditional UPDATE evaluated by the database, so two concurrent requests
// cannot both pass a limit check.
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Ensure returns the owner's counter row, creating a free-plan row first if
// none exists.
func (r *UsageRepository) Ensure(ctx context.Context, ownerID uuid.UUID) (*model.UsageCounter, error) {
	row := model.UsageCounter{OwnerID: ownerID, Role: quota.PlanFree}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create usage counter: %w", err)
	}
	return r.Get(ctx, ownerID)
}

func (r *UsageRepository) Get(ctx context.Context, ownerID uuid.UUID) (*model.UsageCounter, error) {
	var usage model.UsageCounter
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsageNotFound
		}
		return nil, err
	}
	return &usage, nil
}

// IncrementBelow adds one to counter if it is currently below limit and
// reports whether it did.
func (r *UsageRepository) IncrementBelow(ctx context.Context, ownerID uuid.UUID, counter Counter, limit int) (bool, error) {
	col := string(counter)
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ? AND "+col+" < ?", ownerID, limit).
		Update(col, gorm.Expr(col+" + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Increment adds one to counter without a limit check.
func (r *UsageRepository) Increment(ctx context.Context, ownerID uuid.UUID, counter Counter) error {
	col := string(counter)
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ?", ownerID).
		Update(col, gorm.Expr(col+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageNotFound
	}
	return nil
}

// Decrement subtracts one from counter, never going below zero.
func (r *UsageRepository) Decrement(ctx context.Context, ownerID uuid.UUID, counter Counter) error {
	col := string(counter)
	return r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ? AND "+col+" > 0", ownerID).
		Update(col, gorm.Expr(col+" - 1")).Error
}

// ConsumePrompt records one AI prompt for today if today's count is below
// limit. A count recorded on an earlier day restarts at one.
func (r *UsageRepository) ConsumePrompt(ctx context.Context, ownerID uuid.UUID, today string, limit int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ? AND (ai_prompt_date <> ? OR ai_prompt_count < ?)", ownerID, today, limit).
		Updates(map[string]any{
			"ai_prompt_count": gorm.Expr("CASE WHEN ai_prompt_date = ? THEN ai_prompt_count + 1 ELSE 1 END", today),
			"ai_prompt_date":  today,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ConsumeCredit spends one bonus credit if any remain.
func (r *UsageRepository) ConsumeCredit(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ? AND ai_credits > 0", ownerID).
		Update("ai_credits", gorm.Expr("ai_credits - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UsageRepository) SetPlan(ctx context.Context, ownerID uuid.UUID, plan quota.Plan) error {
	return r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ?", ownerID).
		Update("role", plan).Error
}

// AddCredits adds n credits unless the balance would pass
// quota.MaxCreditBalance, in which case it reports false and writes nothing.
func (r *UsageRepository) AddCredits(ctx context.Context, ownerID uuid.UUID, n int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("owner_id = ? AND ai_credits <= ?", ownerID, quota.MaxCreditBalance-n).
		Update("ai_credits", gorm.Expr("ai_credits + ?", n))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Reconcile recomputes the board and chat session counters of every owner
// from the rows that actually exist and returns the number of counters
// touched.
func (r *UsageRepository) Reconcile(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.UsageCounter{}).
		Where("1 = 1").
		Updates(map[string]any{
			"board_count":        gorm.Expr("(SELECT COUNT(*) FROM boards WHERE boards.owner_id = usage_counters.owner_id)"),
			"chat_session_count": gorm.Expr("(SELECT COUNT(*) FROM chat_sessions WHERE chat_sessions.owner_id = usage_counters.owner_id)"),
		})
	return result.RowsAffected, result.Error
}
