package model

import (
	"time"

	"studyboard/internal/quota"

	"github.com/google/uuid"
)

// UsageCounter tracks one owner's consumption against plan limits. The row is
// shared with the billing subsystem, which writes Role and AICredits.
type UsageCounter struct {
	OwnerID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"owner_id"`
	Role             quota.Plan `gorm:"not null" json:"role"`
	BoardCount       int        `gorm:"not null" json:"board_count"`
	ChatSessionCount int        `gorm:"not null" json:"chat_session_count"`
	AIPromptDate     string     `gorm:"column:ai_prompt_date;not null" json:"ai_prompt_date"`
	AIPromptCount    int        `gorm:"column:ai_prompt_count;not null" json:"ai_prompt_count"`
	AICredits        int        `gorm:"column:ai_credits;not null" json:"ai_credits"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Snapshot converts the counter into the quota gate's view of usage, with the
// daily prompt counter reset if it was recorded on another day.
func (u UsageCounter) Snapshot(today string) quota.Usage {
	return quota.Usage{
		Boards:       u.BoardCount,
		ChatSessions: u.ChatSessionCount,
		PromptDate:   u.AIPromptDate,
		PromptCount:  u.AIPromptCount,
		Credits:      u.AICredits,
	}.Normalize(today)
}
