package quota_test

import (
	"testing"
	"time"

	"studyboard/internal/quota"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_DeniedAtLimit(t *testing.T) {
	tests := []struct {
		name  string
		kind  quota.Kind
		plan  quota.Plan
		limit int
	}{
		{"free boards", quota.KindBoard, quota.PlanFree, 2},
		{"premium boards", quota.KindBoard, quota.PlanPremium, 5},
		{"free chat sessions", quota.KindChatSession, quota.PlanFree, 2},
		{"premium chat sessions", quota.KindChatSession, quota.PlanPremium, 10},
		{"free prompts", quota.KindAIPrompt, quota.PlanFree, 5},
		{"premium prompts", quota.KindAIPrompt, quota.PlanPremium, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var usage quota.Usage
			for i := 0; i < tt.limit; i++ {
				setCount(&usage, tt.kind, i)
				assert.True(t, quota.Check(tt.kind, tt.plan, usage).Allowed, "creation %d", i+1)
			}

			setCount(&usage, tt.kind, tt.limit)
			decision := quota.Check(tt.kind, tt.plan, usage)
			assert.False(t, decision.Allowed)
			require.NotNil(t, decision.Denial)
			assert.Equal(t, quota.Denial{Kind: tt.kind, Limit: tt.limit, Current: tt.limit, Plan: tt.plan}, *decision.Denial)

			// A deletion brings usage back under the limit.
			setCount(&usage, tt.kind, tt.limit-1)
			assert.True(t, quota.Check(tt.kind, tt.plan, usage).Allowed)
		})
	}
}

func TestCheck_CreditFallback(t *testing.T) {
	usage := quota.Usage{PromptDate: "2026-10-19", PromptCount: 5, Credits: 2}

	decision := quota.Check(quota.KindAIPrompt, quota.PlanFree, usage)

	assert.True(t, decision.Allowed)
	assert.True(t, decision.UseCredit)
	assert.Nil(t, decision.Denial)
}

func TestCheck_CreditsIgnoredForOtherKinds(t *testing.T) {
	usage := quota.Usage{Boards: 2, Credits: 10}

	decision := quota.Check(quota.KindBoard, quota.PlanFree, usage)

	assert.False(t, decision.Allowed)
	assert.False(t, decision.UseCredit)
}

func TestCheck_UnknownPlanUsesFreeLimits(t *testing.T) {
	decision := quota.Check(quota.KindBoard, quota.Plan("gold"), quota.Usage{Boards: 2})

	require.NotNil(t, decision.Denial)
	assert.Equal(t, 2, decision.Denial.Limit)
}

func TestUsage_NormalizeResetsStaleDay(t *testing.T) {
	today := quota.Today(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))

	stale := quota.Usage{PromptDate: "2026-10-18", PromptCount: 5}.Normalize(today)
	assert.Equal(t, 0, stale.PromptCount)
	assert.Equal(t, today, stale.PromptDate)

	fresh := quota.Usage{PromptDate: today, PromptCount: 3}.Normalize(today)
	assert.Equal(t, 3, fresh.PromptCount)
}

func TestPolicy_Override(t *testing.T) {
	policy := quota.Policy{quota.PlanFree: {quota.KindBoard: 1}}

	assert.True(t, policy.Check(quota.KindBoard, quota.PlanFree, quota.Usage{}).Allowed)
	assert.False(t, policy.Check(quota.KindBoard, quota.PlanFree, quota.Usage{Boards: 1}).Allowed)
}

func setCount(u *quota.Usage, kind quota.Kind, n int) {
	switch kind {
	case quota.KindBoard:
		u.Boards = n
	case quota.KindChatSession:
		u.ChatSessions = n
	case quota.KindAIPrompt:
		u.PromptCount = n
	}
}
