// Package quota decides whether a user may create another quota-limited
// resource. It holds the plan policy table and has no side effects: callers
// apply the consequence of a decision themselves.
package quota

import (
	"fmt"
	"time"
)

// Kind is a quota-limited resource.
type Kind string

const (
	KindBoard       Kind = "board"
	KindChatSession Kind = "chat_session"
	KindAIPrompt    Kind = "ai_prompt"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// Credit grants are bounded so the stored balance fits a 32-bit column.
const (
	MaxCreditGrant   = 10000
	MaxCreditBalance = 1000000
)

// DateLayout is the calendar-day format used for the daily prompt counter.
const DateLayout = "2006-01-02"

// Today returns the calendar day of now in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Limits maps a resource kind to its maximum count.
type Limits map[Kind]int

// Policy maps a plan to its limits.
type Policy map[Plan]Limits

// DefaultPolicy is the production plan table. AI prompt limits are per day.
var DefaultPolicy = Policy{
	PlanFree: {
		KindBoard:       2,
		KindChatSession: 2,
		KindAIPrompt:    5,
	},
	PlanPremium: {
		KindBoard:       5,
		KindChatSession: 10,
		KindAIPrompt:    50,
	},
}

// Limit returns the limit for kind under plan. Unknown plans fall back to
// the free tier.
func (p Policy) Limit(plan Plan, kind Kind) int {
	limits, ok := p[plan]
	if !ok {
		limits = p[PlanFree]
	}
	return limits[kind]
}

// Usage is a point-in-time view of a user's consumption.
type Usage struct {
	Boards       int
	ChatSessions int
	PromptDate   string
	PromptCount  int
	Credits      int
}

// Normalize applies the lazy daily reset: a prompt count recorded on a day
// other than today counts as zero.
func (u Usage) Normalize(today string) Usage {
	if u.PromptDate != today {
		u.PromptDate = today
		u.PromptCount = 0
	}
	return u
}

// Count returns the current consumption for kind.
func (u Usage) Count(kind Kind) int {
	switch kind {
	case KindBoard:
		return u.Boards
	case KindChatSession:
		return u.ChatSessions
	case KindAIPrompt:
		return u.PromptCount
	default:
		return 0
	}
}

// Denial explains why a creation was refused. It is a value for the caller
// to render, not an error.
type Denial struct {
	Kind    Kind `json:"kind"`
	Limit   int  `json:"limit"`
	Current int  `json:"current"`
	Plan    Plan `json:"plan"`
}

// Message is a short human-readable description of the denial.
func (d Denial) Message() string {
	return fmt.Sprintf("%s limit reached on %s plan (%d/%d)", d.Kind, d.Plan, d.Current, d.Limit)
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	// UseCredit is set when an AI prompt is allowed only because bonus
	// credits remain; the caller spends one credit instead of incrementing
	// the daily counter.
	UseCredit bool
	Denial    *Denial
}

// Check decides whether one more resource of kind may be created.
// usage must already be normalized for the current day.
func (p Policy) Check(kind Kind, plan Plan, usage Usage) Decision {
	limit := p.Limit(plan, kind)
	current := usage.Count(kind)
	if current < limit {
		return Decision{Allowed: true}
	}
	if kind == KindAIPrompt && usage.Credits > 0 {
		return Decision{Allowed: true, UseCredit: true}
	}
	return Decision{Denial: &Denial{Kind: kind, Limit: limit, Current: current, Plan: plan}}
}

// Check runs DefaultPolicy.Check.
func Check(kind Kind, plan Plan, usage Usage) Decision {
	return DefaultPolicy.Check(kind, plan, usage)
}
