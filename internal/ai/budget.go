package ai

import (
	"context"
	"sync"
	"time"
)

// Tier is one of the escalation tiers in cost order.
type Tier int

const (
	TierRules Tier = iota
	TierCheap
	TierExpensive
)

func (t Tier) String() string {
	switch t {
	case TierRules:
		return "rules"
	case TierCheap:
		return "cheap"
	case TierExpensive:
		return "expensive"
	default:
		return "unknown"
	}
}

// BudgetConfig holds the token ceilings and cost estimate for a guard.
type BudgetConfig struct {
	DailyTokenCeiling int64
	CheapCeiling      int
	ExpensiveCeiling  int
	CostPerToken      float64
}

// BudgetGuard tracks per-day token consumption against configured ceilings
// and counts model calls by tier. Daily usage resets lazily when the
// process-local calendar date advances; cumulative counters never reset.
type BudgetGuard struct {
	mu  sync.Mutex
	cfg BudgetConfig

	dailyTokens     int64
	lastResetDate   string
	cheapCalls      int64
	expensiveCalls  int64
	totalTokensEver int64

	now func() time.Time
}

// NewBudgetGuard creates a budget guard.
func NewBudgetGuard(cfg BudgetConfig) *BudgetGuard {
	g := &BudgetGuard{
		cfg: cfg,
		now: time.Now,
	}
	g.lastResetDate = dateKey(g.now())
	return g
}

// CanSpend reports whether a call with the given token estimate fits both the
// tier ceiling and the remaining daily budget.
func (g *BudgetGuard) CanSpend(tokens int, tier Tier) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSpendLocked(tokens, tier)
}

func (g *BudgetGuard) canSpendLocked(tokens int, tier Tier) bool {
	g.maybeResetLocked()

	if int64(tokens) > g.tierCeiling(tier) {
		return false
	}
	return g.dailyTokens+int64(tokens) <= g.cfg.DailyTokenCeiling
}

// Spend runs op under the budget. If the estimate does not fit, op is never
// invoked and a BudgetExceededError is returned. If op fails, the error
// propagates and nothing is charged: a failed generation produced no value.
// On success the daily usage and the tier's call counter are updated before
// Spend returns.
func (g *BudgetGuard) Spend(ctx context.Context, label string, tier Tier, tokens int, op func(context.Context) (Generation, error)) (Generation, error) {
	g.mu.Lock()
	if !g.canSpendLocked(tokens, tier) {
		err := &BudgetExceededError{
			Label:     label,
			Tier:      tier,
			Requested: tokens,
			Ceiling:   g.cfg.DailyTokenCeiling,
			Used:      g.dailyTokens,
		}
		g.mu.Unlock()
		return Generation{}, err
	}
	g.mu.Unlock()

	gen, err := op(ctx)
	if err != nil {
		return Generation{}, err
	}

	g.mu.Lock()
	g.maybeResetLocked()
	g.dailyTokens += int64(tokens)
	g.totalTokensEver += int64(tokens)
	switch tier {
	case TierCheap:
		g.cheapCalls++
	case TierExpensive:
		g.expensiveCalls++
	}
	g.mu.Unlock()

	return gen, nil
}

// Snapshot returns the guard's current counters after the lazy reset check.
func (g *BudgetGuard) Snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.maybeResetLocked()

	s := Stats{
		CheapCalls:         g.cheapCalls,
		ExpensiveCalls:     g.expensiveCalls,
		DailyTokens:        g.dailyTokens,
		EstimatedDailyCost: float64(g.dailyTokens) * g.cfg.CostPerToken,
	}
	if g.cfg.DailyTokenCeiling > 0 {
		s.DailyBudgetUsedPercent = 100 * float64(g.dailyTokens) / float64(g.cfg.DailyTokenCeiling)
	}
	return s
}

func (g *BudgetGuard) tierCeiling(tier Tier) int64 {
	switch tier {
	case TierCheap:
		return int64(g.cfg.CheapCeiling)
	case TierExpensive:
		return int64(g.cfg.ExpensiveCeiling)
	default:
		// The rules tier consumes no tokens and is never guarded.
		return 0
	}
}

// maybeResetLocked zeroes the daily token count when the calendar date has
// advanced past the last reset. Per-tier call counters are cumulative and
// survive the reset.
func (g *BudgetGuard) maybeResetLocked() {
	today := dateKey(g.now())
	if today != g.lastResetDate {
		g.dailyTokens = 0
		g.lastResetDate = today
	}
}
