package ai

import "fmt"

// BudgetExceededError is returned by the budget guard when a call would exceed
// a per-tier or daily token ceiling. The guarded operation is never invoked.
type BudgetExceededError struct {
	Label     string
	Tier      Tier
	Requested int
	Ceiling   int64
	Used      int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for %s (%s tier): requested %d tokens, ceiling %d, used %d",
		e.Label, e.Tier, e.Requested, e.Ceiling, e.Used)
}

// TierFailureError wraps an error from a model tier (provider error, timeout,
// malformed response). The router absorbs it and degrades to a fallback.
type TierFailureError struct {
	Tier Tier
	Err  error
}

func (e *TierFailureError) Error() string {
	return fmt.Sprintf("%s tier failed: %v", e.Tier, e.Err)
}

func (e *TierFailureError) Unwrap() error {
	return e.Err
}
