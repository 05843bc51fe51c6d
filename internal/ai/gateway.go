// Package ai provides the tiered response router for the resident navigator:
// deterministic rules first, then a cheap model, then an expensive model, with
// response caching and a daily token budget in front of every model call.
package ai

import (
	"context"
	"fmt"
	"time"
)

// Task identifies the kind of AI request for routing purposes.
type Task int

const (
	TaskNavigator Task = iota
	TaskTriage
	TaskCarePlan
)

func (t Task) String() string {
	switch t {
	case TaskNavigator:
		return "navigator"
	case TaskTriage:
		return "triage"
	case TaskCarePlan:
		return "careplan"
	default:
		return "unknown"
	}
}

// ParseTask maps a wire-level task name to a Task.
func ParseTask(s string) (Task, error) {
	switch s {
	case "navigator":
		return TaskNavigator, nil
	case "triage":
		return TaskTriage, nil
	case "careplan":
		return TaskCarePlan, nil
	default:
		return 0, fmt.Errorf("unknown task: %q", s)
	}
}

// ClientRecord is the slice of a client's intake record the router triages.
type ClientRecord struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Needs   []string `json:"needs"`
	Urgency string   `json:"urgency"`
	Notes   string   `json:"notes,omitempty"`
}

// RouteInput is the input to a route call. Navigator requests carry a free-text
// Query; triage and care-plan requests carry a Client record.
type RouteInput struct {
	Query  string        `json:"query,omitempty"`
	Client *ClientRecord `json:"client,omitempty"`
}

// RouteOptions carries optional request context passed through to the tiers.
type RouteOptions struct {
	Context           string `json:"context,omitempty"`
	CaseworkerContext string `json:"caseworker_context,omitempty"`
	Input             string `json:"input,omitempty"`
}

// NavigatorAnswer is the payload for navigator responses.
type NavigatorAnswer struct {
	Response string `json:"response"`
	Category string `json:"category,omitempty"`
}

// TriageAssessment is the payload for triage responses.
type TriageAssessment struct {
	Priority        string   `json:"priority"`
	Recommendations []string `json:"recommendations"`
	NextSteps       []string `json:"next_steps"`
}

// CarePlanDraft is the payload for care-plan responses.
type CarePlanDraft struct {
	Goals      []string `json:"goals"`
	Tasks      []string `json:"tasks"`
	Resources  []string `json:"resources"`
	Timeline   string   `json:"timeline"`
	ReviewDate string   `json:"review_date"`
	Narrative  string   `json:"narrative,omitempty"`
}

// RouteResult is the outcome of a route call. Exactly one of the task payloads
// is set, matching Task.
type RouteResult struct {
	Task       Task              `json:"-"`
	Source     string            `json:"source"`
	Confidence float64           `json:"confidence"`
	Navigator  *NavigatorAnswer  `json:"navigator,omitempty"`
	Triage     *TriageAssessment `json:"triage,omitempty"`
	CarePlan   *CarePlanDraft    `json:"careplan,omitempty"`
}

// Result sources.
const (
	SourceRules     = "rules"
	SourceCheap     = "cheap-model"
	SourceExpensive = "expensive-model"
	SourceFallback  = "fallback"
)

// Generation is the raw output of a model tier.
type Generation struct {
	Text       string
	Confidence float64
}

// Generator is the injected model capability behind the cheap and expensive
// tiers. Implementations must honor ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, task Task, input RouteInput, maxTokens int, temperature float64) (Generation, error)
}

// Stats is the read-only snapshot returned by Router.Stats.
type Stats struct {
	Enabled                bool    `json:"enabled"`
	CacheHitRate           float64 `json:"cache_hit_rate"`
	CacheSize              int     `json:"cache_size"`
	CheapCalls             int64   `json:"cheap_calls"`
	ExpensiveCalls         int64   `json:"expensive_calls"`
	DailyTokens            int64   `json:"daily_tokens"`
	DailyBudgetUsedPercent float64 `json:"daily_budget_used_percent"`
	EstimatedDailyCost     float64 `json:"estimated_daily_cost"`
}

// dateKey formats a wall-clock instant as the calendar-date string used for
// the lazy daily budget reset. The comparison runs in the process-local time
// zone; a documented simplification, not something to silently change to UTC.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
