package ai

import (
	"context"
	"log/slog"
	"time"
)

// DefaultEscalationThreshold is the confidence below which a result escalates
// to the next tier. Inherited operational constant; configurable, not tuned.
const DefaultEscalationThreshold = 0.7

// Fallback confidence levels.
const (
	fallbackConfidence    = 0.5
	unknownTaskConfidence = 0.3
)

// RouterConfig holds the per-process routing settings. It is immutable after
// construction; admin-facing toggles are the web layer's concern.
type RouterConfig struct {
	Enabled             bool
	CredentialSet       bool
	EscalationThreshold float64
	CheapMaxTokens      int
	ExpensiveMaxTokens  int
	Temperature         float64
	TTLNavigator        time.Duration
	TTLTriage           time.Duration
	TTLDefault          time.Duration
}

// Router orchestrates fingerprinting, cache lookup, sequential tier
// escalation, caching, and fallback-on-error. Route never returns an error to
// the caller: every failure degrades to a deterministic task fallback.
type Router struct {
	cfg       RouterConfig
	cache     *ResponseCache
	guard     *BudgetGuard
	rules     *RulesResolver
	generator Generator
}

// NewRouter wires a router from explicitly constructed parts. generator may
// be nil when no model credential is configured; the rules tier and fallbacks
// still serve every request.
func NewRouter(cfg RouterConfig, cache *ResponseCache, guard *BudgetGuard, rules *RulesResolver, generator Generator) *Router {
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = DefaultEscalationThreshold
	}
	if cfg.TTLNavigator <= 0 {
		cfg.TTLNavigator = 24 * time.Hour
	}
	if cfg.TTLTriage <= 0 {
		cfg.TTLTriage = 2 * time.Hour
	}
	if cfg.TTLDefault <= 0 {
		cfg.TTLDefault = time.Hour
	}
	if cache == nil {
		cache = NewResponseCache(cfg.TTLDefault)
	}
	if guard == nil {
		guard = NewBudgetGuard(BudgetConfig{})
	}
	if rules == nil {
		rules = NewRulesResolver(nil)
	}
	return &Router{
		cfg:       cfg,
		cache:     cache,
		guard:     guard,
		rules:     rules,
		generator: generator,
	}
}

// Route resolves a request through the tier chain. Cache hits return
// immediately with no tier work and no budget charge. The final tier result is
// cached even when its confidence stays low; fallback results are never
// cached so transient failures can be retried on the next identical request.
func (r *Router) Route(ctx context.Context, task Task, input RouteInput, opts RouteOptions) RouteResult {
	switch task {
	case TaskNavigator, TaskTriage, TaskCarePlan:
	default:
		return unknownTaskFallback(task)
	}

	fp := Fingerprint(task, input, opts)
	if cached, ok := r.cache.Get(fp); ok {
		slog.Debug("route cache hit", "task", task.String())
		return cached
	}

	result, uncertain := r.rules.Resolve(task, input)

	for _, tier := range r.modelTiers() {
		if !r.escalates(result, uncertain) {
			break
		}

		gen, err := r.guard.Spend(ctx, "route:"+task.String(), tier.name, tier.maxTokens, func(ctx context.Context) (Generation, error) {
			g, genErr := r.generator.Generate(ctx, task, input, tier.maxTokens, r.cfg.Temperature)
			if genErr != nil {
				return Generation{}, &TierFailureError{Tier: tier.name, Err: genErr}
			}
			return g, nil
		})
		if err != nil {
			slog.Warn("tier call failed, serving fallback",
				"task", task.String(),
				"tier", tier.name.String(),
				"error", err,
			)
			return r.Fallback(task, input)
		}

		result = modelResult(task, input, tier.source, gen)
		uncertain = false
	}

	// An uncertain marker is never terminal: with no model tier available to
	// resolve it, serve the fallback instead. Low-confidence model output at
	// tier exhaustion is a real result and is cached; fallbacks are not.
	if uncertain {
		return r.Fallback(task, input)
	}

	r.cache.Set(fp, result, r.ttlFor(task))
	return result
}

// Stats reports routing, cache, and budget counters. Enabled is true only
// when AI is turned on and a model credential is configured.
func (r *Router) Stats() Stats {
	s := r.guard.Snapshot()
	s.Enabled = r.cfg.Enabled && r.cfg.CredentialSet
	s.CacheHitRate = r.cache.HitRate()
	s.CacheSize = r.cache.Size()
	return s
}

type modelTier struct {
	name      Tier
	source    string
	maxTokens int
}

// modelTiers returns the escalation chain past rules, empty when the AI
// subsystem cannot make model calls.
func (r *Router) modelTiers() []modelTier {
	if !r.cfg.Enabled || r.generator == nil {
		return nil
	}
	return []modelTier{
		{name: TierCheap, source: SourceCheap, maxTokens: r.cfg.CheapMaxTokens},
		{name: TierExpensive, source: SourceExpensive, maxTokens: r.cfg.ExpensiveMaxTokens},
	}
}

// escalates is the shared escalation predicate across tiers.
func (r *Router) escalates(result RouteResult, uncertain bool) bool {
	return uncertain || result.Confidence < r.cfg.EscalationThreshold
}

func (r *Router) ttlFor(task Task) time.Duration {
	switch task {
	case TaskNavigator:
		return r.cfg.TTLNavigator
	case TaskTriage, TaskCarePlan:
		return r.cfg.TTLTriage
	default:
		return r.cfg.TTLDefault
	}
}

// modelResult shapes a model generation into the task's result payload.
func modelResult(task Task, input RouteInput, source string, gen Generation) RouteResult {
	result := RouteResult{
		Task:       task,
		Source:     source,
		Confidence: gen.Confidence,
	}

	switch task {
	case TaskNavigator:
		result.Navigator = &NavigatorAnswer{Response: gen.Text}
	case TaskTriage:
		priority := "medium"
		if input.Client != nil && input.Client.Urgency != "" {
			priority = input.Client.Urgency
		}
		result.Triage = &TriageAssessment{
			Priority:        priority,
			Recommendations: []string{gen.Text},
			NextSteps:       []string{"Review assessment with assigned caseworker"},
		}
	case TaskCarePlan:
		result.CarePlan = &CarePlanDraft{
			Goals:      []string{"Stabilize immediate needs", "Build toward long-term self-sufficiency"},
			Tasks:      []string{"Review draft plan with caseworker"},
			Resources:  []string{"Caseworker-curated resource list"},
			Timeline:   "90 days",
			ReviewDate: time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
			Narrative:  gen.Text,
		}
	}
	return result
}

// Fallback returns the deterministic degraded result for a task. The web
// layer always receives a usable suggestion, never an error page.
func (r *Router) Fallback(task Task, input RouteInput) RouteResult {
	switch task {
	case TaskNavigator:
		return RouteResult{
			Task:       TaskNavigator,
			Source:     SourceFallback,
			Confidence: fallbackConfidence,
			Navigator: &NavigatorAnswer{
				Response: "I'm having trouble answering right now. Please call our front desk or visit the office, and a staff member will help you directly.",
			},
		}
	case TaskTriage:
		priority := "medium"
		if input.Client != nil && input.Client.Urgency != "" {
			priority = input.Client.Urgency
		}
		return RouteResult{
			Task:       TaskTriage,
			Source:     SourceFallback,
			Confidence: fallbackConfidence,
			Triage: &TriageAssessment{
				Priority:        priority,
				Recommendations: []string{"Schedule a full intake assessment with a caseworker"},
				NextSteps:       []string{"Caseworker will review this request manually"},
			},
		}
	case TaskCarePlan:
		return RouteResult{
			Task:       TaskCarePlan,
			Source:     SourceFallback,
			Confidence: fallbackConfidence,
			CarePlan: &CarePlanDraft{
				Goals:      []string{"Stabilize immediate needs"},
				Tasks:      []string{"Meet with caseworker to draft a full plan"},
				Resources:  []string{"Front desk resource directory"},
				Timeline:   "90 days",
				ReviewDate: time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
			},
		}
	default:
		return unknownTaskFallback(task)
	}
}

func unknownTaskFallback(task Task) RouteResult {
	return RouteResult{
		Task:       task,
		Source:     SourceFallback,
		Confidence: unknownTaskConfidence,
		Navigator: &NavigatorAnswer{
			Response: "This request could not be understood. Please contact the office for assistance.",
		},
	}
}
