package ai

import (
	"strings"
	"time"

	"github.com/caseflow-ai/caseflow/internal/guidance"
)

// Confidence levels produced by the rules tier.
const (
	rulesMatchConfidence     = 0.9
	rulesGreetingConfidence  = 0.8
	rulesUncertainConfidence = 0.4
	rulesUrgentConfidence    = 0.95
	rulesAssessConfidence    = 0.8
	rulesPlanConfidence      = 0.8
)

var greetingWords = []string{"help", "hello", "start"}

// Fixed urgent-branch recommendations.
var urgentHousingRecommendations = []string{
	"Contact emergency shelter network for immediate placement",
	"Expedite rental assistance application",
	"Assign housing specialist within 24 hours",
}

var urgentSafetyRecommendations = []string{
	"Connect with crisis counselor today",
	"Complete safety assessment with licensed clinician",
	"Provide 24/7 crisis line contact information",
}

// Per-need recommendation and next-step pairs for routine assessments.
var needGuidance = map[string]struct {
	recommendation string
	nextStep       string
}{
	"housing": {
		recommendation: "Refer to housing assistance program",
		nextStep:       "Complete housing application with caseworker",
	},
	"employment": {
		recommendation: "Enroll in employment services",
		nextStep:       "Attend next resume workshop",
	},
	"medical": {
		recommendation: "Refer to community health clinic",
		nextStep:       "Schedule initial medical appointment",
	},
}

// RulesResolver is the deterministic tier: keyword tables for navigator
// queries, urgency branching for triage, and template selection for care
// plans. It never consumes tokens.
type RulesResolver struct {
	catalog *guidance.Catalog
	now     func() time.Time
}

// NewRulesResolver creates a rules resolver over the given guidance catalog.
func NewRulesResolver(catalog *guidance.Catalog) *RulesResolver {
	if catalog == nil {
		catalog = guidance.NewCatalog()
	}
	return &RulesResolver{
		catalog: catalog,
		now:     time.Now,
	}
}

// Resolve returns the rules-tier result and whether it should escalate as
// uncertain.
func (r *RulesResolver) Resolve(task Task, input RouteInput) (RouteResult, bool) {
	switch task {
	case TaskNavigator:
		return r.resolveNavigator(input.Query)
	case TaskTriage:
		return r.resolveTriage(input.Client)
	case TaskCarePlan:
		return r.resolveCarePlan(input.Client)
	default:
		return RouteResult{Task: task, Source: SourceRules, Confidence: rulesUncertainConfidence}, true
	}
}

func (r *RulesResolver) resolveNavigator(query string) (RouteResult, bool) {
	q := strings.ToLower(query)

	for _, cat := range r.catalog.Categories() {
		for _, kw := range cat.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				return RouteResult{
					Task:       TaskNavigator,
					Source:     SourceRules,
					Confidence: rulesMatchConfidence,
					Navigator: &NavigatorAnswer{
						Response: cat.Response,
						Category: cat.ID,
					},
				}, false
			}
		}
	}

	for _, w := range greetingWords {
		if strings.Contains(q, w) {
			return RouteResult{
				Task:       TaskNavigator,
				Source:     SourceRules,
				Confidence: rulesGreetingConfidence,
				Navigator:  &NavigatorAnswer{Response: guidance.DefaultGreeting},
			}, false
		}
	}

	return RouteResult{
		Task:       TaskNavigator,
		Source:     SourceRules,
		Confidence: rulesUncertainConfidence,
		Navigator:  &NavigatorAnswer{Response: guidance.DefaultClarifyingPrompt},
	}, true
}

func (r *RulesResolver) resolveTriage(client *ClientRecord) (RouteResult, bool) {
	if client == nil {
		return RouteResult{Task: TaskTriage, Source: SourceRules, Confidence: rulesUncertainConfidence}, true
	}

	urgency := strings.ToLower(client.Urgency)
	urgent := urgency == "high" || urgency == "critical"

	if urgent && hasNeed(client.Needs, "housing") {
		return RouteResult{
			Task:       TaskTriage,
			Source:     SourceRules,
			Confidence: rulesUrgentConfidence,
			Triage: &TriageAssessment{
				Priority:        "urgent",
				Recommendations: append([]string{}, urgentHousingRecommendations...),
				NextSteps:       []string{"Caseworker contact within 24 hours", "Prepare identity and income documents"},
			},
		}, false
	}

	if hasNeed(client.Needs, "mental-health") || hasNeed(client.Needs, "substance-abuse") {
		return RouteResult{
			Task:       TaskTriage,
			Source:     SourceRules,
			Confidence: rulesUrgentConfidence,
			Triage: &TriageAssessment{
				Priority:        "urgent",
				Recommendations: append([]string{}, urgentSafetyRecommendations...),
				NextSteps:       []string{"Same-day welfare check by clinical staff", "Schedule follow-up within 48 hours"},
			},
		}, false
	}

	assessment := &TriageAssessment{Priority: client.Urgency}
	for _, need := range client.Needs {
		g, ok := needGuidance[strings.ToLower(strings.TrimSpace(need))]
		if !ok {
			continue
		}
		assessment.Recommendations = append(assessment.Recommendations, g.recommendation)
		assessment.NextSteps = append(assessment.NextSteps, g.nextStep)
	}

	return RouteResult{
		Task:       TaskTriage,
		Source:     SourceRules,
		Confidence: rulesAssessConfidence,
		Triage:     assessment,
	}, false
}

func (r *RulesResolver) resolveCarePlan(client *ClientRecord) (RouteResult, bool) {
	if client == nil {
		return RouteResult{Task: TaskCarePlan, Source: SourceRules, Confidence: rulesUncertainConfidence}, true
	}

	templateID := guidance.HousingFocused
	if len(client.Needs) > 0 {
		first := strings.ToLower(client.Needs[0])
		switch {
		case strings.Contains(first, "employment"):
			templateID = guidance.EmploymentFocused
		case strings.Contains(first, "medical"), strings.Contains(first, "mental-health"):
			templateID = guidance.HealthFocused
		}
	}

	tmpl, ok := r.catalog.Template(templateID)
	if !ok {
		return RouteResult{Task: TaskCarePlan, Source: SourceRules, Confidence: rulesUncertainConfidence}, true
	}

	return RouteResult{
		Task:       TaskCarePlan,
		Source:     SourceRules,
		Confidence: rulesPlanConfidence,
		CarePlan: &CarePlanDraft{
			Goals:      append([]string{}, tmpl.Goals...),
			Tasks:      append([]string{}, tmpl.Tasks...),
			Resources:  append([]string{}, tmpl.Resources...),
			Timeline:   "90 days",
			ReviewDate: r.now().AddDate(0, 0, 30).Format("2006-01-02"),
		},
	}, false
}

func hasNeed(needs []string, want string) bool {
	for _, n := range needs {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return true
		}
	}
	return false
}
