package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/caseflow-ai/caseflow/internal/ai"
)

func newTestRouter(enabled bool, gen ai.Generator, daily int64) *ai.Router {
	guard := ai.NewBudgetGuard(ai.BudgetConfig{
		DailyTokenCeiling: daily,
		CheapCeiling:      500,
		ExpensiveCeiling:  2000,
		CostPerToken:      0.001,
	})
	cfg := ai.RouterConfig{
		Enabled:            enabled,
		CredentialSet:      gen != nil,
		CheapMaxTokens:     500,
		ExpensiveMaxTokens: 2000,
		TTLNavigator:       24 * time.Hour,
		TTLTriage:          2 * time.Hour,
		TTLDefault:         time.Hour,
	}
	return ai.NewRouter(cfg, ai.NewResponseCache(time.Hour), guard, ai.NewRulesResolver(nil), gen)
}

func TestRouter_HousingScenario(t *testing.T) {
	r := newTestRouter(false, nil, 10000)

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "I need help with housing"}, ai.RouteOptions{})

	if result.Source != ai.SourceRules {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceRules)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}
	if result.Navigator == nil || result.Navigator.Category != "housing" {
		t.Errorf("Navigator = %+v, want housing category", result.Navigator)
	}
}

func TestRouter_IdempotentCache(t *testing.T) {
	gen := ai.NewMockGenerator("model answer", 0.9)
	r := newTestRouter(true, gen, 10000)

	input := ai.RouteInput{Query: "something the rules cannot place"}
	opts := ai.RouteOptions{}

	first := r.Route(context.Background(), ai.TaskNavigator, input, opts)
	tokensAfterFirst := r.Stats().DailyTokens
	callsAfterFirst := gen.Calls

	second := r.Route(context.Background(), ai.TaskNavigator, input, opts)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("cached result differs:\n%s\n%s", a, b)
	}
	if gen.Calls != callsAfterFirst {
		t.Errorf("generator calls = %d, want %d (cache hit must do no tier work)", gen.Calls, callsAfterFirst)
	}
	if got := r.Stats().DailyTokens; got != tokensAfterFirst {
		t.Errorf("DailyTokens = %d, want %d (cache hit must not charge budget)", got, tokensAfterFirst)
	}
}

func TestRouter_EscalationMonotonicity(t *testing.T) {
	gen := ai.NewMockGenerator("should never be used", 0.99)
	r := newTestRouter(true, gen, 10000)

	r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "help with housing please"}, ai.RouteOptions{})

	if gen.Calls != 0 {
		t.Errorf("generator calls = %d, want 0 (confident rules result must not escalate)", gen.Calls)
	}
}

func TestRouter_EscalatesWhenUncertain(t *testing.T) {
	gen := ai.NewMockGenerator("cheap tier answer", 0.85)
	r := newTestRouter(true, gen, 10000)

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})

	if gen.Calls != 1 {
		t.Errorf("generator calls = %d, want 1 (cheap tier only)", gen.Calls)
	}
	if result.Source != ai.SourceCheap {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceCheap)
	}
	if result.Navigator == nil || result.Navigator.Response != "cheap tier answer" {
		t.Errorf("Navigator = %+v, want the cheap tier's text", result.Navigator)
	}
}

func TestRouter_EscalatesToExpensive(t *testing.T) {
	// Low-confidence cheap output escalates to the expensive tier; the
	// expensive output is terminal and cached regardless of its confidence.
	gen := ai.NewMockGenerator("model answer", 0.5)
	r := newTestRouter(true, gen, 10000)

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})

	if gen.Calls != 2 {
		t.Errorf("generator calls = %d, want 2 (cheap then expensive)", gen.Calls)
	}
	if result.Source != ai.SourceExpensive {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceExpensive)
	}

	// Tier-exhaustion output is served from cache on the next call.
	gen.Calls = 0
	r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})
	if gen.Calls != 0 {
		t.Errorf("generator calls = %d, want 0 (terminal result should be cached)", gen.Calls)
	}
}

func TestRouter_BudgetEnforcement(t *testing.T) {
	// Daily ceiling 1000, cheap cost 500: floor(1000/500) = 2 model-backed
	// requests succeed, the third degrades to a fallback without an error
	// escaping Route.
	gen := ai.NewMockGenerator("model answer", 0.9)
	r := newTestRouter(true, gen, 1000)

	queries := []string{"qqqq one", "qqqq two", "qqqq three"}

	for i, q := range queries[:2] {
		result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: q}, ai.RouteOptions{})
		if result.Source != ai.SourceCheap {
			t.Fatalf("call %d: Source = %q, want %q", i+1, result.Source, ai.SourceCheap)
		}
	}

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: queries[2]}, ai.RouteOptions{})
	if result.Source != ai.SourceFallback {
		t.Errorf("Source = %q, want %q after budget exhaustion", result.Source, ai.SourceFallback)
	}

	s := r.Stats()
	if s.CheapCalls != 2 {
		t.Errorf("CheapCalls = %d, want 2", s.CheapCalls)
	}
	if s.DailyTokens != 1000 {
		t.Errorf("DailyTokens = %d, want 1000", s.DailyTokens)
	}
}

func TestRouter_TierFailureNotCharged(t *testing.T) {
	gen := &ai.MockGenerator{Err: errors.New("provider unavailable")}
	r := newTestRouter(true, gen, 10000)

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})

	if result.Source != ai.SourceFallback {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceFallback)
	}

	s := r.Stats()
	if s.DailyTokens != 0 {
		t.Errorf("DailyTokens = %d, want 0 (failed tier call must not be charged)", s.DailyTokens)
	}
	if s.CheapCalls != 0 {
		t.Errorf("CheapCalls = %d, want 0", s.CheapCalls)
	}
}

func TestRouter_FallbackNotCached(t *testing.T) {
	gen := &ai.MockGenerator{Err: errors.New("transient outage")}
	r := newTestRouter(true, gen, 10000)

	input := ai.RouteInput{Query: "zxcv unclassifiable"}
	r.Route(context.Background(), ai.TaskNavigator, input, ai.RouteOptions{})

	// Provider recovers: the identical request must retry the tier, not be
	// pinned to the degraded answer.
	gen.Err = nil
	gen.Text = "recovered answer"
	gen.Confidence = 0.9

	result := r.Route(context.Background(), ai.TaskNavigator, input, ai.RouteOptions{})
	if result.Source != ai.SourceCheap {
		t.Errorf("Source = %q, want %q (fallback must not be cached)", result.Source, ai.SourceCheap)
	}
}

func TestRouter_DisabledFallsBack(t *testing.T) {
	r := newTestRouter(false, nil, 10000)

	result := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})

	if result.Source != ai.SourceFallback {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceFallback)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", result.Confidence)
	}
	if result.Navigator == nil || result.Navigator.Response == "" {
		t.Error("fallback must carry the fixed navigator response")
	}

	// Deterministic: the same degraded answer every time.
	again := r.Route(context.Background(), ai.TaskNavigator, ai.RouteInput{Query: "zxcv unclassifiable"}, ai.RouteOptions{})
	if again.Navigator.Response != result.Navigator.Response {
		t.Error("fallback response should be fixed")
	}
}

func TestRouter_TriageScenario(t *testing.T) {
	r := newTestRouter(false, nil, 10000)

	result := r.Route(context.Background(), ai.TaskTriage, ai.RouteInput{
		Client: &ai.ClientRecord{Needs: []string{"housing"}, Urgency: "critical"},
	}, ai.RouteOptions{})

	if result.Source != ai.SourceRules {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceRules)
	}
	if result.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", result.Confidence)
	}
	if result.Triage == nil || result.Triage.Priority != "urgent" {
		t.Errorf("Triage = %+v, want urgent priority", result.Triage)
	}
	if len(result.Triage.Recommendations) != 3 {
		t.Errorf("Recommendations = %d entries, want 3", len(result.Triage.Recommendations))
	}
}

func TestRouter_StatsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		gen     ai.Generator
		want    bool
	}{
		{"on-with-credential", true, ai.NewMockGenerator("x", 0.9), true},
		{"on-without-credential", true, nil, false},
		{"off", false, ai.NewMockGenerator("x", 0.9), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.enabled, tt.gen, 1000)
			if got := r.Stats().Enabled; got != tt.want {
				t.Errorf("Stats().Enabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouter_UnknownTask(t *testing.T) {
	r := newTestRouter(false, nil, 1000)

	result := r.Route(context.Background(), ai.Task(99), ai.RouteInput{Query: "anything"}, ai.RouteOptions{})

	if result.Source != ai.SourceFallback {
		t.Errorf("Source = %q, want %q", result.Source, ai.SourceFallback)
	}
	if result.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", result.Confidence)
	}
}
