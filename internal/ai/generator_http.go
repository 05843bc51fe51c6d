package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultGeneratorBaseURL = "https://api.openai.com/v1"

// Tier confidence floors reported by the HTTP generator. Inherited design
// targets; configurable at construction.
const (
	defaultCheapConfidence     = 0.7
	defaultExpensiveConfidence = 0.95
)

// HTTPGenerator calls an OpenAI-compatible chat-completions endpoint. The
// model is chosen per call from the requested token ceiling: calls at or
// below the cheap ceiling use the cheap model, larger calls the expensive
// one.
type HTTPGenerator struct {
	apiKey         string
	baseURL        string
	cheapModel     string
	expensiveModel string
	cheapCeiling   int
	cheapConf      float64
	expensiveConf  float64
	client         *http.Client
}

// HTTPGeneratorOption configures an HTTPGenerator.
type HTTPGeneratorOption func(*HTTPGenerator)

// WithGeneratorBaseURL sets the base URL (for testing).
func WithGeneratorBaseURL(url string) HTTPGeneratorOption {
	return func(g *HTTPGenerator) {
		g.baseURL = url
	}
}

// WithGeneratorModels sets the cheap and expensive model names.
func WithGeneratorModels(cheap, expensive string) HTTPGeneratorOption {
	return func(g *HTTPGenerator) {
		g.cheapModel = cheap
		g.expensiveModel = expensive
	}
}

// WithGeneratorConfidence sets the reported confidence per tier.
func WithGeneratorConfidence(cheap, expensive float64) HTTPGeneratorOption {
	return func(g *HTTPGenerator) {
		g.cheapConf = cheap
		g.expensiveConf = expensive
	}
}

// NewHTTPGenerator creates an OpenAI-compatible generator. cheapCeiling is
// the token estimate at or below which the cheap model serves the call.
func NewHTTPGenerator(apiKey string, cheapCeiling int, opts ...HTTPGeneratorOption) (*HTTPGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generator API key is required")
	}
	g := &HTTPGenerator{
		apiKey:         apiKey,
		baseURL:        defaultGeneratorBaseURL,
		cheapModel:     "gpt-4o-mini",
		expensiveModel: "gpt-4o",
		cheapCeiling:   cheapCeiling,
		cheapConf:      defaultCheapConfidence,
		expensiveConf:  defaultExpensiveConfidence,
		client:         &http.Client{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *HTTPGenerator) Generate(ctx context.Context, task Task, input RouteInput, maxTokens int, temperature float64) (Generation, error) {
	model := g.cheapModel
	confidence := g.cheapConf
	if maxTokens > g.cheapCeiling {
		model = g.expensiveModel
		confidence = g.expensiveConf
	}

	body := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(task)},
			{"role": "user", "content": userPrompt(task, input)},
		},
		"max_tokens": maxTokens,
	}
	if temperature > 0 {
		body["temperature"] = temperature
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Generation{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return Generation{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Generation{}, fmt.Errorf("generator API call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Generation{}, fmt.Errorf("generator API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Generation{}, fmt.Errorf("parsing response: %w", err)
	}

	if len(result.Choices) == 0 {
		return Generation{}, fmt.Errorf("generator returned no choices")
	}

	return Generation{
		Text:       result.Choices[0].Message.Content,
		Confidence: confidence,
	}, nil
}

func systemPrompt(task Task) string {
	switch task {
	case TaskTriage:
		return "You are an intake triage assistant for a human-services agency. Assess the client's situation and recommend concrete next actions. Be brief and specific."
	case TaskCarePlan:
		return "You are a case-planning assistant for a human-services agency. Draft a short narrative care plan covering the client's stated needs. Be brief and specific."
	default:
		return "You are a resident navigator for a human-services agency. Point the resident to the right program in two or three sentences. Never give legal or medical advice."
	}
}

func userPrompt(task Task, input RouteInput) string {
	if task == TaskNavigator || input.Client == nil {
		return input.Query
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Client urgency: %s\n", input.Client.Urgency)
	fmt.Fprintf(&b, "Stated needs: %s\n", strings.Join(input.Client.Needs, ", "))
	if input.Client.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", input.Client.Notes)
	}
	return b.String()
}
