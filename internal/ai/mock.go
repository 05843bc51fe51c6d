package ai

import "context"

// MockGenerator is a test double for the model tiers.
type MockGenerator struct {
	Text       string
	Confidence float64
	Err        error

	Calls     int
	LastTask  Task
	LastInput RouteInput
}

// NewMockGenerator creates a MockGenerator returning the given text at the
// given confidence.
func NewMockGenerator(text string, confidence float64) *MockGenerator {
	return &MockGenerator{Text: text, Confidence: confidence}
}

func (m *MockGenerator) Generate(_ context.Context, task Task, input RouteInput, _ int, _ float64) (Generation, error) {
	m.Calls++
	m.LastTask = task
	m.LastInput = input
	if m.Err != nil {
		return Generation{}, m.Err
	}
	return Generation{Text: m.Text, Confidence: m.Confidence}, nil
}
