package provider

import (
	"context"
	"sync/atomic"
)

// SampleIdeas is the canned idea list the mock provider answers with.
const SampleIdeas = `{"art_projects": [
  {"title": "Forest Canopy", "description": "A view looking up through tree branches to a bright sky, drawn in a loose ink-sketch style with dappled midday light and a low worm's-eye perspective.", "difficulty": "Medium", "colorUsage": "Brown for tree trunks, green for leaves, blue for sky peeking through."},
  {"title": "Ocean Depths", "description": "An underwater scene with varying depths and marine life, rendered as a layered illustration with shafts of light falling from the surface and a wide-angle composition.", "difficulty": "Hard", "colorUsage": "Blue for water from light to dark, green for seaweed, brown for rocks and coral."},
  {"title": "Mountain Landscape", "description": "A serene mountain view with forests and a lake, drawn in a calm storybook style at golden hour from an elevated viewpoint.", "difficulty": "Easy", "colorUsage": "Brown for mountains, green for forests, blue for lake and sky."}
]}`

// Mock returns deterministic responses for local runs and tests.
type Mock struct {
	responses       map[string]string
	defaultResponse string
	calls           atomic.Int64
}

// NewMock creates a mock provider answering with SampleIdeas.
func NewMock() *Mock {
	return &Mock{
		responses:       make(map[string]string),
		defaultResponse: SampleIdeas,
	}
}

// NewMockWithResponses creates a mock provider with predefined responses
// keyed by prompt.
func NewMockWithResponses(responses map[string]string, defaultResponse string) *Mock {
	if defaultResponse == "" {
		defaultResponse = SampleIdeas
	}
	return &Mock{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the provider identifier.
func (p *Mock) Name() string {
	return "mock"
}

// DisplayName returns the human-facing provider name.
func (p *Mock) DisplayName() string {
	return "Mock"
}

// Models returns the list of supported mock models.
func (p *Mock) Models() []string {
	return []string{"mock-1"}
}

// Calls returns how many times Complete ran.
func (p *Mock) Calls() int {
	return int(p.calls.Load())
}

// Complete returns the canned response for the prompt.
func (p *Mock) Complete(_ context.Context, _ string, req TextRequest) (*Completion, error) {
	p.calls.Add(1)
	model := req.Model
	if model == "" {
		model = "mock-1"
	}
	if response, ok := p.responses[req.Prompt]; ok {
		return &Completion{Content: response, Model: model}, nil
	}
	return &Completion{Content: p.defaultResponse, Model: model}, nil
}
