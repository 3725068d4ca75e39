// Package completion abstracts third-party text completion services behind
// a single Provider interface. Adapters for Gemini, OpenAI and Anthropic
// live in subpackages; which one runs, and with which model name, is
// configuration rather than branching code.
package completion

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyCompletion is returned when a provider responds successfully but
// produces no usable text.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`     // model identifier
	Provider string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
}

// Provider is the minimal interface the chat orchestrator needs: one
// prompt in, freeform text out. Implementations must honor ctx deadlines;
// the caller bounds every call with a timeout.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a lightweight in-memory Provider useful for tests. It
// returns canned completions for registered prompts, a deterministic
// default otherwise, or a configured error.
type MockProvider struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockProvider constructs a MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		info:      Info{Name: "mock-model", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetError makes every Complete call fail, simulating provider outages.
func (m *MockProvider) SetError(err error) { m.err = err }

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock completion for: %.60s", prompt), nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
