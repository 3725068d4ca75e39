// Package gemini provides a completion adapter for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ublc/libchat/completion"
)

// DefaultModel is the model used when no override is configured. The
// lightweight Gemma instruction-tuned model keeps latency low for short
// helpdesk-style exchanges.
const DefaultModel = "gemma-3-4b-it"

// Options configures the Gemini completion adapter (model id, temperature,
// max output tokens, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
}

// Provider wraps the Gemini GenerateContent API behind the generic
// completion.Provider interface.
type Provider struct {
	client *genai.Client
	opts   Options
}

// NewProvider creates a new Gemini provider using the official client.
func NewProvider(ctx context.Context, optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{
		Model:           DefaultModel,
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		opts:   opts,
	}, nil
}

// NewProviderFromClient creates a new Gemini provider from an existing client.
func NewProviderFromClient(client *genai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:           DefaultModel,
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Provider{
		client: client,
		opts:   opts,
	}
}

// Complete implements completion.Provider.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.opts.Temperature),
		MaxOutputTokens: p.opts.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", completion.ErrEmptyCompletion
	}
	return text, nil
}

// Info returns metadata describing this Gemini provider implementation.
func (p *Provider) Info() completion.Info {
	return completion.Info{
		Name:     p.opts.Model,
		Provider: "gemini",
	}
}
