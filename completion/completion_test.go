package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Provider = (*MockProvider)(nil)

func TestMockProviderCannedResponse(t *testing.T) {
	p := NewMockProvider()
	p.AddResponse("What are the library hours?", "Open 7am to 9pm on weekdays.")

	got, err := p.Complete(context.Background(), "What are the library hours?")
	require.NoError(t, err)
	assert.Equal(t, "Open 7am to 9pm on weekdays.", got)
}

func TestMockProviderDefaultResponse(t *testing.T) {
	p := NewMockProvider()

	got, err := p.Complete(context.Background(), "unregistered prompt")
	require.NoError(t, err)
	assert.Contains(t, got, "Mock completion for:")
}

func TestMockProviderError(t *testing.T) {
	p := NewMockProvider()
	p.SetError(errors.New("quota exceeded"))

	_, err := p.Complete(context.Background(), "anything")
	assert.EqualError(t, err, "quota exceeded")
}

func TestMockProviderHonorsContext(t *testing.T) {
	p := NewMockProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Complete(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProviderInfo(t *testing.T) {
	info := NewMockProvider().Info()
	assert.Equal(t, "mock", info.Provider)
	assert.Equal(t, "mock-model", info.Name)
}
