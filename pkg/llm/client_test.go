package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type stubModel struct {
	reply   string
	err     error
	delay   time.Duration
	prompts []string
	opts    llms.CallOptions
}

func (m *stubModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	for _, opt := range options {
		opt(&m.opts)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestClient_Complete(t *testing.T) {
	t.Run("Should return the model completion", func(t *testing.T) {
		m := &stubModel{reply: "apiVersion: v1\nkind: Service"}
		c := NewClient(m, ProviderOllama, DefaultModel)
		out, err := c.Complete(context.Background(), "make a service")
		require.NoError(t, err)
		assert.Equal(t, "apiVersion: v1\nkind: Service", out)
		assert.Equal(t, []string{"make a service"}, m.prompts)
	})
	t.Run("Should wrap backend errors in GenerationError", func(t *testing.T) {
		backend := errors.New("connection refused")
		c := NewClient(&stubModel{err: backend}, ProviderOllama, DefaultModel)
		_, err := c.Complete(context.Background(), "x")
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, ProviderOllama, genErr.Provider)
		assert.Equal(t, DefaultModel, genErr.Model)
		assert.ErrorIs(t, err, backend)
		assert.Contains(t, err.Error(), "ollama/mistral")
		assert.False(t, genErr.Timeout())
	})
	t.Run("Should treat an empty response as a generation failure", func(t *testing.T) {
		c := NewClient(&stubModel{}, ProviderOllama, DefaultModel)
		_, err := c.Complete(context.Background(), "x")
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
	})
	t.Run("Should time out slow models", func(t *testing.T) {
		m := &stubModel{reply: "late", delay: time.Second}
		c := NewClient(m, ProviderOllama, DefaultModel, WithTimeout(20*time.Millisecond))
		_, err := c.Complete(context.Background(), "x")
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.True(t, genErr.Timeout())
	})
	t.Run("Should pass the temperature only when set", func(t *testing.T) {
		m := &stubModel{reply: "ok"}
		_, err := NewClient(m, ProviderOllama, DefaultModel).Complete(context.Background(), "x")
		require.NoError(t, err)
		assert.Zero(t, m.opts.Temperature)

		m = &stubModel{reply: "ok"}
		_, err = NewClient(m, ProviderOllama, DefaultModel, WithTemperature(0.2)).Complete(context.Background(), "x")
		require.NoError(t, err)
		assert.InDelta(t, 0.2, m.opts.Temperature, 1e-9)
	})
}

func TestClient_Accessors(t *testing.T) {
	c := NewClient(&stubModel{}, ProviderOpenAI, "gpt-4o")
	assert.Equal(t, ProviderOpenAI, c.Provider())
	assert.Equal(t, "gpt-4o", c.Model())
}
