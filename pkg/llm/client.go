package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/kubegen-sh/kubegen/pkg/logger"
)

// DefaultTimeout bounds a single completion when none is configured.
const DefaultTimeout = 2 * time.Minute

// GenerationError wraps any failure of the backend: unreachable server,
// error response, empty completion or timeout.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" && e.Model == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *GenerationError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Client sends single prompts to a model.
type Client struct {
	model       llms.Model
	provider    string
	name        string
	timeout     time.Duration
	temperature float64
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds each Complete call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTemperature sets the sampling temperature. Zero keeps the backend
// default.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// NewClient wraps an already constructed model. provider and name are used
// in errors and logs only.
func NewClient(model llms.Model, provider, name string, opts ...Option) *Client {
	c := &Client{
		model:    model,
		provider: provider,
		name:     name,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds the model for cfg and wraps it.
func New(cfg ProviderConfig, opts ...Option) (*Client, error) {
	m, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(m, cfg.Provider, cfg.Model, opts...), nil
}

// Model is the configured model name.
func (c *Client) Model() string {
	return c.name
}

// Provider is the configured provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Complete returns the model's completion for prompt. Every failure is a
// *GenerationError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var callOpts []llms.CallOption
	if c.temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(c.temperature))
	}

	log := logger.FromContext(ctx)
	log.Debug("Calling model", "provider", c.provider, "model", c.name, "prompt_chars", len(prompt))
	start := time.Now()

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOpts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		log.Warn("Model call failed", "provider", c.provider, "model", c.name, "error", err)
		return "", &GenerationError{Provider: c.provider, Model: c.name, Err: err}
	}

	log.Debug("Model call finished", "model", c.name, "duration", time.Since(start), "response_chars", len(out))
	return out, nil
}
