package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	// DefaultModel is the Ollama model the prompt template is tuned for.
	DefaultModel = "mistral"
)

func init() {
	Register(ProviderOllama, newOllama)
	Register(ProviderOpenAI, newOpenAI)
	Register(ProviderAnthropic, newAnthropic)
}

func newOllama(cfg ProviderConfig) (llms.Model, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.URL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.URL))
	}
	return ollama.New(opts...)
}

func newOpenAI(cfg ProviderConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai requires an API key")
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.URL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.URL))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg ProviderConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic requires an API key")
	}
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(cfg.APIKey),
	}
	if cfg.URL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.URL))
	}
	return anthropic.New(opts...)
}
