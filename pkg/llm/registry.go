// Package llm sends rendered prompts to a text-generation backend.
//
// Backends are langchaingo models built by a [Factory] registered under a
// provider name. Ollama is the default and talks to a locally running
// server; OpenAI and Anthropic are available when an API key is
// configured.
package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Provider string
	Model    string
	URL      string
	APIKey   string
}

// Factory builds a langchaingo model for a provider.
type Factory func(cfg ProviderConfig) (llms.Model, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a Factory available under name.
// It is typically called from an init() function.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Get returns the Factory registered under name.
func Get(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown model provider %q (available: %v)", name, namesLocked())
	}
	return f, nil
}

// Names returns the sorted list of registered provider names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel builds the model for cfg.Provider.
func NewModel(cfg ProviderConfig) (llms.Model, error) {
	f, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	m, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}
	return m, nil
}
