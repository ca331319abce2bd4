// Package config loads kubegen settings.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// file, KUBEGEN_* environment variables, then flags set on the command
// line. Environment names map onto keys by stripping the prefix and
// splitting the first underscore: KUBEGEN_MODEL_API_KEY is model.api_key.
package config

import "time"

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "KUBEGEN_"

type Config struct {
	Model    ModelConfig    `koanf:"model"`
	Template TemplateConfig `koanf:"template"`
	Output   OutputConfig   `koanf:"output"`
	Kubectl  KubectlConfig  `koanf:"kubectl"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
}

// ModelConfig selects the text-generation backend. An empty URL leaves the
// provider's own default in place.
type ModelConfig struct {
	Provider    string        `koanf:"provider"    validate:"required"`
	Name        string        `koanf:"name"        validate:"required"`
	URL         string        `koanf:"url"         validate:"omitempty,url"`
	APIKey      string        `koanf:"api_key"`
	Timeout     time.Duration `koanf:"timeout"     validate:"gte=0"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
}

// TemplateConfig points at the prompt template. An empty path selects the
// built-in template.
type TemplateConfig struct {
	Path string `koanf:"path"`
}

type OutputConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// KubectlConfig controls the apply step.
type KubectlConfig struct {
	Binary   string        `koanf:"binary"   validate:"required"`
	Context  string        `koanf:"context"`
	Timeout  time.Duration `koanf:"timeout"  validate:"gte=0"`
	Validate bool          `koanf:"validate"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in settings: Ollama's mistral on the local
// server, manifests written to output/deployment.yaml.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: "ollama",
			Name:     "mistral",
			Timeout:  2 * time.Minute,
		},
		Output: OutputConfig{
			Path: "output/deployment.yaml",
		},
		Kubectl: KubectlConfig{
			Binary:   "kubectl",
			Timeout:  2 * time.Minute,
			Validate: true,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8501,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
