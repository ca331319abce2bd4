package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubegen-sh/kubegen/pkg/config"
	"github.com/kubegen-sh/kubegen/pkg/logger"
)

var (
	// configFile is an optional YAML file layered over the defaults.
	configFile string

	// cfg is loaded before every command runs.
	cfg *config.Config
)

// flagKeys maps persistent flags onto configuration keys. Only flags the
// user actually set are applied, so they never mask file or env values.
var flagKeys = map[string]string{
	"provider":     "model.provider",
	"model":        "model.name",
	"model-url":    "model.url",
	"template":     "template.path",
	"output":       "output.path",
	"kube-context": "kubectl.context",
	"log-level":    "log.level",
	"log-json":     "log.json",
}

var rootCmd = &cobra.Command{
	Use:   "kubegen",
	Short: "kubegen: Kubernetes manifests from plain-English descriptions",
	Long: `kubegen turns a short description of an application into Kubernetes
YAML using a language model, writes it to disk, and can apply it with
kubectl.

Common workflow:

  kubegen generate "a flask api with 3 pods on port 5050"
  kubegen generate --dry-run "a go app on 9000 with autoscaling"
  kubegen apply                            # apply output/deployment.yaml
  kubegen normalize --trace "start a flak api"
  kubegen serve                            # JSON API on 127.0.0.1:8501

Settings come from defaults, --config, KUBEGEN_* environment variables
(KUBEGEN_MODEL_NAME=llama3) and flags, in increasing precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML config file")
	pf.String("provider", "", "Model provider: ollama, openai or anthropic")
	pf.StringP("model", "m", "", "Model name (default: mistral)")
	pf.String("model-url", "", "Model server or API base URL")
	pf.StringP("template", "t", "", "Prompt template file (default: built-in)")
	pf.StringP("output", "o", "", "Manifest output path (default: output/deployment.yaml)")
	pf.String("kube-context", "", "kubectl context to apply against")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("log-json", false, "Emit logs as JSON")
}

// loadConfig resolves the configuration and installs the logger on the
// command context.
func loadConfig(cmd *cobra.Command, _ []string) error {
	overrides := map[string]any{}
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}

	loaded, err := config.Load(config.Options{
		File:         configFile,
		FileRequired: configFile != "",
		Overrides:    overrides,
	})
	if err != nil {
		return err
	}
	cfg = loaded

	logger.Init(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     os.Stderr,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.GetDefault()))
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("cli error: %w", err)
	}
	return nil
}
