package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kubegen-sh/kubegen/internal/manifest"
	"github.com/kubegen-sh/kubegen/pkg/llm"
	"github.com/kubegen-sh/kubegen/pkg/logger"
	"github.com/kubegen-sh/kubegen/pkg/prompt"
)

// ErrorMarker starts the manifest text produced when the model fails.
const ErrorMarker = "# Error generating YAML"

// ErrEmptyDescription is returned for a description with no content.
var ErrEmptyDescription = errors.New("description is empty")

// Completer turns a rendered prompt into model output. *llm.Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator runs the generate pipeline: normalize, render, complete,
// sanitize, write.
type Generator struct {
	Normalizer *prompt.Normalizer
	// TemplatePath is read on every call. Empty selects the built-in
	// template.
	TemplatePath string
	Model        Completer
	// OutputPath defaults to manifest.DefaultPath.
	OutputPath string
}

// GenerateOptions tune a single Generate call.
type GenerateOptions struct {
	// DryRun skips writing the manifest.
	DryRun bool
	// Validate checks the manifest and records problems in the result.
	// Problems do not stop the manifest from being written.
	Validate bool
}

// Result describes one pass through the pipeline.
type Result struct {
	Input      string
	Normalized string
	Prompt     string
	Manifest   string
	// Artifact is nil when nothing was written.
	Artifact *manifest.Artifact
	// Failed is set when the model call failed. Manifest then holds the
	// fallback text and Err the cause.
	Failed bool
	Err    error
	// Resources and Invalid are filled when validation ran.
	Resources []manifest.Resource
	Invalid   error
	Elapsed   time.Duration
}

// FallbackManifest is the manifest text reported for a failed generation.
func FallbackManifest(err error) string {
	return fmt.Sprintf("%s: %v", ErrorMarker, err)
}

func (g *Generator) outputPath() string {
	if g.OutputPath == "" {
		return manifest.DefaultPath
	}
	return g.OutputPath
}

func (g *Generator) normalizer() *prompt.Normalizer {
	if g.Normalizer == nil {
		return prompt.NewNormalizer(nil)
	}
	return g.Normalizer
}

// Generate runs the pipeline for one description. Template and write
// failures are returned as errors. A model failure is not: it yields a
// Result with Failed set, the fallback manifest, and no artifact.
func (g *Generator) Generate(ctx context.Context, raw string, opts GenerateOptions) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyDescription
	}
	if g.Model == nil {
		return nil, errors.New("generator has no model")
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	res := &Result{Input: raw}
	res.Normalized = g.normalizer().Normalize(raw)
	log.Debug("Normalized description", "input", raw, "normalized", res.Normalized)

	tmpl, err := prompt.LoadTemplate(g.TemplatePath)
	if err != nil {
		return nil, err
	}
	res.Prompt, err = tmpl.Render(res.Normalized)
	if err != nil {
		return nil, err
	}

	reply, err := g.Model.Complete(ctx, res.Prompt)
	if err != nil {
		var genErr *llm.GenerationError
		if !errors.As(err, &genErr) {
			err = &llm.GenerationError{Err: err}
		}
		res.Failed = true
		res.Err = err
		res.Manifest = FallbackManifest(err)
		res.Elapsed = time.Since(start)
		log.Warn("Generation failed", "error", err, "duration", res.Elapsed)
		return res, nil
	}
	res.Manifest = manifest.Sanitize(reply)

	if opts.Validate {
		res.Resources, res.Invalid = manifest.Validate(res.Manifest)
		if res.Invalid != nil {
			log.Warn("Generated manifest has problems", "error", res.Invalid)
		}
	}

	if !opts.DryRun {
		res.Artifact, err = manifest.Write(g.outputPath(), res.Manifest)
		if err != nil {
			return nil, err
		}
		log.Info("Manifest written", "path", res.Artifact.Path, "bytes", len(res.Manifest))
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// Applier applies written manifests, optionally validating them first.
type Applier struct {
	Kubectl  *Kubectl
	Validate bool
}

// Apply applies the artifact. With validation on, an invalid manifest is
// returned as a *manifest.ValidationError and kubectl is not run.
func (a *Applier) Apply(ctx context.Context, artifact *manifest.Artifact) (*ApplyResult, error) {
	if artifact == nil {
		return nil, errors.New("no manifest to apply")
	}
	log := logger.FromContext(ctx)
	if a.Validate {
		resources, err := artifact.Validate()
		if err != nil {
			return nil, err
		}
		log.Debug("Manifest validated", "path", artifact.Path, "resources", len(resources))
	}
	kubectl := a.Kubectl
	if kubectl == nil {
		kubectl = &Kubectl{}
	}
	result, err := kubectl.Apply(ctx, artifact.Path)
	if err != nil {
		log.Warn("kubectl apply failed", "path", artifact.Path, "exit_code", result.ExitCode)
		return result, err
	}
	log.Info("Manifest applied", "path", artifact.Path)
	return result, nil
}

// ApplyFile opens the manifest at path and applies it.
func (a *Applier) ApplyFile(ctx context.Context, path string) (*ApplyResult, error) {
	artifact, err := manifest.Open(path)
	if err != nil {
		return nil, err
	}
	return a.Apply(ctx, artifact)
}
