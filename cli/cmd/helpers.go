package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/kubegen-sh/kubegen/cli/core"
	"github.com/kubegen-sh/kubegen/internal/manifest"
	"github.com/kubegen-sh/kubegen/pkg/config"
	"github.com/kubegen-sh/kubegen/pkg/llm"
	"github.com/kubegen-sh/kubegen/pkg/prompt"
)

// progress receives human-readable status lines. Manifests go to stdout.
var progress io.Writer = os.Stderr

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// ── Pretty-print helpers ────────────────────────────────────────

func header(msg string) {
	headerColor.Fprintf(progress, "\n▸ %s\n", msg)
}

func step(emoji, msg string) {
	fmt.Fprintf(progress, "  %s  %s\n", emoji, msg)
}

func success(msg string) {
	successColor.Fprintf(progress, "  ✅ %s\n", msg)
}

func warn(msg string) {
	warnColor.Fprintf(progress, "  ⚠️  %s\n", msg)
}

func fail(msg string) {
	failColor.Fprintf(progress, "  ❌ %s\n", msg)
}

func dimText(msg string) string {
	return dimColor.Sprint(msg)
}

// startSpinner shows a spinner on the progress writer until the returned
// func is called. It stays silent when progress is not a terminal.
func startSpinner(msg string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(progress))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}

// ── Input helpers ───────────────────────────────────────────────

// readDescription joins the positional args, or reads stdin when there
// are none or the only arg is "-".
func readDescription(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("cannot read description from stdin: %w", err)
	}
	desc := strings.TrimSpace(string(data))
	if desc == "" {
		return "", core.ErrEmptyDescription
	}
	return desc, nil
}

// ── Pipeline wiring ─────────────────────────────────────────────

// newCompleter builds the model client named by the configuration.
var newCompleter = func(c *config.Config) (core.Completer, error) {
	client, err := llm.New(llm.ProviderConfig{
		Provider: c.Model.Provider,
		Model:    c.Model.Name,
		URL:      c.Model.URL,
		APIKey:   c.Model.APIKey,
	}, llm.WithTimeout(c.Model.Timeout), llm.WithTemperature(c.Model.Temperature))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newGenerator(c *config.Config) (*core.Generator, error) {
	model, err := newCompleter(c)
	if err != nil {
		return nil, err
	}
	return &core.Generator{
		Normalizer:   prompt.NewNormalizer(nil),
		TemplatePath: c.Template.Path,
		Model:        model,
		OutputPath:   c.Output.Path,
	}, nil
}

func newApplier(c *config.Config, validate bool) *core.Applier {
	return &core.Applier{
		Kubectl: &core.Kubectl{
			Binary:  c.Kubectl.Binary,
			Context: c.Kubectl.Context,
			Timeout: c.Kubectl.Timeout,
		},
		Validate: validate,
	}
}

// reportApplyFile opens the manifest at path and applies it.
func reportApplyFile(ctx context.Context, out io.Writer, a *core.Applier, path string) error {
	art, err := manifest.Open(path)
	if err != nil {
		fail(err.Error())
		return err
	}
	return reportApply(ctx, out, a, art)
}

// reportApply applies art and prints the outcome to out and progress.
func reportApply(ctx context.Context, out io.Writer, a *core.Applier, art *manifest.Artifact) error {
	header("Applying manifest")
	step("☸️", fmt.Sprintf("kubectl apply -f %s", art.Path))

	res, err := a.Apply(ctx, art)
	if res != nil && res.Output != "" {
		fmt.Fprint(out, res.Output)
	}
	if err != nil {
		fail("Apply failed")
		printProblems(err)
		return err
	}
	success("Applied")
	return nil
}

// printProblems lists per-document validation problems, if err has any.
func printProblems(err error) {
	var verr *manifest.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, p := range verr.Problems {
		step("•", dimText(p.Error()))
	}
}
