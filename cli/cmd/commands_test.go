package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kubegen-sh/kubegen/cli/core"
	"github.com/kubegen-sh/kubegen/internal/manifest"
	"github.com/kubegen-sh/kubegen/pkg/config"
	"github.com/kubegen-sh/kubegen/pkg/llm"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

const serviceYAML = `apiVersion: v1
kind: Service
metadata:
  name: flask-api
spec:
  selector:
    app: flask-api
  ports:
  - port: 5050
    targetPort: 5050`

// useCompleter swaps the model factory for the duration of the test.
func useCompleter(t *testing.T, c core.Completer) {
	t.Helper()
	prev := newCompleter
	newCompleter = func(*config.Config) (core.Completer, error) { return c, nil }
	t.Cleanup(func() { newCompleter = prev })
}

func fakeKubectl(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake kubectl needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "kubectl")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake kubectl: %v", err)
	}
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prevProgress := progress
	progress = io.Discard
	t.Cleanup(func() {
		progress = prevProgress
		resetFlags(rootCmd)
		configFile = ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// ────────────────────────────────────────────────────────────────────────────
// readDescription
// ────────────────────────────────────────────────────────────────────────────

func TestReadDescription(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{"args joined", []string{"a", "flask", "api"}, "", "a flask api", false},
		{"stdin", nil, "  a go app\n", "a go app", false},
		{"dash reads stdin", []string{"-"}, "nginx", "nginx", false},
		{"empty stdin", nil, " \n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readDescription(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr {
				if !errors.Is(err, core.ErrEmptyDescription) {
					t.Errorf("readDescription() error = %v, want ErrEmptyDescription", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("readDescription() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ────────────────────────────────────────────────────────────────────────────
// normalize
// ────────────────────────────────────────────────────────────────────────────

func TestNormalizeCommand(t *testing.T) {
	out, err := executeCommand(t, "", "normalize", "Start a flak API with 3 pods on port 5050")
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	if got := strings.TrimSpace(out); got != "deploy a flask api with 3 replicas on port 5050" {
		t.Errorf("normalize output = %q", got)
	}
}

func TestNormalizeTrace(t *testing.T) {
	out, err := executeCommand(t, "", "normalize", "--trace", "hpa for my app")
	if err != nil {
		t.Fatalf("normalize --trace error = %v", err)
	}
	if !strings.Contains(out, `[6] "hpa" -> "HorizontalPodAutoscaler"`) {
		t.Errorf("trace output missing fired rule:\n%s", out)
	}
	if !strings.Contains(out, "order-sensitive") {
		t.Errorf("trace output missing order sensitivity:\n%s", out)
	}
}

func TestNormalizeLint(t *testing.T) {
	out, err := executeCommand(t, "", "normalize", "--lint")
	if err != nil {
		t.Fatalf("normalize --lint error = %v", err)
	}
	for _, want := range []string{"shadowed", "cascade", "unstable", "conflict(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("lint output missing %q:\n%s", want, out)
		}
	}
}

// ────────────────────────────────────────────────────────────────────────────
// generate
// ────────────────────────────────────────────────────────────────────────────

func TestGenerateCommand(t *testing.T) {
	fc := &fakeCompleter{reply: "```yaml\n" + serviceYAML + "\n```"}
	useCompleter(t, fc)
	path := filepath.Join(t.TempDir(), "out", "app.yaml")

	out, err := executeCommand(t, "", "generate", "--output", path, "a", "flak", "api")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if strings.TrimSpace(out) != serviceYAML {
		t.Errorf("stdout = %q, want the sanitized manifest", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if string(data) != serviceYAML {
		t.Errorf("written manifest = %q", data)
	}
	if len(fc.prompts) != 1 || !strings.Contains(fc.prompts[0], "a flask api") {
		t.Errorf("prompts = %q", fc.prompts)
	}
}

func TestGenerateCommandFailure(t *testing.T) {
	useCompleter(t, &fakeCompleter{err: &llm.GenerationError{Provider: "ollama", Model: "mistral", Err: errors.New("connection refused")}})
	path := filepath.Join(t.TempDir(), "app.yaml")

	out, err := executeCommand(t, "", "generate", "--output", path, "a go app")
	if err == nil {
		t.Fatal("generate returned nil error for a failed model call")
	}
	if !strings.HasPrefix(strings.TrimSpace(out), core.ErrorMarker) {
		t.Errorf("stdout = %q, want the fallback manifest", out)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("manifest written after a failed model call")
	}
}

func TestGenerateCommandApply(t *testing.T) {
	useCompleter(t, &fakeCompleter{reply: serviceYAML})
	path := filepath.Join(t.TempDir(), "app.yaml")
	t.Setenv("KUBEGEN_KUBECTL_BINARY", fakeKubectl(t, `echo "applied $3"`))

	out, err := executeCommand(t, "", "generate", "--apply", "--output", path, "a flask api")
	if err != nil {
		t.Fatalf("generate --apply error = %v", err)
	}
	if !strings.HasSuffix(out, "applied "+path+"\n") {
		t.Errorf("stdout = %q, want the kubectl output last", out)
	}
}

func TestReportApplyUsesArtifactBody(t *testing.T) {
	prev := progress
	progress = io.Discard
	t.Cleanup(func() { progress = prev })

	// The body is validated from the handle; the file is never re-read.
	art := &manifest.Artifact{Path: filepath.Join(t.TempDir(), "gone.yaml"), Body: serviceYAML}
	a := &core.Applier{Kubectl: &core.Kubectl{Binary: fakeKubectl(t, `echo "applied $3"`)}, Validate: true}

	var out bytes.Buffer
	if err := reportApply(context.Background(), &out, a, art); err != nil {
		t.Fatalf("reportApply() error = %v", err)
	}
	if got := out.String(); got != "applied "+art.Path+"\n" {
		t.Errorf("output = %q", got)
	}

	if err := reportApplyFile(context.Background(), &out, a, art.Path); err == nil {
		t.Error("reportApplyFile() on a missing file returned nil error")
	}
}

func TestGenerateDryRunWithApply(t *testing.T) {
	useCompleter(t, &fakeCompleter{reply: serviceYAML})
	_, err := executeCommand(t, "", "generate", "--dry-run", "--apply", "x")
	if err == nil || !strings.Contains(err.Error(), "--dry-run") {
		t.Errorf("error = %v, want a flag conflict", err)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// apply
// ────────────────────────────────────────────────────────────────────────────

func TestApplyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(serviceYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KUBEGEN_KUBECTL_BINARY", fakeKubectl(t, `echo "service/flask-api created"`))

	out, err := executeCommand(t, "", "apply", "-f", path)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if strings.TrimSpace(out) != "service/flask-api created" {
		t.Errorf("stdout = %q", out)
	}
}

func TestApplyCommandRejectsInvalidManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte("# Error generating YAML: boom"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KUBEGEN_KUBECTL_BINARY", fakeKubectl(t, `echo "should not run"`))

	out, err := executeCommand(t, "", "apply", "-f", path)
	if err == nil {
		t.Fatal("apply accepted an empty manifest")
	}
	if strings.Contains(out, "should not run") {
		t.Error("kubectl ran despite validation failure")
	}

	if _, err := executeCommand(t, "", "apply", "--no-validate", "-f", path); err != nil {
		t.Errorf("apply --no-validate error = %v", err)
	}
}
