// Package core holds the logic shared by the CLI commands and the API
// server: the generate pipeline and the kubectl apply step. Functions here
// return structured results and leave output formatting to the caller.
package core

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// DefaultKubectlTimeout bounds a single kubectl invocation.
const DefaultKubectlTimeout = 2 * time.Minute

// Kubectl runs the kubectl binary.
type Kubectl struct {
	// Binary defaults to "kubectl" on PATH.
	Binary string
	// Context is passed as --context when set.
	Context string
	Timeout time.Duration
}

// ApplyResult is the outcome of a finished kubectl apply. Output is stdout
// on success and stderr on failure, byte for byte as kubectl wrote it.
type ApplyResult struct {
	Success  bool
	Output   string
	ExitCode int
}

func (k *Kubectl) binary() string {
	if k.Binary == "" {
		return "kubectl"
	}
	return k.Binary
}

func (k *Kubectl) timeout() time.Duration {
	if k.Timeout <= 0 {
		return DefaultKubectlTimeout
	}
	return k.Timeout
}

// args prepends the --context flag when a context is configured.
func (k *Kubectl) args(args ...string) []string {
	if k.Context == "" {
		return args
	}
	return append([]string{"--context", k.Context}, args...)
}

// Apply runs `kubectl apply -f path`. A non-zero exit returns both the
// result, carrying stderr, and an *ApplyError.
func (k *Kubectl) Apply(ctx context.Context, path string) (*ApplyResult, error) {
	stdout, stderr, code, err := k.run(ctx, k.args("apply", "-f", path)...)
	if err != nil {
		return &ApplyResult{Output: stderr, ExitCode: code}, &ApplyError{
			Path:     path,
			ExitCode: code,
			Stderr:   stderr,
			Err:      err,
		}
	}
	return &ApplyResult{Success: true, Output: stdout}, nil
}

// Version returns the client version line, which doubles as a check that
// the binary can be launched.
func (k *Kubectl) Version(ctx context.Context) (string, error) {
	stdout, stderr, _, err := k.run(ctx, "version", "--client")
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return "", errors.New(msg)
		}
		return "", err
	}
	line, _, _ := strings.Cut(stdout, "\n")
	return strings.TrimSpace(line), nil
}

// run executes the binary and returns its untouched stdout and stderr with
// the exit code. A launch failure or timeout reports exit code -1.
func (k *Kubectl) run(ctx context.Context, args ...string) (string, string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, k.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	out, errOut := stdout.String(), stderr.String()
	if err == nil {
		return out, errOut, 0, nil
	}
	if ctx.Err() != nil {
		return out, errOut, -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, errOut, exitErr.ExitCode(), err
	}
	return out, errOut, -1, err
}

// CommandExists checks if a binary is on PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
