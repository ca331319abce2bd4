package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubegen-sh/kubegen/cli/core"
	"github.com/kubegen-sh/kubegen/internal/manifest"
	"github.com/kubegen-sh/kubegen/internal/metrics"
	"github.com/kubegen-sh/kubegen/pkg/config"
	"github.com/kubegen-sh/kubegen/pkg/logger"
)

// maxBody caps request bodies; descriptions are a sentence or two.
const maxBody = 1 << 20

// apiServer backs the serve command. mu serializes the handlers that call
// the model or kubectl.
type apiServer struct {
	mu       sync.Mutex
	gen      *core.Generator
	applier  *core.Applier
	validate bool
	// outputPath is the default apply target; apply requests must stay
	// inside its directory.
	outputPath string
	provider   string
	model      string
	kubectl    string
	log        logger.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
}

func newAPIServer(c *config.Config) (*apiServer, error) {
	gen, err := newGenerator(c)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &apiServer{
		registry:   reg,
		metrics:    metrics.New(reg),
		gen:        gen,
		applier:    newApplier(c, c.Kubectl.Validate),
		validate:   c.Kubectl.Validate,
		outputPath: c.Output.Path,
		provider:   c.Model.Provider,
		model:      c.Model.Name,
		kubectl:    c.Kubectl.Binary,
		log:        logger.GetDefault(),
	}, nil
}

func (s *apiServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/apply", s.handleApply)
	mux.HandleFunc("/api/healthz", s.handleHealthz)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ── /api/generate ───────────────────────────────────────────────

type generateRequest struct {
	Prompt string `json:"prompt"`
	DryRun bool   `json:"dry_run"`
}

type generateResponse struct {
	Input      string   `json:"input"`
	Normalized string   `json:"normalized"`
	Manifest   string   `json:"manifest"`
	Path       string   `json:"path,omitempty"`
	Failed     bool     `json:"failed"`
	Error      string   `json:"error,omitempty"`
	Resources  []string `json:"resources,omitempty"`
	Problems   []string `json:"problems,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		jsonError(w, `body must contain {"prompt": "..."}`, http.StatusBadRequest)
		return
	}

	s.lock()
	defer s.mu.Unlock()

	ctx := logger.ContextWithLogger(r.Context(), s.log)
	res, err := s.gen.Generate(ctx, req.Prompt, core.GenerateOptions{
		DryRun:   req.DryRun,
		Validate: s.validate,
	})
	if err != nil {
		s.log.Error("Generate request failed", "error", err)
		s.metrics.ObserveGenerate(metrics.OutcomeError, 0, 0)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := generateResponse{
		Input:      res.Input,
		Normalized: res.Normalized,
		Manifest:   res.Manifest,
		Failed:     res.Failed,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	if res.Artifact != nil {
		resp.Path = res.Artifact.Path
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	for _, rsc := range res.Resources {
		resp.Resources = append(resp.Resources, rsc.String())
	}
	resp.Problems = problemStrings(res.Invalid)

	code, outcome := http.StatusOK, metrics.OutcomeOK
	if res.Failed {
		code, outcome = http.StatusBadGateway, metrics.OutcomeFailed
	}
	s.metrics.ObserveGenerate(outcome, res.Elapsed, len(resp.Problems))
	jsonStatus(w, code, resp)
}

// ── /api/apply ──────────────────────────────────────────────────

type applyRequest struct {
	Path string `json:"path"`
}

type applyResponse struct {
	Success  bool     `json:"success"`
	Output   string   `json:"output"`
	ExitCode int      `json:"exit_code"`
	Error    string   `json:"error,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func (s *apiServer) handleApply(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req applyRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	path, err := s.resolveApplyPath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusForbidden)
		return
	}

	s.lock()
	defer s.mu.Unlock()

	ctx := logger.ContextWithLogger(r.Context(), s.log)
	res, err := s.applier.ApplyFile(ctx, path)
	if err == nil {
		s.metrics.ObserveApply(metrics.OutcomeOK)
		jsonResponse(w, applyResponse{Success: true, Output: res.Output})
		return
	}

	resp := applyResponse{Error: err.Error(), Problems: problemStrings(err)}
	if res != nil {
		resp.Output = res.Output
		resp.ExitCode = res.ExitCode
	}
	var applyErr *core.ApplyError
	var verr *manifest.ValidationError
	switch {
	case errors.As(err, &verr):
		s.metrics.ObserveApply(metrics.OutcomeInvalid)
		jsonStatus(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &applyErr):
		s.metrics.ObserveApply(metrics.OutcomeFailed)
		jsonStatus(w, http.StatusUnprocessableEntity, resp)
	default:
		s.metrics.ObserveApply(metrics.OutcomeError)
		jsonStatus(w, http.StatusNotFound, resp)
	}
}

// lock takes the pipeline lock, counting the wait.
func (s *apiServer) lock() {
	done := s.metrics.Wait()
	s.mu.Lock()
	done()
}

// resolveApplyPath defaults to the output path and rejects anything outside
// the output directory.
func (s *apiServer) resolveApplyPath(p string) (string, error) {
	if p == "" {
		return s.outputPath, nil
	}
	root, err := filepath.Abs(filepath.Dir(s.outputPath))
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the output directory", p)
	}
	return abs, nil
}

// ── /api/healthz ────────────────────────────────────────────────

func (s *apiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	jsonResponse(w, map[string]interface{}{
		"status":   "ok",
		"provider": s.provider,
		"model":    s.model,
		"kubectl":  core.CommandExists(s.kubectl),
	})
}

func problemStrings(err error) []string {
	var verr *manifest.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]string, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		out = append(out, p.Error())
	}
	return out
}
