package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubegen-sh/kubegen/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generate and apply pipeline as a JSON API",
	Long: `Starts a local HTTP server exposing the same pipeline as the CLI:

  POST /api/generate  {"prompt": "...", "dry_run": false}
  POST /api/apply     {"path": "output/deployment.yaml"}
  GET  /api/healthz
  GET  /metrics       Prometheus metrics

Requests that call the model or kubectl are handled one at a time. The
server listens on 127.0.0.1:8501 by default.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Address to listen on (default: server.host)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default: server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	host, port := cfg.Server.Host, cfg.Server.Port
	if f := cmd.Flags().Lookup("host"); f.Changed {
		host = f.Value.String()
	}
	if f := cmd.Flags().Lookup("port"); f.Changed {
		port, _ = cmd.Flags().GetInt("port")
	}

	api, err := newAPIServer(cfg)
	if err != nil {
		return err
	}
	log := logger.FromContext(cmd.Context())
	api.log = log

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	server := &http.Server{
		Addr:         addr,
		Handler:      api.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Model.Timeout + cfg.Kubectl.Timeout + 30*time.Second,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		<-stop
		fmt.Fprintln(progress, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("Shutdown did not complete", "error", err)
		}
	}()

	header("kubegen API")
	step("🌐", "http://"+addr)
	step("🤖", fmt.Sprintf("Provider: %s, Model: %s", cfg.Model.Provider, cfg.Model.Name))
	fmt.Fprintf(progress, "  %s\n\n", dimText("Press Ctrl+C to stop"))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// ── JSON helpers ────────────────────────────────────────────────

func jsonResponse(w http.ResponseWriter, data interface{}) {
	jsonStatus(w, http.StatusOK, data)
}

func jsonStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, code, map[string]string{"error": msg})
}

// requireMethod returns true if the method matches; otherwise writes 405.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}
