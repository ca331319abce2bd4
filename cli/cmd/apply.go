package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kubegen-sh/kubegen/cli/core"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a generated manifest with kubectl",
	Long: `Runs kubectl apply -f on a manifest written by generate. The manifest
is validated first unless --no-validate is set or kubectl.validate is
false. kubectl's stdout is printed on success and its stderr on failure.

With --watch the manifest is applied again every time it is rewritten,
for example by generate or the API server, until Ctrl+C.

Examples:
  kubegen apply
  kubegen apply -f build/web.yaml --kube-context kind-dev
  kubegen apply --watch`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

var (
	applyFile       string
	applyNoValidate bool
	applyWatch      bool
)

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Manifest to apply (default: the output path)")
	applyCmd.Flags().BoolVar(&applyNoValidate, "no-validate", false, "Skip manifest validation")
	applyCmd.Flags().BoolVarP(&applyWatch, "watch", "w", false, "Re-apply whenever the manifest changes")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	path := applyFile
	if path == "" {
		path = cfg.Output.Path
	}
	validate := cfg.Kubectl.Validate && !applyNoValidate
	applier := newApplier(cfg, validate)

	if !applyWatch {
		return reportApplyFile(cmd.Context(), cmd.OutOrStdout(), applier, path)
	}

	// Watch the file before the first apply so no rewrite is missed.
	watcher, err := core.NewManifestWatcher(path, core.DefaultDebounce)
	if err != nil {
		return err
	}
	if err := reportApplyFile(cmd.Context(), cmd.OutOrStdout(), applier, path); err != nil {
		warn("Waiting for the manifest to change")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header("Watching for changes")
	step("👀", watcher.Path())
	fmt.Fprintf(progress, "  %s\n\n", dimText("Press Ctrl+C to stop"))

	err = watcher.Run(ctx, applier, func(ev core.ApplyEvent) {
		ts := ev.At.Format("15:04:05")
		if ev.Result != nil && ev.Result.Output != "" {
			fmt.Fprint(cmd.OutOrStdout(), ev.Result.Output)
		}
		if ev.Err != nil {
			fail(fmt.Sprintf("[%s] Apply failed: %v", ts, ev.Err))
			printProblems(ev.Err)
			return
		}
		success(fmt.Sprintf("[%s] Re-applied", ts))
	})
	if ctx.Err() != nil && cmd.Context().Err() == nil {
		step("👋", "Watch stopped")
	}
	return err
}
