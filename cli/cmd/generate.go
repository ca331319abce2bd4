package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kubegen-sh/kubegen/cli/core"
)

var generateCmd = &cobra.Command{
	Use:   "generate [description...]",
	Short: "Generate Kubernetes YAML from a description",
	Long: `Rewrites the description into Kubernetes vocabulary, renders it into
the prompt template, asks the model for manifests and strips any markdown
fencing from the answer.

The manifest is printed to stdout and written to the output path
(output/deployment.yaml by default). With no arguments, or "-", the
description is read from stdin.

Examples:
  kubegen generate "a flask api with 3 pods on port 5050"
  echo "a go app on 9000 with autoscaling" | kubegen generate
  kubegen generate --apply "nginx with 2 replicas"
  kubegen generate --dry-run -m llama3 "a redis cache"`,
	RunE: runGenerate,
}

var (
	genDryRun     bool
	genApply      bool
	genNoValidate bool
)

func init() {
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Print the manifest without writing it")
	generateCmd.Flags().BoolVar(&genApply, "apply", false, "Apply the written manifest with kubectl")
	generateCmd.Flags().BoolVar(&genNoValidate, "no-validate", false, "Skip manifest validation")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genDryRun && genApply {
		return errors.New("--apply needs a written manifest and cannot be combined with --dry-run")
	}
	desc, err := readDescription(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	validate := cfg.Kubectl.Validate && !genNoValidate

	header("Generating manifest")
	step("🤖", fmt.Sprintf("Provider: %s, Model: %s", cfg.Model.Provider, cfg.Model.Name))

	stop := startSpinner("Generating YAML...")
	res, err := gen.Generate(cmd.Context(), desc, core.GenerateOptions{
		DryRun:   genDryRun,
		Validate: validate,
	})
	stop()
	if err != nil {
		return err
	}

	step("📝", dimText(res.Normalized))
	fmt.Fprintln(cmd.OutOrStdout(), res.Manifest)

	if res.Failed {
		fail("Generation failed")
		return fmt.Errorf("generation failed: %w", res.Err)
	}
	if res.Invalid != nil {
		warn("The manifest has problems")
		printProblems(res.Invalid)
	} else if validate {
		success(fmt.Sprintf("%d resource(s) validated", len(res.Resources)))
	}

	if res.Artifact != nil {
		success(fmt.Sprintf("Manifest written to %s", res.Artifact.Path))
	}
	step("⏱️", fmt.Sprintf("Generated in %.1fs", res.Elapsed.Seconds()))

	if !genApply {
		if res.Artifact != nil {
			step("💡", fmt.Sprintf("Apply with: kubegen apply -f %s", filepath.ToSlash(res.Artifact.Path)))
		}
		return nil
	}
	return reportApply(cmd.Context(), cmd.OutOrStdout(), newApplier(cfg, validate), res.Artifact)
}
