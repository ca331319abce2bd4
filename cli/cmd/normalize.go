package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kubegen-sh/kubegen/pkg/prompt"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [description...]",
	Short: "Show how a description is rewritten before prompting",
	Long: `Prints the description after lower-casing and phrase rewriting, which is
the text the prompt template receives.

--trace lists the rules that fired and whether the result depends on rule
order. --lint reports rules that shadow or feed into each other, or whose
replacement contains a pattern, without reading a description.`,
	RunE: runNormalize,
}

var (
	normTrace bool
	normLint  bool
)

func init() {
	normalizeCmd.Flags().BoolVar(&normTrace, "trace", false, "Show fired rules and order sensitivity")
	normalizeCmd.Flags().BoolVar(&normLint, "lint", false, "Report conflicts in the rule table")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	n := prompt.NewNormalizer(nil)
	out := cmd.OutOrStdout()

	if normLint {
		printConflicts(out, n.Rules())
		return nil
	}

	desc, err := readDescription(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if !normTrace {
		fmt.Fprintln(out, n.Normalize(desc))
		return nil
	}

	tr := n.Trace(desc)
	fmt.Fprintln(out, tr.Output)
	rules := n.Rules()
	for _, i := range tr.Fired {
		fmt.Fprintf(out, "  [%d] %q -> %q\n", i, rules[i].Pattern, rules[i].Replacement)
	}
	if len(tr.Fired) == 0 {
		fmt.Fprintln(out, "  no rules fired")
	}
	if tr.OrderSensitive {
		fmt.Fprintln(out, "  order-sensitive: reversing the rule order changes the result")
	}
	return nil
}

func printConflicts(out io.Writer, rules prompt.Rules) {
	conflicts := rules.Conflicts()
	if len(conflicts) == 0 {
		fmt.Fprintln(out, "no conflicts")
		return
	}
	for _, c := range conflicts {
		fmt.Fprintf(out, "%-9s [%d] %q / [%d] %q\n", c.Kind,
			c.Earlier, rules[c.Earlier].Pattern, c.Later, rules[c.Later].Pattern)
	}
	fmt.Fprintf(out, "%d conflict(s)\n", len(conflicts))
}
