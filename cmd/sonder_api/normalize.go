package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/observability"
)

var (
	normalizeFailed  bool
	normalizeVerbose bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text]",
	Short: "Run the prompt normalizer over text",
	Long: `Normalize a candidate question the way generated prompts are normalized.
The text is read from the argument or, when none is given, from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeFailed, "failed", false, "Treat the text as coming from a failed service call")
	normalizeCmd.Flags().BoolVarP(&normalizeVerbose, "verbose", "v", false, "Print the outcome and every normalizer stage")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = strings.TrimRight(string(b), "\n")
	}

	res := newNormalizer(cfg.Prompt).NormalizeDetailed(raw, !normalizeFailed)
	out := cmd.OutOrStdout()
	if !normalizeVerbose {
		fmt.Fprintln(out, res.Text)
		return nil
	}

	fmt.Fprintf(out, "outcome: %s\n", res.Outcome)
	fmt.Fprintf(out, "result:  %s\n", res.Text)
	observability.NewPrinter(out).PrintSteps(res.Steps)
	return nil
}
