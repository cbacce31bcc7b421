package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/observability"
)

var (
	generateSave     bool
	generateActivate bool
	generateVerbose  bool
)

var generatePromptCmd = &cobra.Command{
	Use:   "generate-prompt",
	Short: "Run one prompt generation round",
	Long: `Ask the configured text generation service for a question, normalize it and print it.
With --save the prompt is stored; with --activate it replaces the active prompt.`,
	RunE: runGeneratePrompt,
}

func init() {
	generatePromptCmd.Flags().BoolVar(&generateSave, "save", false, "Store the prompt in the database")
	generatePromptCmd.Flags().BoolVar(&generateActivate, "activate", false, "Store the prompt and make it the active one (implies --save)")
	generatePromptCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print the raw reply and the normalizer stages")
	rootCmd.AddCommand(generatePromptCmd)
}

func runGeneratePrompt(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	save := generateSave || generateActivate
	if save {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
	}
	log := newLogger(cfg.Log)
	ctx := cmd.Context()

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	generator, err := newGenerator(cfg, client, log)
	if err != nil {
		return fmt.Errorf("failed to create prompt generator: %w", err)
	}

	generated := generator.Generate(ctx)
	printer := observability.NewPrinter(cmd.OutOrStdout())
	if generateVerbose {
		printer.PrintGenerated(generated)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), generated.Text)
	}

	if !save {
		return nil
	}

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	outcome := string(generated.Outcome)
	in := db.PromptInput{Content: generated.Text, Source: db.PromptSourceGenerated, Outcome: &outcome}
	var prompt *db.Prompt
	if generateActivate {
		prompt, err = database.RotateActivePrompt(ctx, in)
	} else {
		prompt, err = database.CreatePrompt(ctx, in)
	}
	if err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}

	if generateVerbose {
		printer.PrintPrompt(prompt)
	} else {
		log.Info("prompt saved", "prompt_id", prompt.ID, "active", prompt.IsActive)
	}
	return nil
}
