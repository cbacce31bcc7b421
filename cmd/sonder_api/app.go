package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/llm"
	"github.com/sonder-app/sonder-api/internal/logging"
	"github.com/sonder-app/sonder-api/internal/promptgen"
)

// providerNone disables the text generation service.
const providerNone = "none"

func newLogger(cfg config.LogConfig) logging.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.Level(cfg.Level)
	lc.JSON = strings.EqualFold(cfg.Format, "json")
	return logging.New(lc)
}

// newLLMClient builds the configured text generation client. The "none"
// provider yields a nil client.
func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	provider := llm.Provider(strings.ToLower(cfg.Provider))
	if provider == providerNone {
		return nil, nil
	}

	llmConfig := llm.ConfigFor(provider)
	if llmConfig == nil {
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	llmConfig.Host = cfg.OllamaHost

	client, err := llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, nil
}

func newNormalizer(cfg config.PromptConfig) *promptgen.Normalizer {
	policy := promptgen.DefaultPolicy().WithMaxWords(cfg.MaxWords)
	if cfg.DefaultQuestion != "" {
		policy.DefaultQuestion = cfg.DefaultQuestion
	}
	return promptgen.NewNormalizer(policy, nil)
}

func newGenerator(cfg *config.Config, client llm.Client, log logging.Logger) (*promptgen.Generator, error) {
	var text promptgen.TextGenerator
	if client != nil {
		text = client
	}
	return promptgen.NewGenerator(text, newNormalizer(cfg.Prompt), promptgen.GeneratorConfig{
		Params: llm.GenerationParams{
			Tier:            llm.TierStandard,
			Temperature:     cfg.LLM.Temperature,
			TopK:            cfg.LLM.TopK,
			TopP:            cfg.LLM.TopP,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		},
		Timeout: cfg.LLM.Timeout,
	}, log)
}
