package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.0-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.0-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierAdvanced))
}

func TestDefaultOllamaConfig_AdvancedFallsBackToStandard(t *testing.T) {
	config := DefaultOllamaConfig()

	assert.Equal(t, ProviderOllama, config.Provider)
	assert.Equal(t, "llama3.2", config.GetModel(TierAdvanced))
}

func TestConfigFor(t *testing.T) {
	assert.Equal(t, ProviderGemini, ConfigFor(ProviderGemini).Provider)
	assert.Equal(t, ProviderOllama, ConfigFor(ProviderOllama).Provider)
	assert.Nil(t, ConfigFor("openai"))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultOllamaConfig()
	config.Host = "http://ollama:11434"
	newConfig := config.WithModel(TierStandard, "mistral")

	// Original should be unchanged
	assert.Equal(t, "llama3.2", config.GetModel(TierStandard))

	assert.Equal(t, "mistral", newConfig.GetModel(TierStandard))
	assert.Equal(t, "llama3.2:1b", newConfig.GetModel(TierLite))
	assert.Equal(t, "http://ollama:11434", newConfig.Host)
}

func TestDefaultGenerationParams(t *testing.T) {
	params := DefaultGenerationParams()

	assert.Equal(t, TierStandard, params.Tier)
	assert.InDelta(t, 0.7, params.Temperature, 1e-6)
	assert.Equal(t, int32(40), params.TopK)
	assert.InDelta(t, 0.95, params.TopP, 1e-6)
	assert.Equal(t, int32(100), params.MaxOutputTokens)
}
