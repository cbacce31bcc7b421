package main

import (
	"os"
	"testing"
)

// TestMain clears settings a developer .env could leak into command tests.
func TestMain(m *testing.M) {
	for _, key := range []string{"CONFIG_PATH", "DATABASE_URL", "LLM_PROVIDER", "PROMPT_MAX_WORDS", "PROMPT_DEFAULT_QUESTION"} {
		_ = os.Unsetenv(key)
	}
	os.Exit(m.Run())
}
