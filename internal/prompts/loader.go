// Package prompts provides a loader for the static question tables used by
// prompt generation: topic instructions sent to the text service and the
// curated fallback questions. Tables are stored as JSON and embedded at
// compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Table files bundled with the binary.
const (
	TopicsFile    = "topics.json"
	QuestionsFile = "questions.json"
)

//go:embed *.json
var promptFiles embed.FS

// cache stores parsed table files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string]json.RawMessage)
	cacheMu sync.RWMutex
)

// Get retrieves a string entry by filename and key.
// The filename should not include the path (e.g., "topics.json").
// Returns an error if the file or key is not found, or the entry is not a string.
func Get(filename, key string) (string, error) {
	raw, err := lookup(filename, key)
	if err != nil {
		return "", err
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("prompt key %q in %s is not a string: %w", key, filename, err)
	}
	return value, nil
}

// MustGet retrieves a string entry by filename and key, panicking if not found.
// Use this for entries that are required at initialization time.
func MustGet(filename, key string) string {
	value, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return value
}

// GetList retrieves a list entry by filename and key.
func GetList(filename, key string) ([]string, error) {
	raw, err := lookup(filename, key)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("prompt key %q in %s is not a list: %w", key, filename, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("prompt key %q in %s is empty", key, filename)
	}
	return values, nil
}

// MustGetList is GetList that panics on error.
func MustGetList(filename, key string) []string {
	values, err := GetList(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt list: %v", err))
	}
	return values
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
// This is a simple template system for prompt customization.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

func lookup(filename, key string) (json.RawMessage, error) {
	entries, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	raw, exists := entries[key]
	if !exists {
		return nil, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return raw, nil
}

// loadFile loads and caches a table file.
func loadFile(filename string) (map[string]json.RawMessage, error) {
	cacheMu.RLock()
	if entries, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return entries, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = entries
	cacheMu.Unlock()

	return entries, nil
}

// ClearCache clears the table cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]json.RawMessage)
	cacheMu.Unlock()
}

// List returns all available keys in a file, sorted.
func List(filename string) ([]string, error) {
	entries, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
