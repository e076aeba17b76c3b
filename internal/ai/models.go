package ai

import (
	"slices"
	"strings"
)

// DefaultModel is used when neither configuration nor the caller picks one.
const DefaultModel = "llama3-70b-8192"

// Models lists the model identifiers offered to users.
var Models = []string{
	"allam-2-7b",
	"compound-beta",
	"compound-beta-mini",
	"deepseek-r1-distill-llama-70b",
	"gemma2-9b-it",
	"llama-3.1-8b-instant",
	"llama-3.3-70b-versatile",
	"llama3-70b-8192",
	"llama3-8b-8192",
	"meta-llama/llama-4-maverick-17b-128e-instruct",
	"meta-llama/llama-4-scout-17b-16e-instruct",
	"meta-llama/llama-guard-4-12b",
	"meta-llama/llama-prompt-guard-2-22m",
	"meta-llama/llama-prompt-guard-2-86m",
	"mistral-saba-24b",
	"qwen-qwq-32b",
	"qwen/qwen3-32b",
	"distil-whisper-large-v3-en",
	"whisper-large-v3",
	"whisper-large-v3-turbo",
	"playai-tts",
	"playai-tts-arabic",
}

// KnownModel reports whether id is one of Models.
func KnownModel(id string) bool {
	return slices.Contains(Models, strings.TrimSpace(id))
}

// ResolveModel returns the trimmed model, falling back to fallback and then
// DefaultModel when empty.
func ResolveModel(model, fallback string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return DefaultModel
}
