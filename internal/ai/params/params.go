// Package params derives the sampling configuration used for every chat
// completion call. Identical inputs always yield identical parameters.
package params

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	ContextWindow = 8192
	SafetyMargin  = 200
	MinMaxTokens  = 512

	// NearZero drives temperature and top_p to greedy decoding. An exact
	// zero is dropped from the request body by the OpenAI client.
	NearZero float32 = 1e-16

	seedModulo = 1_000_000
)

type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Deriver computes Params from the prompt content.
type Deriver struct {
	counter TokenCounter
	logger  *zap.Logger
}

func NewDeriver(counter TokenCounter, logger *zap.Logger) *Deriver {
	if counter == nil {
		counter = NewCounter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deriver{counter: counter, logger: logger}
}

// Derive returns the token budget left in the context window after the
// system prompt and job description, with fixed near-zero sampling.
func (d *Deriver) Derive(systemPrompt, jobDescription, model string) Params {
	text := systemPrompt + jobDescription

	used, err := d.counter.CountTokens(text, model)
	if err != nil {
		used = utf8.RuneCountInString(text) / 4
		d.logger.Debug("token counting failed, using estimate",
			zap.String("model", model),
			zap.Int("estimated_tokens", used),
			zap.Error(err),
		)
	}

	return Params{
		MaxTokens:   MaxTokens(used),
		Temperature: NearZero,
		TopP:        NearZero,
	}
}

// MaxTokens is max(MinMaxTokens, ContextWindow - used - SafetyMargin).
func MaxTokens(used int) int {
	return max(MinMaxTokens, ContextWindow-used-SafetyMargin)
}

// Seed returns a stable identifier in [0, 1000000) for the given inputs.
// md5 is used for speed and stability only.
func Seed(jobDescription, resumeText, analysisType string) int {
	sum := md5.Sum([]byte(jobDescription + "_" + resumeText + "_" + analysisType))
	prefix := hex.EncodeToString(sum[:])[:8]

	// 8 hex digits always fit in 32 bits.
	n, _ := strconv.ParseUint(prefix, 16, 64)
	return int(n % seedModulo)
}
