// Package parse extracts typed values from loosely structured model output.
//
// Every parser walks the same chain: a structured parse of the expected
// format, then a regular expression fallback, then a zero default. The
// Source of a result tells which step produced it.
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type Source string

const (
	SourceStructured Source = "structured"
	SourceRegex      Source = "regex"
	SourceDefault    Source = "default"
)

// Score is a 0..100 value parsed from model output.
type Score struct {
	Value  int    `json:"value"`
	Source Source `json:"source"`
}

var anyPercentRe = regexp.MustCompile(`(\d{1,3})(?:\.\d+)?\s*%`)

// Percentage looks for "<label>: N%" (markdown emphasis allowed), then for
// the first "N%" anywhere in text.
func Percentage(text, label string) Score {
	if label = strings.TrimSpace(label); label != "" {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[\s*_:\-]*(\d{1,3})(?:\.\d+)?`)
		if m := re.FindStringSubmatch(text); m != nil {
			return Score{Value: atoiClamp(m[1]), Source: SourceStructured}
		}
	}

	if m := anyPercentRe.FindStringSubmatch(text); m != nil {
		return Score{Value: atoiClamp(m[1]), Source: SourceRegex}
	}

	return Score{Source: SourceDefault}
}

// ExtractJSONObject strips code fences and returns the text between the
// first '{' and the last '}'. ok is false when no such span exists.
func ExtractJSONObject(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func atoiClamp(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return clamp(n)
}

func clamp(n int) int {
	return min(max(n, 0), 100)
}

// gjsonScore reads a number or a numeric string; anything else is 0.
func gjsonScore(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return clamp(int(math.Round(v.Float())))
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v.Str), "%"), 64)
		if err != nil {
			return 0
		}
		return clamp(int(math.Round(f)))
	default:
		return 0
	}
}
