// Package report accumulates analysis results and renders them as JSON, PDF
// and a plain-text project digest.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spigell/resumematch/internal/ai/parse"
)

const (
	KeyJobDescription      = "job_description"
	KeyProfileFit          = "profile_fit"
	KeyKeywordMatch        = "keyword_match"
	KeyCategories          = "categories"
	KeySelectionPercentage = "selection_percentage"
	KeyPositiveCategories  = "positive_categories"
	KeyNegativeCategories  = "negative_categories"
	KeyQAAnswer            = "qa_answer"
)

// Keys lists every section in canonical order.
var Keys = []string{
	KeyJobDescription,
	KeyProfileFit,
	KeyKeywordMatch,
	KeyCategories,
	KeySelectionPercentage,
	KeyPositiveCategories,
	KeyNegativeCategories,
	KeyQAAnswer,
}

// Report holds the sections written so far. Each setter overwrites only its
// own sections; nothing is ever removed.
type Report struct {
	JobDescription      string
	ProfileFit          string
	KeywordMatch        string
	Categories          ScoreList
	SelectionPercentage *int
	PositiveCategories  []string
	NegativeCategories  []string
	QAQuestion          string
	QAAnswer            string
}

func New(jobDescription string) *Report {
	return &Report{JobDescription: jobDescription}
}

func (r *Report) SetProfileFit(text string) {
	r.ProfileFit = text
}

func (r *Report) SetKeywordMatch(text string) {
	r.KeywordMatch = text
}

func (r *Report) SetSelection(categories []parse.Category, percentage int, positive, negative []string) {
	r.Categories = append(ScoreList(nil), categories...)
	r.SelectionPercentage = &percentage
	r.PositiveCategories = nonNil(positive)
	r.NegativeCategories = nonNil(negative)
}

func (r *Report) SetQA(question, answer string) {
	r.QAQuestion = question
	r.QAAnswer = answer
}

// Has reports whether the section key is present.
func (r *Report) Has(key string) bool {
	switch key {
	case KeyJobDescription:
		return true
	case KeyProfileFit:
		return r.ProfileFit != ""
	case KeyKeywordMatch:
		return r.KeywordMatch != ""
	case KeyCategories:
		return len(r.Categories) > 0
	case KeySelectionPercentage, KeyPositiveCategories, KeyNegativeCategories:
		return r.SelectionPercentage != nil
	case KeyQAAnswer:
		return r.QAAnswer != ""
	}
	return false
}

// Present returns the keys of present sections in canonical order.
func (r *Report) Present() []string {
	keys := make([]string, 0, len(Keys))
	for _, k := range Keys {
		if r.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// HasAnalysis is true once any analysis has written to the report.
func (r *Report) HasAnalysis() bool {
	return r.Has(KeyProfileFit) || r.Has(KeyKeywordMatch) || r.Has(KeyCategories) || r.Has(KeyQAAnswer)
}

// Clone returns a deep copy safe to render outside the owner's lock.
func (r *Report) Clone() *Report {
	c := *r
	c.Categories = append(ScoreList(nil), r.Categories...)
	c.PositiveCategories = append([]string(nil), r.PositiveCategories...)
	c.NegativeCategories = append([]string(nil), r.NegativeCategories...)
	if r.SelectionPercentage != nil {
		v := *r.SelectionPercentage
		c.SelectionPercentage = &v
	}
	return &c
}

func (r *Report) value(key string) any {
	switch key {
	case KeyJobDescription:
		return r.JobDescription
	case KeyProfileFit:
		return r.ProfileFit
	case KeyKeywordMatch:
		return r.KeywordMatch
	case KeyCategories:
		return r.Categories
	case KeySelectionPercentage:
		return r.SelectionPercentage
	case KeyPositiveCategories:
		return nonNil(r.PositiveCategories)
	case KeyNegativeCategories:
		return nonNil(r.NegativeCategories)
	case KeyQAAnswer:
		return r.QAAnswer
	}
	return nil
}

// MarshalJSON writes present sections only, in canonical order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Present() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := marshal(r.value(key))
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON renders indented UTF-8 JSON with sections in canonical order.
func (r *Report) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// ScoreList marshals as a JSON object whose keys keep slice order.
type ScoreList []parse.Category

func (s ScoreList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.Score))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func nonNil(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return append([]string(nil), s...)
}
