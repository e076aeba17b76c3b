package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		label  string
		want   int
		source Source
	}{
		{
			name:   "markdown label",
			text:   "**FIT SCORE: 78%**\n\n**TOP 3 STRENGTHS:**",
			label:  "FIT SCORE",
			want:   78,
			source: SourceStructured,
		},
		{
			name:   "case insensitive with decimals",
			text:   "keyword match percentage - 64.5%",
			label:  "KEYWORD MATCH PERCENTAGE",
			want:   64,
			source: SourceStructured,
		},
		{
			name:   "fallback to first percentage",
			text:   "Overall the candidate is a 55 % match for the role.",
			label:  "FIT SCORE",
			want:   55,
			source: SourceRegex,
		},
		{
			name:   "clamped",
			text:   "FIT SCORE: 250%",
			label:  "FIT SCORE",
			want:   100,
			source: SourceStructured,
		},
		{
			name:   "nothing found",
			text:   "I cannot evaluate this resume.",
			label:  "FIT SCORE",
			want:   0,
			source: SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(tt.text, tt.label)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	obj, ok := ExtractJSONObject("```json\n{\"skills\": 80}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"skills": 80}`, obj)

	obj, ok = ExtractJSONObject(`Sure! Here it is: {"a": {"b": 1}} Hope this helps.`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, obj)

	_, ok = ExtractJSONObject("no braces } here {")
	assert.False(t, ok)
}

func TestParseCategoriesStructured(t *testing.T) {
	raw := "Here are the scores:\n{\n  \"skills\": 85,\n  \"experience\": \"70\",\n  \"education\": 90.4,\n  \"keywords\": 60\n}\nThanks"

	cats := ParseCategories(raw)

	assert.Equal(t, SourceStructured, cats.Source)
	assert.Equal(t, []Category{
		{Name: "Skills", Score: 85},
		{Name: "Experience", Score: 70},
		{Name: "Education", Score: 90},
		{Name: "Keywords", Score: 60},
		{Name: "Certifications", Score: 0},
	}, cats.Scores)
}

func TestParseCategoriesRegexFallback(t *testing.T) {
	raw := "Skills: 80\nExperience - 60\nEducation: 70\nkeywords:50\nCertifications: 40 {broken json"

	cats := ParseCategories(raw)

	assert.Equal(t, SourceRegex, cats.Source)
	assert.Equal(t, map[string]int{
		"Skills": 80, "Experience": 60, "Education": 70, "Keywords": 50, "Certifications": 40,
	}, cats.Map())
}

func TestParseCategoriesInvalidJSONFallsBack(t *testing.T) {
	raw := `{"skills": 80, "experience": }` + "\nskills: 75"

	cats := ParseCategories(raw)

	assert.Equal(t, SourceRegex, cats.Source)
	assert.Equal(t, 80, cats.Map()["Skills"])
}

func TestParseCategoriesTruncatedJSONKeepsQuotedScores(t *testing.T) {
	raw := "Here are the scores:\n{\"skills\": 85, \"experience\": 70, \"education\": 60, \"keywords\": 75,"

	cats := ParseCategories(raw)

	assert.Equal(t, SourceRegex, cats.Source)
	assert.Equal(t, map[string]int{
		"Skills": 85, "Experience": 70, "Education": 60, "Keywords": 75, "Certifications": 0,
	}, cats.Map())
}

func TestParseCategoriesDefault(t *testing.T) {
	cats := ParseCategories("The model refused.")

	assert.Equal(t, SourceDefault, cats.Source)
	require.Len(t, cats.Scores, 5)
	for _, c := range cats.Scores {
		assert.Zero(t, c.Score)
	}
	assert.Zero(t, cats.Selection())
}

func TestSelectionAndSplit(t *testing.T) {
	cats := Categories{Scores: []Category{
		{Name: "Skills", Score: 90},
		{Name: "Experience", Score: 70},
		{Name: "Education", Score: 80},
		{Name: "Keywords", Score: 60},
		{Name: "Certifications", Score: 40},
	}}

	assert.Equal(t, 68, cats.Selection())

	positive, negative := cats.Split()
	assert.Equal(t, []string{"Skills", "Experience", "Education"}, positive)
	assert.Equal(t, []string{"Keywords", "Certifications"}, negative)
}

func TestSelectionRoundsHalfToEven(t *testing.T) {
	cats := Categories{Scores: []Category{{Score: 82}, {Score: 83}}}
	assert.Equal(t, 82, cats.Selection())

	cats = Categories{Scores: []Category{{Score: 83}, {Score: 84}}}
	assert.Equal(t, 84, cats.Selection())
}

func TestParseProjectDescription(t *testing.T) {
	raw := `Here you go:
**TITLE:** Containerised Inventory API
**DESCRIPTION:**
• Built a REST API in Python
• Shipped it with Docker
**TECHNOLOGIES:** Python, Docker, FastAPI`

	got := ParseProjectDescription(raw)

	assert.Equal(t, "Containerised Inventory API", got.Title)
	assert.Equal(t, "• Built a REST API in Python\n• Shipped it with Docker", got.Description)
	assert.Equal(t, "Python, Docker, FastAPI", got.Technologies)
}

func TestParseProjectDescriptionPartial(t *testing.T) {
	got := ParseProjectDescription("DESCRIPTION:\n- did things\n- more things")

	assert.Empty(t, got.Title)
	assert.Equal(t, "- did things\n- more things", got.Description)
	assert.Empty(t, got.Technologies)
}
