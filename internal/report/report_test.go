package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resumematch/internal/ai/parse"
	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/github"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func sampleCategories() []parse.Category {
	return []parse.Category{
		{Name: "Skills", Score: 90},
		{Name: "Experience", Score: 70},
		{Name: "Education", Score: 80},
		{Name: "Keywords", Score: 60},
		{Name: "Certifications", Score: 40},
	}
}

func TestJSONOnlyJobDescription(t *testing.T) {
	out, err := New("Go developer").JSON()
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"job_description\": \"Go developer\"\n}\n", string(out))
}

func TestJSONCanonicalOrder(t *testing.T) {
	r := New("Go & Kubernetes")
	r.SetQA("Q?", "answer")
	r.SetSelection(sampleCategories(), 68, []string{"Skills", "Experience", "Education"}, nil)
	r.SetKeywordMatch("**KEYWORD MATCH PERCENTAGE: 50%**")
	r.SetProfileFit("**FIT SCORE: 80%**")

	out, err := r.JSON()
	require.NoError(t, err)

	text := string(out)
	last := -1
	for _, key := range Keys {
		idx := strings.Index(text, `"`+key+`"`)
		require.NotEqual(t, -1, idx, key)
		assert.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}

	assert.Contains(t, text, `"Go & Kubernetes"`)
	assert.Contains(t, text, `"negative_categories": []`)
	assert.Less(t, strings.Index(text, `"Skills"`), strings.Index(text, `"Certifications"`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(68), decoded[KeySelectionPercentage])
	assert.Equal(t, float64(40), decoded[KeyCategories].(map[string]any)["Certifications"])
}

func TestEmptyCategoryListsStayArrays(t *testing.T) {
	r := New("job")
	r.SetSelection(sampleCategories(), 50, []string{}, nil)

	out, err := r.Clone().JSON()
	require.NoError(t, err)

	assert.Contains(t, string(out), `"positive_categories": []`)
	assert.Contains(t, string(out), `"negative_categories": []`)
	assert.NotContains(t, string(out), "null")
}

func TestSettersOverwriteOwnKeys(t *testing.T) {
	r := New("job")
	r.SetProfileFit("first")
	r.SetKeywordMatch("keywords")
	r.SetProfileFit("second")

	assert.Equal(t, "second", r.ProfileFit)
	assert.Equal(t, "keywords", r.KeywordMatch)
	assert.Equal(t, []string{KeyJobDescription, KeyProfileFit, KeyKeywordMatch}, r.Present())
	assert.True(t, r.HasAnalysis())
	assert.False(t, New("job").HasAnalysis())
}

func TestCloneIsIndependent(t *testing.T) {
	r := New("job")
	r.SetSelection(sampleCategories(), 68, []string{"Skills"}, []string{"Keywords"})

	c := r.Clone()
	*c.SelectionPercentage = 1
	c.Categories[0].Score = 0
	c.PositiveCategories[0] = "changed"

	assert.Equal(t, 68, *r.SelectionPercentage)
	assert.Equal(t, 90, r.Categories[0].Score)
	assert.Equal(t, "Skills", r.PositiveCategories[0])
}

func TestPDFRendersSections(t *testing.T) {
	r := New("Senior Go engineer, café owner ☕")
	r.SetProfileFit(strings.Repeat("x", 1500))
	r.SetSelection(sampleCategories(), 68, nil, nil)
	r.SetQA("Years of Go?", "Five")

	out, fallback, err := r.PDF(PDFOptions{Now: fixedNow})
	require.NoError(t, err)

	assert.False(t, fallback)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), reportTitle)
	assert.Contains(t, string(out), "Profile Fit Evaluation:")
	assert.Contains(t, string(out), strings.Repeat("x", 50))
	assert.Contains(t, string(out), "Skills: 90%")
	assert.NotContains(t, string(out), "Keyword Match Results:")
	assert.Contains(t, string(out), "Generated on 2025-03-04 05:06:07")
}

func TestPDFFallsBackOnRenderError(t *testing.T) {
	out, fallback, err := New("job").PDF(PDFOptions{Font: "NoSuchFont", Now: fixedNow})
	require.NotNil(t, out)

	assert.ErrorIs(t, err, errRender)
	assert.True(t, fallback)
	assert.Contains(t, string(out), fallbackTitle)
	assert.Contains(t, string(out), fallbackBody)
}

func TestProjectDigest(t *testing.T) {
	projects := []analysis.ProjectDescription{
		{
			Repository:   &github.Repository{Name: "docker-api-tool", URL: "https://github.com/jane/docker-api-tool", Languages: []string{"Python", "Dockerfile"}, Topics: []string{"docker"}},
			Title:        "Container Management API",
			Description:  "• Built a REST API",
			Technologies: "Python, Docker",
		},
	}

	got := ProjectDigest(projects, fixedNow)

	want := "SELECTED GITHUB PROJECTS - OPTIMIZED FOR JOB APPLICATION\n" +
		strings.Repeat("=", 60) + "\n" +
		"Selection Criteria: Job Relevance Only (No GitHub Stars Considered)\n" +
		strings.Repeat("=", 60) + "\n\n" +
		"PROJECT 1: Container Management API\n" +
		"GitHub: https://github.com/jane/docker-api-tool\n" +
		"Languages: Python, Dockerfile\n" +
		"Topics: docker\n\n" +
		"• Built a REST API\n\n" +
		"Technologies: Python, Docker\n" +
		strings.Repeat("-", 50) + "\n\n" +
		"\nGenerated on: 2025-03-04 05:06:07\n" +
		"Selection Method: Job Relevance Matching Only\n"

	assert.Equal(t, want, got)
}

func TestProjectDigestEmpty(t *testing.T) {
	got := ProjectDigest(nil, fixedNow)
	assert.True(t, strings.HasPrefix(got, digestHeader))
	assert.NotContains(t, got, "PROJECT 1")
}
