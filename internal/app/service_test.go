package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/ai/params"
	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/report"
)

type scriptedCompleter struct {
	mu  sync.Mutex
	err error
	// byOperation answers by request operation; missing entries return ErrEmptyResponse.
	byOperation map[string]string
	calls       int
}

func (c *scriptedCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	out, ok := c.byOperation[req.Operation]
	if !ok {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}

func (c *scriptedCompleter) Provider() string { return "fake" }

type fixedCounter struct{}

func (fixedCounter) CountTokens(string, string) (int, error) { return 100, nil }

type fakeFetcher struct {
	repos    []*github.Repository
	err      error
	username string
}

func (f *fakeFetcher) FetchRepositories(ctx context.Context, username string, filter github.Filter) (*github.Repositories, error) {
	f.username = username
	if f.err != nil {
		return nil, f.err
	}
	repos := &github.Repositories{Items: f.repos}
	if filter != nil {
		return filter.Filter(ctx, username, repos)
	}
	return repos, nil
}

const (
	jobDescription = "Python developer with Docker and API experience"
	resumeText     = "Jane Doe\n\nPROJECTS\nInventory Management Tool\n- Python service\n\nEXPERIENCE\nEngineer"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(completer ai.Completer, fetcher RepositoryFetcher, log *zap.Logger) *Service {
	return &Service{
		Analyzer: analysis.New(completer, params.NewDeriver(fixedCounter{}, log), log),
		GitHub:   fetcher,
		Logger:   log,
		Now:      func() time.Time { return fixedNow },
	}
}

func TestNewSessionValidatesInput(t *testing.T) {
	svc := newService(&scriptedCompleter{}, nil, zap.NewNop())

	_, err := svc.NewSession(" ", resumeText, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)
	require.Len(t, sess.ExistingProjects(), 1)
	assert.Equal(t, "Inventory Management Tool", sess.ExistingProjects()[0].Title)
}

func TestAnalysesFillReport(t *testing.T) {
	completer := &scriptedCompleter{byOperation: map[string]string{
		analysis.TypeProfileFit:   "**FIT SCORE: 80%**",
		analysis.TypeKeywordMatch: "**KEYWORD MATCH: 60%**",
		analysis.TypeSelection:    `{"skills": 80, "experience": 60, "education": 70, "keywords": 90, "certifications": 50}`,
		analysis.TypeQA:           "Yes, Docker is listed.",
	}}
	svc := newService(completer, nil, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)
	ctx := context.Background()

	fit, err := svc.ProfileFit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 80, fit.FitScore)

	_, err = svc.KeywordMatch(ctx, sess)
	require.NoError(t, err)

	sel, err := svc.Selection(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 70, sel.Percentage)

	_, err = svc.QA(ctx, sess, "Does the candidate know Docker?")
	require.NoError(t, err)

	r := sess.Report()
	assert.Equal(t, report.Keys, r.Present())
	require.NotNil(t, r.SelectionPercentage)
	assert.Equal(t, 70, *r.SelectionPercentage)
	assert.Equal(t, "Yes, Docker is listed.", r.QAAnswer)

	data, err := svc.ReportJSON(sess)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"job_description\""))

	pdf, fallback, err := svc.ReportPDF(sess)
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestFailedAnalysisLeavesReportUnchanged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	completer := &scriptedCompleter{byOperation: map[string]string{analysis.TypeProfileFit: "**FIT SCORE: 80%**"}}
	svc := newService(completer, nil, zap.New(core))
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	_, err = svc.ProfileFit(context.Background(), sess)
	require.NoError(t, err)

	completer.err = errors.New("connection reset")
	_, err = svc.ProfileFit(context.Background(), sess)
	assert.ErrorIs(t, err, ErrUpstream)
	_, err = svc.KeywordMatch(context.Background(), sess)
	assert.ErrorIs(t, err, ErrUpstream)

	r := sess.Report()
	assert.Equal(t, "**FIT SCORE: 80%**", r.ProfileFit)
	assert.False(t, r.Has(report.KeyKeywordMatch))
	assert.Equal(t, 2, logs.FilterMessage("operation failed; report section left unchanged").Len())
}

func TestReportPDFFallbackLogsCause(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	completer := &scriptedCompleter{byOperation: map[string]string{analysis.TypeProfileFit: "**FIT SCORE: 80%**"}}
	svc := newService(completer, nil, zap.New(core))
	svc.PDF = report.PDFOptions{Font: "NoSuchFont"}
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)
	_, err = svc.ProfileFit(context.Background(), sess)
	require.NoError(t, err)

	pdf, fallback, err := svc.ReportPDF(sess)
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	entries := logs.FilterMessage("report rendering failed; fallback document produced").All()
	require.Len(t, entries, 1)
	cause, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Contains(t, cause, "render pdf")
}

func TestQARequiresQuestion(t *testing.T) {
	completer := &scriptedCompleter{}
	svc := newService(completer, nil, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	_, err = svc.QA(context.Background(), sess, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, completer.calls)
}

func TestExportRequiresAnalysis(t *testing.T) {
	svc := newService(&scriptedCompleter{}, nil, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	_, err = svc.ReportJSON(sess)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = svc.ReportPDF(sess)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProjects(t *testing.T) {
	fetcher := &fakeFetcher{repos: []*github.Repository{
		{Name: "html-portfolio", Language: "HTML"},
		{Name: "docker-api-tool", Description: "Python API in docker", Language: "Python", Languages: []string{"Python"}},
		{Name: "inventory-management", Description: "python inventory", Language: "Python"},
		{Name: "notes"},
	}}
	completer := &scriptedCompleter{byOperation: map[string]string{
		analysis.TypeProjectDescription: "TITLE: Docker API Tool\nDESCRIPTION: Built an API.\nTECHNOLOGIES: Python, Docker",
	}}
	svc := newService(completer, fetcher, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	res, err := svc.Projects(context.Background(), sess, "https://github.com/jane", 3)
	require.NoError(t, err)

	assert.Equal(t, "jane", fetcher.username)
	assert.Equal(t, 4, res.Fetched)
	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "docker-api-tool", res.Ranked[0].Repository.Name)
	require.Len(t, res.Projects, 3)
	assert.Contains(t, res.Digest, "PROJECT 1: Docker API Tool")
	assert.Contains(t, res.Digest, "Generated on: 2024-03-01 10:00:00")

	// Project selection never touches the analysis report.
	assert.False(t, sess.Report().HasAnalysis())
}

func TestProjectsValidation(t *testing.T) {
	svc := newService(&scriptedCompleter{}, &fakeFetcher{}, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	for _, n := range []int{2, 9} {
		_, err := svc.Projects(context.Background(), sess, "jane", n)
		assert.ErrorIs(t, err, ErrInvalidArgument, "max %d", n)
	}
	_, err = svc.Projects(context.Background(), sess, "  ", 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProjectsFetchFailure(t *testing.T) {
	svc := newService(&scriptedCompleter{}, &fakeFetcher{err: errors.New("status 404")}, zap.NewNop())
	sess, err := svc.NewSession(jobDescription, resumeText, "")
	require.NoError(t, err)

	_, err = svc.Projects(context.Background(), sess, "jane", 5)
	assert.ErrorIs(t, err, ErrUpstream)
}
