package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/ai/params"
	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/session"
)

type stubCompleter struct {
	mu  sync.Mutex
	err error
}

func (c *stubCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	switch req.Operation {
	case analysis.TypeProfileFit:
		return "**FIT SCORE: 75%**\nSolid match.", nil
	case analysis.TypeKeywordMatch:
		return "**KEYWORD MATCH: 64%**", nil
	case analysis.TypeSelection:
		return `Scores: {"skills": 90, "experience": 70, "education": 60, "keywords": 80, "certifications": 50}`, nil
	case analysis.TypeQA:
		return "The candidate used Go for five years.", nil
	case analysis.TypeProjectDescription:
		return "TITLE: Docker API Tool\nDESCRIPTION: Container API.\nTECHNOLOGIES: Go, Docker", nil
	}
	return "", ai.ErrEmptyResponse
}

func (c *stubCompleter) Provider() string { return "stub" }

type fixedCounter struct{}

func (fixedCounter) CountTokens(string, string) (int, error) { return 50, nil }

type stubFetcher struct{ err error }

func (f stubFetcher) FetchRepositories(context.Context, string, github.Filter) (*github.Repositories, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &github.Repositories{Items: []*github.Repository{
		{Name: "docker-api-tool", Description: "go api for docker", Language: "Go", Languages: []string{"Go"}},
		{Name: "dotfiles"},
		{Name: "blog"},
		{Name: "kubernetes-operator", Description: "go operator", Language: "Go"},
	}}, nil
}

const (
	job        = "Go developer with Docker and Kubernetes experience"
	resumeBody = "John Smith\nGo engineer\n\nPROJECTS\nMonitoring Dashboard Service\n- Go, Prometheus\n"
)

type testEnv struct {
	completer *stubCompleter
	store     *session.Store
	handler   http.Handler
}

func newTestEnv(t *testing.T, fetcher app.RepositoryFetcher) *testEnv {
	t.Helper()
	completer := &stubCompleter{}
	log := zap.NewNop()
	svc := &app.Service{
		Analyzer: analysis.New(completer, params.NewDeriver(fixedCounter{}, log), log),
		GitHub:   fetcher,
		Logger:   log,
	}
	store := session.NewStore()
	srv := NewServer(svc, store, Options{Models: ai.Models, RateLimitPerMin: 1000, MaxUploadMB: 1}, log)
	return &testEnv{completer: completer, store: store, handler: BuildRouter(srv)}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{"job_description": job, "model": "gemma2-9b-it"}, "resume.txt", []byte(resumeBody))
	rec := e.do(t, http.MethodPost, "/v1/sessions", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gemma2-9b-it", resp.Model)
	assert.Equal(t, "text/plain", resp.ResumeMIME)
	assert.Equal(t, []string{"Monitoring Dashboard Service"}, resp.ResumeProjects)
	return resp.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})
	id := env.createSession(t)
	base := "/v1/sessions/" + id

	rec := env.do(t, http.MethodPost, base+"/profile-fit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fit analysis.ProfileFit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fit))
	assert.Equal(t, 75, fit.FitScore)

	rec = env.do(t, http.MethodPost, base+"/keyword-match", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/selection", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sel analysis.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, 70, sel.Percentage)
	assert.Equal(t, []string{"Skills", "Experience", "Keywords"}, sel.Positive)

	rec = env.do(t, http.MethodPost, base+"/qa", []byte(`{"question":"How long with Go?"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, base+"/report.json", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "resume_analysis_report.json")
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.EqualValues(t, 70, doc["selection_percentage"])
	assert.Equal(t, "The candidate used Go for five years.", doc["qa_answer"])

	rec = env.do(t, http.MethodGet, base+"/report.pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	assert.Empty(t, rec.Header().Get("X-Report-Fallback"))

	rec = env.do(t, http.MethodDelete, "/v1/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.store.Len())
}

func TestProjectsEndpoint(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})
	id := env.createSession(t)

	rec := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/projects", []byte(`{"github":"https://github.com/john","max_projects":3}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res app.ProjectsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "john", res.Username)
	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "docker-api-tool", res.Ranked[0].Repository.Name)
	assert.Contains(t, res.Digest, "SELECTED GITHUB PROJECTS")
}

func TestProjectsEndpointValidation(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})
	id := env.createSession(t)

	for _, body := range []string{
		`{"github":"john","max_projects":9}`,
		`{"github":"john","max_projects":2}`,
		`{"max_projects":5}`,
		`{"github":"john","unknown":true}`,
		`not json`,
	} {
		rec := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/projects", []byte(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code, body)
	}
}

func TestUpstreamErrors(t *testing.T) {
	env := newTestEnv(t, stubFetcher{err: errors.New("github unavailable")})
	id := env.createSession(t)

	rec := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/projects", []byte(`{"github":"john"}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM", decodeError(t, rec).Code)

	env.completer.err = errors.New("rate limited")
	rec = env.do(t, http.MethodPost, "/v1/sessions/"+id+"/profile-fit", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Nothing was stored, so there is nothing to export.
	rec = env.do(t, http.MethodGet, "/v1/sessions/"+id+"/report.json", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})

	for _, path := range []string{"/v1/sessions/missing/profile-fit", "/v1/sessions/missing/selection"} {
		rec := env.do(t, http.MethodPost, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	}
	rec := env.do(t, http.MethodGet, "/v1/sessions/missing/report.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		file     []byte
		status   int
	}{
		{name: "missing job description", fields: map[string]string{}, filename: "cv.txt", file: []byte(resumeBody), status: http.StatusBadRequest},
		{name: "missing resume", fields: map[string]string{"job_description": job}, status: http.StatusBadRequest},
		{name: "unsupported format", fields: map[string]string{"job_description": job}, filename: "cv.png", file: png, status: http.StatusBadRequest},
		{name: "empty resume", fields: map[string]string{"job_description": job}, filename: "cv.txt", file: []byte("   \n"), status: http.StatusBadRequest},
		{name: "unknown model", fields: map[string]string{"job_description": job, "model": "gpt-17"}, filename: "cv.txt", file: []byte(resumeBody), status: http.StatusBadRequest},
		{name: "too large", fields: map[string]string{"job_description": job}, filename: "cv.txt", file: bytes.Repeat([]byte("a "), 1<<20), status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.filename, tt.file)
			rec := env.do(t, http.MethodPost, "/v1/sessions", body, ct)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code)
		})
	}

	rec := env.do(t, http.MethodPost, "/v1/sessions", []byte(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.store.Len())
}

func TestModelsHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, stubFetcher{})

	rec := env.do(t, http.MethodGet, "/v1/models", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var models map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, ai.Models, models["models"])

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", nil, "").Code)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, ParseOrigins(" https://a.example, ,https://b.example "))
}
