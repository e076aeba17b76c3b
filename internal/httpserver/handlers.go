// Package httpserver exposes sessions and their analyses over a JSON API.
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/resume"
	"github.com/spigell/resumematch/internal/session"
)

const (
	DefaultMaxUploadMB     = 5
	DefaultRateLimitPerMin = 30

	maxJSONBody = 1 << 20
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type Options struct {
	CORSOrigins     []string
	RateLimitPerMin int
	MaxUploadMB     int64
	// Models limits the accepted model identifiers. Empty accepts any.
	Models []string
}

type Server struct {
	Service  *app.Service
	Sessions *session.Store
	Options  Options
	Logger   *zap.Logger
}

func NewServer(svc *app.Service, store *session.Store, opts Options, log *zap.Logger) *Server {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = DefaultMaxUploadMB
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = DefaultRateLimitPerMin
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Service: svc, Sessions: store, Options: opts, Logger: log}
}

type createSessionForm struct {
	JobDescription string `validate:"required,max=50000"`
	Model          string `validate:"omitempty,max=100"`
}

type createSessionResponse struct {
	ID             string   `json:"id"`
	Model          string   `json:"model,omitempty"`
	ResumeMIME     string   `json:"resume_mime"`
	ResumeProjects []string `json:"resume_projects"`
}

// CreateSessionHandler accepts a multipart upload with the resume file and the job description.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, fmt.Errorf("%w: content-type must be multipart/form-data", app.ErrInvalidArgument), nil)
			return
		}

		maxBytes := s.Options.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Options.MaxUploadMB},
				}})
				return
			}
			writeError(w, fmt.Errorf("%w: %v", app.ErrInvalidArgument, err), nil)
			return
		}

		form := createSessionForm{
			JobDescription: strings.TrimSpace(r.FormValue("job_description")),
			Model:          strings.TrimSpace(r.FormValue("model")),
		}
		if err := getValidator().Struct(form); err != nil {
			writeError(w, fmt.Errorf("%w: %v", app.ErrInvalidArgument, err), validationDetails(err))
			return
		}
		if form.Model != "" && len(s.Options.Models) > 0 && !slices.Contains(s.Options.Models, form.Model) {
			writeError(w, fmt.Errorf("%w: unknown model %q", app.ErrInvalidArgument, form.Model), map[string]string{"field": "model"})
			return
		}

		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, fmt.Errorf("%w: resume file required", app.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, fmt.Errorf("%w: read resume: %v", app.ErrInvalidArgument, err), nil)
			return
		}

		mime := resume.DetectMIME(data)
		if !resume.Supported(mime) {
			writeError(w, fmt.Errorf("%w: %v", app.ErrInvalidArgument, resume.ErrUnsupportedFormat), map[string]string{"mime": mime})
			return
		}

		text, err := resume.Extract(header.Filename, data)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", app.ErrInvalidArgument, err), map[string]string{"field": "resume"})
			return
		}

		sess, err := s.Service.NewSession(form.JobDescription, text, form.Model)
		if err != nil {
			writeError(w, err, nil)
			return
		}
		s.Sessions.Add(sess)

		writeJSON(w, http.StatusCreated, createSessionResponse{
			ID:             sess.ID,
			Model:          sess.Model,
			ResumeMIME:     mime,
			ResumeProjects: nonNil(resume.Titles(sess.ExistingProjects())),
		})
	}
}

func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
			writeError(w, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ProfileFitHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		res, err := s.Service.ProfileFit(r.Context(), sess)
		respond(w, res, err)
	})
}

func (s *Server) KeywordMatchHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		res, err := s.Service.KeywordMatch(r.Context(), sess)
		respond(w, res, err)
	})
}

func (s *Server) SelectionHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		res, err := s.Service.Selection(r.Context(), sess)
		respond(w, res, err)
	})
}

type qaRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

func (s *Server) QAHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req qaRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := s.Service.QA(r.Context(), sess, req.Question)
		respond(w, res, err)
	})
}

type projectsRequest struct {
	GitHub      string `json:"github" validate:"required,max=200"`
	MaxProjects int    `json:"max_projects" validate:"omitempty,min=3,max=8"`
}

func (s *Server) ProjectsHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req projectsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MaxProjects == 0 {
			req.MaxProjects = app.DefaultProjects
		}
		res, err := s.Service.Projects(r.Context(), sess, req.GitHub, req.MaxProjects)
		respond(w, res, err)
	})
}

func (s *Server) ReportJSONHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
		data, err := s.Service.ReportJSON(sess)
		if err != nil {
			writeError(w, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="resume_analysis_report.json"`)
		_, _ = w.Write(data)
	})
}

func (s *Server) ReportPDFHandler() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
		data, fallback, err := s.Service.ReportPDF(sess)
		if data == nil {
			writeError(w, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="resume_analysis_report.pdf"`)
		if fallback {
			w.Header().Set("X-Report-Fallback", "true")
		}
		_, _ = w.Write(data)
	})
}

func (s *Server) ModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"models": nonNil(s.Options.Models)})
	}
}

func (s *Server) withSession(next func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err, map[string]string{"id": chi.URLParam(r, "id")})
			return
		}
		next(w, r, sess)
	}
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// decodeBody reads and validates a JSON body, writing the error response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json: %v", app.ErrInvalidArgument, err), nil)
		return false
	}
	if err := getValidator().Struct(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", app.ErrInvalidArgument, err), validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
