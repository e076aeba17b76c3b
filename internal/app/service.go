// Package app runs the user actions against a session: analyses, project
// selection and report export.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/ranking"
	"github.com/spigell/resumematch/internal/report"
	"github.com/spigell/resumematch/internal/resume"
	"github.com/spigell/resumematch/internal/session"
)

const (
	MinProjects     = 3
	MaxProjects     = 8
	DefaultProjects = 5
)

type RepositoryFetcher interface {
	FetchRepositories(ctx context.Context, username string, filter github.Filter) (*github.Repositories, error)
}

type Service struct {
	Analyzer  *analysis.Analyzer
	GitHub    RepositoryFetcher
	Filter    github.Filter
	Extractor *resume.ProjectExtractor
	PDF       report.PDFOptions
	Logger    *zap.Logger
	Now       func() time.Time
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// NewSession validates the inputs and extracts the projects already listed in the resume.
func (s *Service) NewSession(jobDescription, resumeText, model string) (*session.Session, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	resumeText = strings.TrimSpace(resumeText)
	if jobDescription == "" || resumeText == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, analysis.ErrMissingInput)
	}

	var projects []resume.Project
	if s.Extractor != nil {
		projects = s.Extractor.Extract(resumeText)
	} else {
		projects = resume.ExtractProjects(resumeText)
	}

	sess := session.New(jobDescription, resumeText, model, projects)
	s.log().Info("session created",
		zap.String("session", sess.ID),
		zap.Int("resume_projects", len(projects)),
		zap.String("model", sess.Model),
	)
	return sess, nil
}

// ProfileFit runs the analysis and stores the text under profile_fit.
// A failed call leaves the report untouched.
func (s *Service) ProfileFit(ctx context.Context, sess *session.Session) (*analysis.ProfileFit, error) {
	var res *analysis.ProfileFit
	err := sess.Do(func(r *report.Report) error {
		out, err := s.Analyzer.ProfileFit(ctx, sess.Input())
		if err != nil {
			return s.upstream(sess, analysis.TypeProfileFit, err)
		}
		r.SetProfileFit(out.Text)
		res = out
		return nil
	})
	return res, err
}

func (s *Service) KeywordMatch(ctx context.Context, sess *session.Session) (*analysis.KeywordMatch, error) {
	var res *analysis.KeywordMatch
	err := sess.Do(func(r *report.Report) error {
		out, err := s.Analyzer.KeywordMatch(ctx, sess.Input())
		if err != nil {
			return s.upstream(sess, analysis.TypeKeywordMatch, err)
		}
		r.SetKeywordMatch(out.Text)
		res = out
		return nil
	})
	return res, err
}

func (s *Service) Selection(ctx context.Context, sess *session.Session) (*analysis.Selection, error) {
	var res *analysis.Selection
	err := sess.Do(func(r *report.Report) error {
		out, err := s.Analyzer.SelectionPercentage(ctx, sess.Input())
		if err != nil {
			return s.upstream(sess, analysis.TypeSelection, err)
		}
		r.SetSelection(out.Categories.Scores, out.Percentage, out.Positive, out.Negative)
		res = out
		return nil
	})
	return res, err
}

func (s *Service) QA(ctx context.Context, sess *session.Session, question string) (*analysis.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidArgument)
	}

	var res *analysis.Answer
	err := sess.Do(func(r *report.Report) error {
		out, err := s.Analyzer.QA(ctx, sess.Input(), question)
		if err != nil {
			return s.upstream(sess, analysis.TypeQA, err)
		}
		r.SetQA(out.Question, out.Text)
		res = out
		return nil
	})
	return res, err
}

type ProjectsResult struct {
	Username string                        `json:"username"`
	Fetched  int                           `json:"fetched"`
	Ranked   []ranking.ScoredRepository    `json:"ranked"`
	Projects []analysis.ProjectDescription `json:"projects"`
	Digest   string                        `json:"digest"`
}

// Projects fetches the user's repositories, keeps the maxProjects most relevant
// to the job and describes each of them.
func (s *Service) Projects(ctx context.Context, sess *session.Session, profile string, maxProjects int) (*ProjectsResult, error) {
	if maxProjects < MinProjects || maxProjects > MaxProjects {
		return nil, fmt.Errorf("%w: max projects must be between %d and %d, got %d",
			ErrInvalidArgument, MinProjects, MaxProjects, maxProjects)
	}
	username := github.ExtractUsername(profile)
	if username == "" {
		return nil, fmt.Errorf("%w: github username or profile URL is required", ErrInvalidArgument)
	}
	if s.GitHub == nil {
		return nil, fmt.Errorf("%w: github client is not configured", ErrUpstream)
	}

	var res *ProjectsResult
	err := sess.Do(func(_ *report.Report) error {
		repos, err := s.GitHub.FetchRepositories(ctx, username, s.Filter)
		if err != nil {
			return s.upstream(sess, "repositories", err)
		}

		ranked := ranking.Rank(repos.Items, sess.ExistingProjects(), sess.JobDescription, maxProjects)
		s.log().Info("repositories ranked",
			zap.String("session", sess.ID),
			zap.String("username", username),
			zap.Int("fetched", repos.Len()),
			zap.Int("selected", len(ranked)),
		)

		described := s.Analyzer.DescribeProjects(ctx, sess.JobDescription, sess.Model, ranking.Repositories(ranked))
		res = &ProjectsResult{
			Username: username,
			Fetched:  repos.Len(),
			Ranked:   ranked,
			Projects: described,
			Digest:   report.ProjectDigest(described, s.now()),
		}
		return nil
	})
	return res, err
}

// ReportJSON is an error when nothing beyond the job description is present.
func (s *Service) ReportJSON(sess *session.Session) ([]byte, error) {
	r := sess.Report()
	if !r.HasAnalysis() {
		return nil, fmt.Errorf("%w: run at least one analysis before exporting", ErrInvalidArgument)
	}
	return r.JSON()
}

// ReportPDF renders the report; fallback is true when the minimal document was produced.
func (s *Service) ReportPDF(sess *session.Session) (data []byte, fallback bool, err error) {
	r := sess.Report()
	if !r.HasAnalysis() {
		return nil, false, fmt.Errorf("%w: run at least one analysis before exporting", ErrInvalidArgument)
	}

	opts := s.PDF
	opts.Now = s.now()
	data, fallback, err = r.PDF(opts)
	if data == nil {
		return nil, fallback, err
	}
	if fallback {
		s.log().Warn("report rendering failed; fallback document produced",
			zap.String("session", sess.ID),
			zap.Error(err),
		)
	}
	return data, fallback, nil
}

func (s *Service) upstream(sess *session.Session, operation string, err error) error {
	if errors.Is(err, analysis.ErrMissingInput) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	s.log().Warn("operation failed; report section left unchanged",
		zap.String("session", sess.ID),
		zap.String("operation", operation),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %v", ErrUpstream, operation, err)
}
