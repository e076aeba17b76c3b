// Package session keeps the inputs and accumulated report of one user.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/report"
	"github.com/spigell/resumematch/internal/resume"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID             string
	JobDescription string
	ResumeText     string
	Model          string
	CreatedAt      time.Time

	mu       sync.Mutex
	report   *report.Report
	projects []resume.Project
}

// New creates a session. projects are the entries already listed in the resume.
func New(jobDescription, resumeText, model string, projects []resume.Project) *Session {
	return &Session{
		ID:             uuid.NewString(),
		JobDescription: jobDescription,
		ResumeText:     resumeText,
		Model:          strings.TrimSpace(model),
		CreatedAt:      time.Now().UTC(),
		report:         report.New(jobDescription),
		projects:       append([]resume.Project(nil), projects...),
	}
}

// Input returns the analysis input built from the session.
func (s *Session) Input() analysis.Input {
	return analysis.Input{
		JobDescription: s.JobDescription,
		ResumeText:     s.ResumeText,
		Model:          s.Model,
	}
}

// Do runs fn with exclusive access to the session report. Operations on one
// session never overlap.
func (s *Session) Do(fn func(r *report.Report) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.report)
}

// Report returns a copy of the current report.
func (s *Session) Report() *report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.Clone()
}

// ExistingProjects are the projects already listed in the resume.
func (s *Session) ExistingProjects() []resume.Project {
	return append([]resume.Project(nil), s.projects...)
}

// Store is an in-memory session registry. Sessions live until deleted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
