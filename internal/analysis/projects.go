package analysis

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/ai/params"
	"github.com/spigell/resumematch/internal/ai/parse"
	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/sanitize"
)

//go:embed prompts/project_description.md
var projectPromptTemplate string

const (
	projectSystemPrompt = "You are a professional resume writer. Create compelling project descriptions that match job requirements."

	noDescription          = "No description"
	fallbackSubject        = "a comprehensive software project showcasing technical skills"
	fallbackImplementation = "modern technologies"
	fallbackTechnologies   = "Python, JavaScript"
)

// ProjectDescription is the resume-ready text for one repository.
type ProjectDescription struct {
	Repository   *github.Repository `json:"repository"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Technologies string             `json:"technologies"`
	// Generated is false when every field came from the deterministic fallback.
	Generated bool `json:"generated"`
}

// DefaultTitle turns a repository name like "docker-api_tool" into "Docker Api Tool".
func DefaultTitle(name string) string {
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
}

// DescribeProjects never fails: a failed call or an unparseable answer falls
// back to text built from the repository metadata.
func (a *Analyzer) DescribeProjects(ctx context.Context, jobDescription, model string, repos []*github.Repository) []ProjectDescription {
	out := make([]ProjectDescription, 0, len(repos))
	for _, repo := range repos {
		out = append(out, a.describeProject(ctx, jobDescription, model, repo))
	}
	return out
}

func (a *Analyzer) describeProject(ctx context.Context, jobDescription, model string, repo *github.Repository) ProjectDescription {
	result := ProjectDescription{
		Repository:   repo,
		Title:        DefaultTitle(repo.Name),
		Description:  fallbackDescription(repo),
		Technologies: fallbackTechnologiesFor(repo),
	}

	prompt := buildProjectPrompt(jobDescription, repo)
	raw, err := a.complete(ctx, call{
		analysis:     TypeProjectDescription,
		seed:         params.Seed(jobDescription, repo.Name, TypeProjectDescription),
		model:        model,
		budgetPrompt: prompt,
		budgetJob:    jobDescription,
		messages:     []ai.Message{ai.System(projectSystemPrompt), ai.User(prompt)},
	})
	if err != nil {
		a.logger.Warn("using fallback project description", zap.String("repository", repo.Name), zap.Error(err))
		return result
	}

	sections := parse.ParseProjectDescription(raw)
	if sections.Title != "" {
		result.Title = sections.Title
		result.Generated = true
	}
	if sections.Description != "" {
		result.Description = sections.Description
		result.Generated = true
	}
	if sections.Technologies != "" {
		result.Technologies = sections.Technologies
		result.Generated = true
	}

	return result
}

func buildProjectPrompt(jobDescription string, repo *github.Repository) string {
	description := repo.Description
	if strings.TrimSpace(description) == "" {
		description = noDescription
	}

	prompt := strings.TrimSpace(projectPromptTemplate)
	prompt = strings.ReplaceAll(prompt, "{{JOB_DESCRIPTION}}", jobDescription)
	prompt = strings.ReplaceAll(prompt, "{{NAME}}", repo.Name)
	prompt = strings.ReplaceAll(prompt, "{{DESCRIPTION}}", description)
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGES}}", repo.DisplayLanguages())
	prompt = strings.ReplaceAll(prompt, "{{TOPICS}}", joinNonEmpty(repo.Topics))
	prompt = strings.ReplaceAll(prompt, "{{URL}}", repo.URL)
	return prompt
}

func fallbackDescription(repo *github.Repository) string {
	subject := sanitize.OrDefault(repo.Description, fallbackSubject)
	implementation := sanitize.OrDefault(repo.DisplayLanguages(), fallbackImplementation)
	return fmt.Sprintf("• Developed %s\n• Implemented using %s\n• Demonstrates proficiency in software development and problem-solving", subject, implementation)
}

func fallbackTechnologiesFor(repo *github.Repository) string {
	return sanitize.OrDefault(repo.DisplayLanguages(), fallbackTechnologies)
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
