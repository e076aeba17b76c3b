package resume

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const SourceResume = "resume"

// DefaultHeaders are tried in order; the first one present in the resume wins.
var DefaultHeaders = []string{
	"UNIVERSITY PROJECTS",
	"PROJECTS",
	"KEY PROJECTS",
	"RELEVANT PROJECTS",
	"TECHNICAL PROJECTS",
	"PERSONAL PROJECTS",
	"ACADEMIC PROJECTS",
}

const minTitleLength = 10

var sectionEnd = regexp.MustCompile(`(?m)^[A-Z][A-Z \t]+\r?$`)

// Project is a project entry found in the resume text.
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type ProjectExtractor struct {
	headers []*regexp.Regexp
}

// NewProjectExtractor compiles header phrases. Matching is case-insensitive,
// anchored at line start, and a trailing "S" is optional.
func NewProjectExtractor(headers []string) (*ProjectExtractor, error) {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}

	e := &ProjectExtractor{}
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		re, err := regexp.Compile(headerPattern(h))
		if err != nil {
			return nil, fmt.Errorf("compile header %q: %w", h, err)
		}
		e.headers = append(e.headers, re)
	}

	if len(e.headers) == 0 {
		return nil, fmt.Errorf("no project headers configured")
	}

	return e, nil
}

func headerPattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	last := words[len(words)-1]
	if len(last) > 1 && strings.HasSuffix(strings.ToUpper(last), "S") {
		words[len(words)-1] = last[:len(last)-1] + "S?"
	}
	return `(?im)^[ \t]*` + strings.Join(words, `[ \t]+`) + `[ \t]*\r?\n`
}

var defaultExtractor, _ = NewProjectExtractor(DefaultHeaders)

// ExtractProjects runs the default header list over text.
func ExtractProjects(text string) []Project {
	return defaultExtractor.Extract(text)
}

// Extract never fails; unusual layouts just yield fewer projects.
func (e *ProjectExtractor) Extract(text string) []Project {
	body, ok := e.section(text)
	if !ok {
		return nil
	}

	var (
		projects []Project
		current  *Project
	)

	// A title opens the section or follows a blank line; anything else
	// continues the current description.
	afterBlank := true
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			afterBlank = true
			continue
		}
		startsBlock := afterBlank || current == nil
		afterBlank = false

		if startsBlock && isTitle(line) {
			if current != nil {
				projects = append(projects, *current)
			}
			current = &Project{Title: line, Source: SourceResume}
			continue
		}

		if current != nil {
			current.Description += line + "\n"
		}
	}

	if current != nil {
		projects = append(projects, *current)
	}

	return projects
}

func (e *ProjectExtractor) section(text string) (string, bool) {
	for _, re := range e.headers {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if end := sectionEnd.FindStringIndex(body); end != nil {
			body = body[:end[0]]
		}
		return body, true
	}
	return "", false
}

func isTitle(line string) bool {
	if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") {
		return false
	}
	if utf8.RuneCountInString(line) <= minTitleLength {
		return false
	}
	return !strings.HasPrefix(line, "Technologies:") && !strings.HasPrefix(line, "GitHub:")
}

// Titles returns the project titles in order.
func Titles(projects []Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Title)
	}
	return out
}
