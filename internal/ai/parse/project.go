package parse

import (
	"regexp"
	"strings"
)

var (
	titleRe        = regexp.MustCompile(`(?i)TITLE:\s*(.+)`)
	descriptionRe  = regexp.MustCompile(`(?is)DESCRIPTION:\s*(.*?)(?:TECHNOLOGIES:|\z)`)
	technologiesRe = regexp.MustCompile(`(?i)TECHNOLOGIES:\s*(.+)`)
)

// ProjectSections are the parts of a generated project description. Empty
// fields were not present in the model output.
type ProjectSections struct {
	Title        string
	Description  string
	Technologies string
}

func ParseProjectDescription(text string) ProjectSections {
	var out ProjectSections
	if m := titleRe.FindStringSubmatch(text); m != nil {
		out.Title = cleanMarkdown(m[1])
	}
	if m := descriptionRe.FindStringSubmatch(text); m != nil {
		desc := strings.TrimSpace(m[1])
		desc = strings.TrimSpace(strings.TrimPrefix(desc, "**"))
		out.Description = strings.TrimSpace(strings.TrimSuffix(desc, "**"))
	}
	if m := technologiesRe.FindStringSubmatch(text); m != nil {
		out.Technologies = cleanMarkdown(m[1])
	}
	return out
}

func cleanMarkdown(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
}
