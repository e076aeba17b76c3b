package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/resumematch/internal/analysis"
)

const (
	digestHeader   = "SELECTED GITHUB PROJECTS - OPTIMIZED FOR JOB APPLICATION"
	digestCriteria = "Selection Criteria: Job Relevance Only (No GitHub Stars Considered)"
	digestMethod   = "Selection Method: Job Relevance Matching Only"
)

// ProjectDigest renders the plain-text listing of selected projects.
func ProjectDigest(projects []analysis.ProjectDescription, now time.Time) string {
	var b strings.Builder

	b.WriteString(digestHeader + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(digestCriteria + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i, p := range projects {
		var url, languages string
		var topics []string
		if p.Repository != nil {
			url = p.Repository.URL
			languages = p.Repository.DisplayLanguages()
			topics = p.Repository.Topics
		}

		fmt.Fprintf(&b, "PROJECT %d: %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "GitHub: %s\n", url)
		fmt.Fprintf(&b, "Languages: %s\n", languages)
		fmt.Fprintf(&b, "Topics: %s\n\n", joinNonEmpty(topics))
		fmt.Fprintf(&b, "%s\n\n", p.Description)
		fmt.Fprintf(&b, "Technologies: %s\n", p.Technologies)
		b.WriteString(strings.Repeat("-", 50) + "\n\n")
	}

	fmt.Fprintf(&b, "\nGenerated on: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(digestMethod + "\n")

	return b.String()
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
