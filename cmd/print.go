package cmd

import (
	"fmt"
	"strings"

	"github.com/spigell/resumematch/internal/ai/parse"
)

// Results go to stdout; logs go to stderr.
func printSection(title, body string) {
	fmt.Printf("\n%s\n%s\n%s\n", title, strings.Repeat("=", len(title)), strings.TrimSpace(body))
}

func printSelection(scores []parse.Category, percentage int, positive, negative []string) {
	var b strings.Builder
	for _, c := range scores {
		fmt.Fprintf(&b, "%-15s %3d%%\n", c.Name, c.Score)
	}
	fmt.Fprintf(&b, "\nSelection percentage: %d%%\n", percentage)
	fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(positive, ", "))
	fmt.Fprintf(&b, "Needs improvement: %s", strings.Join(negative, ", "))
	printSection("Category Scores", b.String())
}
