package github

import (
	"regexp"
	"strings"
)

var usernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`github\.com/([^/]+)/?$`),
	regexp.MustCompile(`github\.com/([^/]+)/.*`),
	regexp.MustCompile(`^([^/]+)$`),
}

// ExtractUsername accepts a profile URL, a repository URL or a bare username.
func ExtractUsername(input string) string {
	input = strings.TrimSpace(input)
	for _, re := range usernamePatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}
	return input
}
