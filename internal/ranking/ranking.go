// Package ranking orders repositories by how well they match a job description.
// Popularity (stars, forks) never contributes to the score.
package ranking

import (
	"sort"
	"strings"

	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/resume"
)

const (
	ExactMatchBonus  = 2
	DuplicatePenalty = 5
)

var nameSeparators = strings.NewReplacer("-", " ", "_", " ")

type ScoredRepository struct {
	Repository *github.Repository `json:"repository"`
	Score      int                `json:"score"`
	// Relevance is the raw keyword overlap before bonus and penalty.
	Relevance int `json:"relevance"`
}

// Ranker holds the job keywords and existing resume titles so that many
// repositories can be scored against the same inputs.
type Ranker struct {
	jobKeywords    []string
	jobKeywordSet  map[string]struct{}
	existingTitles [][]string
}

func New(jobDescription string, existing []resume.Project) *Ranker {
	r := &Ranker{jobKeywordSet: make(map[string]struct{})}
	for _, kw := range strings.Fields(strings.ToLower(jobDescription)) {
		if _, ok := r.jobKeywordSet[kw]; ok {
			continue
		}
		r.jobKeywordSet[kw] = struct{}{}
		r.jobKeywords = append(r.jobKeywords, kw)
	}
	for _, p := range existing {
		r.existingTitles = append(r.existingTitles, strings.Fields(strings.ToLower(p.Title)))
	}
	return r
}

// Score returns the final score and the raw keyword overlap of repo.
func (r *Ranker) Score(repo *github.Repository) (score, relevance int) {
	name := strings.ToLower(repo.Name)
	description := strings.ToLower(repo.Description)

	repoKeywords := make(map[string]struct{})
	for _, w := range strings.Fields(name) {
		repoKeywords[w] = struct{}{}
	}
	for _, w := range strings.Fields(description) {
		repoKeywords[w] = struct{}{}
	}
	for _, lang := range repo.Languages {
		if lang != "" {
			repoKeywords[strings.ToLower(lang)] = struct{}{}
		}
	}
	for _, topic := range repo.Topics {
		if topic != "" {
			repoKeywords[strings.ToLower(topic)] = struct{}{}
		}
	}

	for kw := range repoKeywords {
		if _, ok := r.jobKeywordSet[kw]; ok {
			relevance++
		}
	}

	exact := 0
	for _, kw := range r.jobKeywords {
		if strings.Contains(name, kw) || strings.Contains(description, kw) {
			exact += ExactMatchBonus
		}
	}

	return relevance + exact - r.penalty(name), relevance
}

func (r *Ranker) penalty(name string) int {
	nameWords := strings.Fields(nameSeparators.Replace(name))
	if len(nameWords) == 0 {
		return 0
	}

	penalty := 0
	for _, title := range r.existingTitles {
		if sharesWord(nameWords, title) {
			penalty += DuplicatePenalty
		}
	}
	return penalty
}

func sharesWord(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Rank scores every repository and returns at most n of them, best first.
// Ties keep the input order.
func (r *Ranker) Rank(repos []*github.Repository, n int) []ScoredRepository {
	if n <= 0 {
		return []ScoredRepository{}
	}

	scored := make([]ScoredRepository, 0, len(repos))
	for _, repo := range repos {
		score, relevance := r.Score(repo)
		scored = append(scored, ScoredRepository{Repository: repo, Score: score, Relevance: relevance})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if n < len(scored) {
		scored = scored[:n]
	}
	return scored
}

// Rank is a shorthand for New(jobDescription, existing).Rank(repos, n).
func Rank(repos []*github.Repository, existing []resume.Project, jobDescription string, n int) []ScoredRepository {
	return New(jobDescription, existing).Rank(repos, n)
}

func Repositories(scored []ScoredRepository) []*github.Repository {
	out := make([]*github.Repository, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Repository)
	}
	return out
}
