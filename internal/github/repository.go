package github

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

type Repositories struct {
	Items []*Repository
}

type Repository struct {
	Name         string    `json:"name"`
	FullName     string    `json:"full_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"html_url"`
	Language     string    `json:"language,omitempty"`
	LanguagesURL string    `json:"languages_url,omitempty"`
	Languages    []string  `json:"languages"`
	Topics       []string  `json:"topics"`
	Stars        int       `json:"stargazers_count"`
	Forks        int       `json:"forks_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Size         int       `json:"size"`
	Fork         bool      `json:"fork"`
}

func decodeRepositories(items []Item) (*Repositories, error) {
	var repos []*Repository

	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &repos,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	return &Repositories{Items: repos}, nil
}

func (r *Repositories) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

func (r *Repositories) Names() []string {
	names := make([]string, 0, r.Len())
	for _, repo := range r.Items {
		names = append(names, repo.Name)
	}
	return names
}

// Exclude removes repositories matching drop and returns their names. Order is preserved.
func (r *Repositories) Exclude(drop func(*Repository) bool) []string {
	var excluded []string
	kept := r.Items[:0]
	for _, repo := range r.Items {
		if drop(repo) {
			excluded = append(excluded, repo.Name)
			continue
		}
		kept = append(kept, repo)
	}
	r.Items = kept
	return excluded
}

// DisplayLanguages joins the non-blank languages with ", ".
func (r *Repository) DisplayLanguages() string {
	kept := make([]string, 0, len(r.Languages))
	for _, l := range r.Languages {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, ", ")
}
