package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.github.com"
	userAgent = "spigell/resumematch"
	// Max value for per_page on the repository listing.
	perPage = "100"

	defaultTimeout = 60 * time.Second
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. An empty token means unauthenticated, rate limited access.
func New(logger *zap.Logger, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Filter narrows the listed repositories before languages are looked up.
type Filter interface {
	Filter(ctx context.Context, username string, repos *Repositories) (*Repositories, error)
}

// ListRepositories returns the user's own repositories, most recently updated first.
func (c *Client) ListRepositories(ctx context.Context, username string) (*Repositories, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("github username is required")
	}

	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", perPage)
	q.Set("type", "owner")

	endpoint := fmt.Sprintf("%s/users/%s/repos", strings.TrimSuffix(c.APIURL, "/"), url.PathEscape(username))

	items, err := c.getItems(ctx, "repos", endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", username, err)
	}

	repos, err := decodeRepositories(items)
	if err != nil {
		return nil, fmt.Errorf("decode repositories of %s: %w", username, err)
	}

	c.logger.Debug("got repositories from GitHub", zap.String("username", username), zap.Int("count", repos.Len()))

	return repos, nil
}

// Languages returns the languages of repo ordered by byte count, largest first.
// It never fails: lookup errors fall back to the primary language.
func (c *Client) Languages(ctx context.Context, repo *Repository) []string {
	fallback := func() []string {
		if repo.Language == "" {
			return []string{}
		}
		return []string{repo.Language}
	}

	if repo.LanguagesURL == "" {
		return fallback()
	}

	var breakdown map[string]int
	if err := c.getJSON(ctx, "languages", repo.LanguagesURL, nil, &breakdown); err != nil {
		c.logger.Warn("getting repository languages failed; using primary language",
			zap.String("repository", repo.Name),
			zap.Error(err),
		)
		return fallback()
	}

	return sortLanguages(breakdown)
}

func sortLanguages(breakdown map[string]int) []string {
	langs := make([]string, 0, len(breakdown))
	for lang := range breakdown {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if breakdown[langs[i]] != breakdown[langs[j]] {
			return breakdown[langs[i]] > breakdown[langs[j]]
		}
		return langs[i] < langs[j]
	})
	return langs
}

// FetchRepositories lists, filters and enriches the user's repositories with languages.
func (c *Client) FetchRepositories(ctx context.Context, username string, filter Filter) (*Repositories, error) {
	repos, err := c.ListRepositories(ctx, username)
	if err != nil {
		return nil, err
	}

	if filter != nil {
		repos, err = filter.Filter(ctx, username, repos)
		if err != nil {
			return nil, fmt.Errorf("filter repositories: %w", err)
		}
	}

	for _, repo := range repos.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		repo.Languages = c.Languages(ctx, repo)
	}

	return repos, nil
}
