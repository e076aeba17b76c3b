package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/github"
)

type forksFilter struct {
	disabled bool
	reason   string
}

// NewForks creates a filter that removes forked repositories.
func NewForks() Filter {
	return &forksFilter{}
}

func (f *forksFilter) Name() string { return "forks" }

func (f *forksFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *forksFilter) IsEnabled() bool { return !f.disabled }

func (f *forksFilter) Validate(*Config) error { return nil }

func (f *forksFilter) Apply(_ context.Context, deps Deps, r *github.Repositories) (*github.Repositories, Step, error) {
	initial := r.Len()
	excluded := r.Exclude(func(repo *github.Repository) bool { return repo.Fork })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding forked repositories",
			zap.Strings("excluded_repositories", excluded),
			zap.Int("repositories_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *forksFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type userNamedFilter struct {
	disabled bool
	reason   string
}

// NewUserNamed creates a filter that removes the profile repository named after the user.
func NewUserNamed() Filter {
	return &userNamedFilter{}
}

func (f *userNamedFilter) Name() string { return "user_named" }

func (f *userNamedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *userNamedFilter) IsEnabled() bool { return !f.disabled }

func (f *userNamedFilter) Validate(*Config) error { return nil }

func (f *userNamedFilter) Apply(_ context.Context, deps Deps, r *github.Repositories) (*github.Repositories, Step, error) {
	initial := r.Len()
	username := strings.TrimSpace(deps.Username)
	if username == "" {
		return r, Step{}, fmt.Errorf("username is required")
	}

	excluded := r.Exclude(func(repo *github.Repository) bool {
		return strings.EqualFold(repo.Name, username)
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding profile repository",
			zap.Strings("excluded_repositories", excluded),
			zap.Int("repositories_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *userNamedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludedNamesFilter struct {
	names map[string]struct{}
	list  []string
}

// NewExcludedNames creates a filter that removes repositories listed in the config.
func NewExcludedNames() Filter {
	return &excludedNamesFilter{}
}

func (f *excludedNamesFilter) Name() string { return "excluded_names" }

func (f *excludedNamesFilter) Disable(string) {}

func (f *excludedNamesFilter) IsEnabled() bool { return true }

func (f *excludedNamesFilter) Validate(cfg *Config) error {
	f.names = make(map[string]struct{})
	f.list = nil
	if cfg == nil {
		return nil
	}
	for _, name := range cfg.ExcludedNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return fmt.Errorf("excluded repository name must not be empty")
		}
		f.names[name] = struct{}{}
		f.list = append(f.list, name)
	}
	return nil
}

func (f *excludedNamesFilter) Apply(_ context.Context, deps Deps, r *github.Repositories) (*github.Repositories, Step, error) {
	initial := r.Len()
	if len(f.names) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	excluded := r.Exclude(func(repo *github.Repository) bool {
		_, ok := f.names[strings.ToLower(repo.Name)]
		return ok
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding repositories by name",
			zap.Strings("excluded_repositories", excluded),
			zap.Int("repositories_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *excludedNamesFilter) Status() Status {
	details := map[string]string{}
	if len(f.list) > 0 {
		details["names"] = strings.Join(f.list, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
