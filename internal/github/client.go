package github

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client lists repositories through the GitHub REST API.
type Client struct {
	client *gh.Client
	config Config

	logger *zap.Logger
}

// NewClient creates a GitHub API client authenticated with config.Token.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: config.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = config.Timeout

	client := gh.NewClient(tc)

	if config.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(config.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = baseURL
	}

	return &Client{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Authenticate resolves the login the token belongs to.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var user *gh.User

	err := c.withRetry(ctx, "user", func() error {
		var err error
		user, _, err = c.client.Users.Get(ctx, "")
		return classify(err)
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("authenticated", zap.String("login", user.GetLogin()))

	return user.GetLogin(), nil
}

// Repositories lazily yields every repository the token can access, page by
// page. Each repository is yielded once even if pages shift underneath the
// listing. The sequence stops after the first error.
func (c *Client) Repositories(ctx context.Context) iter.Seq2[Repository, error] {
	return func(yield func(Repository, error) bool) {
		opts := &gh.RepositoryListByAuthenticatedUserOptions{
			Affiliation: c.config.Affiliation,
			ListOptions: gh.ListOptions{PerPage: c.config.PerPage, Page: 1},
		}
		seen := make(map[string]struct{})

		for {
			var (
				repos []*gh.Repository
				resp  *gh.Response
			)

			err := c.withRetry(ctx, "user/repos", func() error {
				var listErr error
				repos, resp, listErr = c.client.Repositories.ListByAuthenticatedUser(ctx, opts)
				return classify(listErr)
			})
			if err != nil {
				yield(Repository{}, fmt.Errorf("page %d: %w", opts.Page, err))
				return
			}

			c.logger.Debug("fetched repository page",
				zap.Int("page", opts.Page),
				zap.Int("count", len(repos)),
				zap.Int("seen", len(seen)))

			for _, repo := range repos {
				r := newRepository(repo)

				key := strings.ToLower(r.FullName())
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}

				if !yield(r, nil) {
					return
				}
			}

			if len(repos) == 0 || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage

			if sleepErr := sleep(ctx, c.config.PageDelay); sleepErr != nil {
				yield(Repository{}, sleepErr)
				return
			}
		}
	}
}
