package reconciler

import (
	"context"
	"iter"

	"github.com/backgitup/backgitup/internal/github"
	"github.com/backgitup/backgitup/internal/mirrors"
)

// Lister enumerates the repositories to mirror.
type Lister interface {
	// Authenticate verifies the credential and returns the identity it belongs to.
	Authenticate(ctx context.Context) (string, error)
	// Descriptors lazily yields every repository once. The sequence ends
	// after the first error.
	Descriptors(ctx context.Context) iter.Seq2[mirrors.Descriptor, error]
}

// Syncer reconciles a single mirror and records what happened.
type Syncer interface {
	Sync(ctx context.Context, d mirrors.Descriptor) mirrors.Result
	Record(ctx context.Context, result mirrors.Result) error
	// Prune forgets recorded repositories that are not in listed.
	Prune(ctx context.Context, listed []mirrors.Descriptor) (int, error)
}

type githubLister struct {
	client *github.Client
}

func NewGitHubLister(client *github.Client) Lister {
	return &githubLister{client: client}
}

func (l *githubLister) Authenticate(ctx context.Context) (string, error) {
	return l.client.Authenticate(ctx)
}

func (l *githubLister) Descriptors(ctx context.Context) iter.Seq2[mirrors.Descriptor, error] {
	return func(yield func(mirrors.Descriptor, error) bool) {
		for repo, err := range l.client.Repositories(ctx) {
			if !yield(toDescriptor(repo), err) {
				return
			}
		}
	}
}

func toDescriptor(repo github.Repository) mirrors.Descriptor {
	return mirrors.Descriptor{
		Owner:         repo.Owner,
		Name:          repo.Name,
		CloneURL:      repo.CloneURL,
		DefaultBranch: repo.DefaultBranch,
		Private:       repo.Private,
		Archived:      repo.Archived,
		Fork:          repo.Fork,
	}
}
