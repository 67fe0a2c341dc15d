package mirrors

import (
	"context"

	"github.com/backgitup/backgitup/internal/git"
)

// gitAdapter adapts the git.Service to implement the mirrors.GitService interface.
type gitAdapter struct {
	gitSvc *git.Service
}

// NewGitAdapter creates a new Git adapter.
func NewGitAdapter(gitSvc *git.Service) GitService {
	return &gitAdapter{gitSvc: gitSvc}
}

// Clone clones a Git repository to the specified directory.
func (a *gitAdapter) Clone(ctx context.Context, url, directory string) (string, error) {
	repo, err := a.gitSvc.Clone(ctx, git.CloneRequest{
		URL:       url,
		Directory: directory,
	})
	if err != nil {
		return "", err
	}

	return repo.Head, nil
}

// Pull fast-forwards the working copy at directory.
func (a *gitAdapter) Pull(ctx context.Context, directory string) (string, bool, error) {
	result, err := a.gitSvc.Pull(ctx, directory)
	if err != nil {
		return "", false, err
	}

	return result.HeadAfter, result.Changed(), nil
}

// Verify checks that directory holds a valid working copy.
func (a *gitAdapter) Verify(directory string) error {
	_, err := a.gitSvc.Open(directory)
	return err
}

// Remove removes a Git repository from the filesystem.
func (a *gitAdapter) Remove(directory string) error {
	return a.gitSvc.Remove(directory)
}
