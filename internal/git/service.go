package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	githttp "github.com/go-git/go-git/v6/plumbing/transport/http"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

const (
	remoteName = "origin"

	defaultHTTPSUsername = "x-access-token"
)

type Service struct {
	config Config

	logger *zap.Logger
}

// NewService creates a new git Service.
func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Clone performs a full clone of the repository into an absent directory.
// A failed clone leaves nothing behind at req.Directory.
func (s *Service) Clone(ctx context.Context, req CloneRequest) (*Repository, error) {
	s.logger.Debug("cloning repository",
		zap.String("url", req.URL),
		zap.String("directory", req.Directory))

	if _, statErr := os.Lstat(req.Directory); statErr == nil {
		return nil, fmt.Errorf("%w: directory %s already exists", ErrRepositoryAlreadyExists, req.Directory)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	progress, closeProgress := s.progress()
	defer closeProgress()

	repo, err := git.PlainCloneContext(ctx, req.Directory, &git.CloneOptions{
		URL:        req.URL,
		RemoteName: remoteName,
		Auth:       s.auth(req.URL),
		Progress:   progress,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		repo, err = s.initEmpty(req)
	}
	if err != nil {
		if rmErr := os.RemoveAll(req.Directory); rmErr != nil {
			s.logger.Warn("failed to remove partial clone",
				zap.String("directory", req.Directory),
				zap.Error(rmErr))
		}

		return nil, s.wrap(ctx, ErrCloneFailed, err)
	}

	head, err := headHash(repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	s.logger.Debug("repository cloned",
		zap.String("directory", req.Directory),
		zap.String("head", head))

	return &Repository{
		Path: req.Directory,
		URL:  req.URL,
		Head: head,
	}, nil
}

// Pull fast-forwards the checked out branch from origin. Local commits or
// uncommitted changes are never discarded: the pull fails instead.
func (s *Service) Pull(ctx context.Context, repoPath string) (*PullResult, error) {
	s.logger.Debug("pulling repository", zap.String("path", repoPath))

	repo, err := s.open(repoPath)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPullFailed, err)
	}
	if !status.IsClean() {
		return nil, fmt.Errorf("%w: %w", ErrPullFailed, ErrDirtyWorktree)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return s.pullUnborn(ctx, repo, worktree, repoPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	if !head.Name().IsBranch() {
		return nil, fmt.Errorf("%w: HEAD is detached at %s", ErrPullFailed, head.Hash())
	}

	progress, closeProgress := s.progress()
	defer closeProgress()

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: head.Name(),
		SingleBranch:  true,
		Auth:          s.auth(remoteURL(repo)),
		Progress:      progress,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return nil, fmt.Errorf("%w: %w", ErrPullFailed, ErrNotFastForward)
	default:
		return nil, s.wrap(ctx, ErrPullFailed, err)
	}

	after, err := headHash(repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	result := &PullResult{
		Branch:     head.Name().Short(),
		HeadBefore: head.Hash().String(),
		HeadAfter:  after,
	}

	s.logger.Debug("repository pulled",
		zap.String("path", repoPath),
		zap.String("branch", result.Branch),
		zap.Bool("changed", result.Changed()))

	return result, nil
}

// initEmpty sets up a working copy for a remote without commits: an empty
// repository whose origin points at the remote, as git clone leaves it.
func (s *Service) initEmpty(req CloneRequest) (*git.Repository, error) {
	s.logger.Debug("remote is empty, initializing working copy", zap.String("url", req.URL))

	if err := os.RemoveAll(req.Directory); err != nil {
		return nil, err
	}

	repo, err := git.PlainInit(req.Directory, false)
	if err != nil {
		return nil, err
	}

	if _, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{req.URL},
	}); err != nil {
		return nil, err
	}

	return repo, nil
}

// pullUnborn handles a working copy cloned from an empty remote. It stays as
// is while the remote is empty, and checks out the remote default branch
// once the remote has commits.
func (s *Service) pullUnborn(
	ctx context.Context,
	repo *git.Repository,
	worktree *git.Worktree,
	repoPath string,
) (*PullResult, error) {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	auth := s.auth(remoteURL(repo))

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		s.logger.Debug("remote is still empty", zap.String("path", repoPath))
		return &PullResult{}, nil
	}
	if err != nil {
		return nil, s.wrap(ctx, ErrPullFailed, err)
	}

	branch, ok := defaultBranch(refs)
	if !ok {
		return &PullResult{}, nil
	}

	progress, closeProgress := s.progress()
	defer closeProgress()

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       auth,
		Progress:   progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, s.wrap(ctx, ErrPullFailed, err)
	}

	if err = worktree.Checkout(&git.CheckoutOptions{
		Branch: branch.Name(),
		Hash:   branch.Hash(),
		Create: true,
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPullFailed, err)
	}

	result := &PullResult{
		Branch:    branch.Name().Short(),
		HeadAfter: branch.Hash().String(),
	}

	s.logger.Debug("checked out first commit",
		zap.String("path", repoPath),
		zap.String("branch", result.Branch),
		zap.String("head", result.HeadAfter))

	return result, nil
}

// Open validates that repoPath holds a non-bare working copy.
func (s *Service) Open(repoPath string) (*Repository, error) {
	repo, err := s.open(repoPath)
	if err != nil {
		return nil, err
	}

	if _, wtErr := repo.Worktree(); wtErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, wtErr)
	}

	head, err := headHash(repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	return &Repository{
		Path: repoPath,
		URL:  remoteURL(repo),
		Head: head,
	}, nil
}

// Remove deletes a working copy from the filesystem.
func (s *Service) Remove(repoPath string) error {
	s.logger.Debug("removing repository", zap.String("path", repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("%w: %w", ErrCleanupFailed, err)
	}

	return nil
}

func (s *Service) open(repoPath string) (*git.Repository, error) {
	repo, err := git.PlainOpen(repoPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repoPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	return repo, nil
}

// auth returns token credentials for HTTP(S) remotes only.
func (s *Service) auth(url string) transport.AuthMethod {
	if s.config.Auth.Token == "" {
		return nil
	}

	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "http://") {
		return nil
	}

	username := s.config.Auth.Username
	if username == "" {
		username = defaultHTTPSUsername
	}

	return &githttp.BasicAuth{
		Username: username,
		Password: s.config.Auth.Token,
	}
}

// progress streams git sideband output into debug logs.
func (s *Service) progress() (io.Writer, func()) {
	if !s.logger.Core().Enabled(zap.DebugLevel) {
		return nil, func() {}
	}

	w := &zapio.Writer{Log: s.logger, Level: zap.DebugLevel}
	return w, func() { _ = w.Close() }
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.config.Timeout)
}

func (s *Service) wrap(ctx context.Context, sentinel, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w: %w", sentinel, ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w: %w", sentinel, ErrOperationCancelled, err)
	default:
		return fmt.Errorf("%w: %w", sentinel, err)
	}
}

func headHash(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return head.Hash().String(), nil
}

// defaultBranch picks the branch the remote HEAD points to. Without a
// symbolic HEAD it falls back to the first branch sharing HEAD's commit.
func defaultBranch(refs []*plumbing.Reference) (*plumbing.Reference, bool) {
	var head *plumbing.Reference
	branches := make([]*plumbing.Reference, 0, len(refs))

	for _, ref := range refs {
		switch {
		case ref.Name() == plumbing.HEAD:
			head = ref
		case ref.Name().IsBranch() && ref.Type() == plumbing.HashReference:
			branches = append(branches, ref)
		}
	}
	if len(branches) == 0 {
		return nil, false
	}

	slices.SortFunc(branches, func(a, b *plumbing.Reference) int {
		return strings.Compare(a.Name().String(), b.Name().String())
	})

	if head != nil {
		for _, ref := range branches {
			if head.Type() == plumbing.SymbolicReference && ref.Name() == head.Target() {
				return ref, true
			}
			if head.Type() == plumbing.HashReference && ref.Hash() == head.Hash() {
				return ref, true
			}
		}
	}

	return branches[0], true
}

func remoteURL(repo *git.Repository) string {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return ""
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}

	return urls[0]
}
