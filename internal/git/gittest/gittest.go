// Package gittest builds throwaway go-git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/require"
)

// InitRemote creates a non-bare repository with a single commit under a
// temporary directory and returns its path. The path is usable as a clone URL.
func InitRemote(t testing.TB) string {
	t.Helper()

	repoPath := filepath.Join(t.TempDir(), "remote")
	require.NoError(t, os.MkdirAll(repoPath, 0o755))

	_, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)

	Commit(t, repoPath, "README.md", "initial\n")

	return repoPath
}

// InitEmptyRemote creates a repository without commits and returns its path.
func InitEmptyRemote(t testing.TB) string {
	t.Helper()

	repoPath := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(repoPath, 0o755))

	_, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)

	return repoPath
}

// Commit writes content to file inside repoPath and commits it.
// It returns the new commit hash.
func Commit(t testing.TB, repoPath, file, content string) string {
	t.Helper()

	repo, err := git.PlainOpen(repoPath)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(repoPath, file), []byte(content), 0o644))

	_, err = worktree.Add(file)
	require.NoError(t, err)

	hash, err := worktree.Commit("update "+file, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return hash.String()
}

// Head returns the commit hash HEAD points to.
func Head(t testing.TB, repoPath string) string {
	t.Helper()

	repo, err := git.PlainOpen(repoPath)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	return head.Hash().String()
}
