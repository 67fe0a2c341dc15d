package github

import gh "github.com/google/go-github/v66/github"

// Repository is a repository visible to the authenticated identity.
type Repository struct {
	Owner    string
	Name     string
	CloneURL string

	DefaultBranch string
	Private       bool
	Archived      bool
	Fork          bool
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

func newRepository(repo *gh.Repository) Repository {
	return Repository{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		CloneURL:      repo.GetCloneURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
		Archived:      repo.GetArchived(),
		Fork:          repo.GetFork(),
	}
}
