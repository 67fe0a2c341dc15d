package git

// CloneRequest represents the request to clone a repository.
type CloneRequest struct {
	URL       string // Git repository URL
	Directory string // Directory to clone into, must not exist
}

// Repository represents a cloned Git repository.
type Repository struct {
	Path string // Path to the working copy
	URL  string // Remote origin URL
	Head string // Commit hash HEAD points to, empty for an unborn branch
}

// PullResult describes a fast-forward pull.
type PullResult struct {
	Branch     string
	HeadBefore string
	HeadAfter  string
}

// Changed reports whether the pull moved HEAD.
func (r PullResult) Changed() bool {
	return r.HeadBefore != r.HeadAfter
}
