package mirrors

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// Descriptor identifies a remote repository and where to fetch it from.
// Two descriptors are the same repository when Owner and Name match.
type Descriptor struct {
	Owner    string
	Name     string
	CloneURL string

	// Informational only.
	DefaultBranch string
	Private       bool
	Archived      bool
	Fork          bool
}

// FullName returns "owner/name".
func (d Descriptor) FullName() string {
	return d.Owner + "/" + d.Name
}

// State is what the prober found at a mirror path.
type State int

const (
	StateAbsent State = iota
	StatePresent
	StateCorrupt
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	case StateCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of one descriptor in one pass.
type Outcome string

const (
	OutcomeCloned   Outcome = "cloned"
	OutcomeUpdated  Outcome = "updated"
	OutcomeRecloned Outcome = "recloned"
	OutcomeFailed   Outcome = "failed"
)

const maxReasonLength = 200

// Result is the outcome of synchronizing a single descriptor.
type Result struct {
	Descriptor Descriptor
	Path       string
	State      State
	Outcome    Outcome

	Head    string // HEAD after the operation
	Changed bool   // HEAD moved during an update
	Err     error  // set when Outcome is OutcomeFailed

	StartedAt time.Time
	Duration  time.Duration
}

func (r Result) Succeeded() bool {
	return r.Outcome != OutcomeFailed
}

// Reason is a one line, length limited rendering of Err.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}

	reason, _, _ := strings.Cut(r.Err.Error(), "\n")
	if len(reason) > maxReasonLength {
		cut := maxReasonLength - 3
		for cut > 0 && !utf8.RuneStart(reason[cut]) {
			cut--
		}
		reason = reason[:cut] + "..."
	}

	return reason
}

// MirrorRecord is the last known status of a mirror, kept for observability.
// Reconciliation never reads it; the filesystem is the source of truth.
type MirrorRecord struct {
	Owner    string
	Name     string
	CloneURL string
	Path     string

	LastOutcome         Outcome
	LastReason          string
	Head                string
	LastAttemptAt       time.Time
	LastSuccessAt       *time.Time
	ConsecutiveFailures int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GitService represents the interface for Git operations on working copies.
type GitService interface {
	// Clone performs a full clone of url into directory and returns HEAD.
	Clone(ctx context.Context, url, directory string) (string, error)

	// Pull fast-forwards the working copy and returns the new HEAD and
	// whether it moved.
	Pull(ctx context.Context, directory string) (string, bool, error)

	// Verify checks that directory holds a valid working copy.
	Verify(directory string) error

	// Remove removes a working copy from the filesystem.
	Remove(directory string) error
}
