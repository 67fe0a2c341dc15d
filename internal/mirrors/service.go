package mirrors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Service struct {
	config Config
	paths  *PathBuilder

	git     GitService
	mirrors *Repository

	logger *zap.Logger
}

func NewService(config Config, git GitService, mirrors *Repository, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		paths:  NewPathBuilder(config.Root),

		git:     git,
		mirrors: mirrors,

		logger: logger,
	}
}

// EnsureRoot creates the storage root if it does not exist.
func (s *Service) EnsureRoot() error {
	if err := os.MkdirAll(s.paths.Root(), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror root: %w", err)
	}

	return nil
}

// Path returns the mirror path for a descriptor.
func (s *Service) Path(d Descriptor) (string, error) {
	return s.paths.BuildPath(d)
}

// Probe classifies what exists at a mirror path. It never modifies the disk.
// For StateCorrupt the returned error explains why.
func (s *Service) Probe(path string) (State, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StateAbsent, nil
	}
	if err != nil {
		return StateCorrupt, fmt.Errorf("%w: %w", ErrCorruptMirror, err)
	}

	if !info.IsDir() {
		return StateCorrupt, fmt.Errorf("%w: %s is not a directory", ErrCorruptMirror, path)
	}

	if verifyErr := s.git.Verify(path); verifyErr != nil {
		return StateCorrupt, fmt.Errorf("%w: %w", ErrCorruptMirror, verifyErr)
	}

	return StatePresent, nil
}

// Sync brings the mirror of d up to date: clone when absent, fast-forward
// when present, remove and clone again when corrupt. It never returns an
// error; failures are reported through Result.
func (s *Service) Sync(ctx context.Context, d Descriptor) (result Result) {
	result = Result{
		Descriptor: d,
		Outcome:    OutcomeFailed,
		StartedAt:  time.Now(),
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	logger := s.logger.With(zap.String("owner", d.Owner), zap.String("name", d.Name))

	path, err := s.paths.BuildPath(d)
	if err != nil {
		result.Err = err
		return result
	}
	result.Path = path

	if d.CloneURL == "" {
		result.Err = fmt.Errorf("%w: %s has no clone URL", ErrInvalidDescriptor, d.FullName())
		return result
	}

	state, probeErr := s.Probe(path)
	result.State = state

	logger.Debug("probed mirror",
		zap.String("path", path),
		zap.Stringer("state", state),
		zap.NamedError("reason", probeErr))

	switch state {
	case StateAbsent:
		result.Head, err = s.clone(ctx, d.CloneURL, path)
		if err != nil {
			result.Err = fmt.Errorf("%w: %w", ErrCloneFailure, err)
			return result
		}
		result.Outcome = OutcomeCloned

	case StatePresent:
		result.Head, result.Changed, err = s.git.Pull(ctx, path)
		if err != nil {
			result.Err = fmt.Errorf("%w: %w", ErrUpdateFailure, err)
			return result
		}
		result.Outcome = OutcomeUpdated

	case StateCorrupt:
		logger.Warn("removing corrupt mirror", zap.String("path", path), zap.Error(probeErr))

		if rmErr := s.git.Remove(path); rmErr != nil {
			result.Err = fmt.Errorf("%w: %w", ErrRecloneFailure, rmErr)
			return result
		}

		result.Head, err = s.clone(ctx, d.CloneURL, path)
		if err != nil {
			result.Err = fmt.Errorf("%w: %w", ErrRecloneFailure, err)
			return result
		}
		result.Outcome = OutcomeRecloned
	}

	return result
}

func (s *Service) clone(ctx context.Context, url, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	return s.git.Clone(ctx, url, path)
}

// Record stores the result in the mirror ledger.
func (s *Service) Record(ctx context.Context, result Result) error {
	d := result.Descriptor

	_, err := s.mirrors.Upsert(ctx, d.Owner, d.Name, func(record *MirrorRecord) {
		record.CloneURL = d.CloneURL
		record.Path = result.Path
		record.LastOutcome = result.Outcome
		record.LastReason = result.Reason()
		record.LastAttemptAt = result.StartedAt

		if !result.Succeeded() {
			record.ConsecutiveFailures++
			return
		}

		finished := result.StartedAt.Add(result.Duration)
		record.Head = result.Head
		record.LastSuccessAt = &finished
		record.ConsecutiveFailures = 0
	})

	return err
}

// Prune drops ledger records of repositories missing from listed, a complete
// listing. Mirrors on disk are kept.
func (s *Service) Prune(ctx context.Context, listed []Descriptor) (int, error) {
	records, err := s.mirrors.List(ctx)
	if err != nil {
		return 0, err
	}

	keep := lo.SliceToMap(listed, func(d Descriptor) (string, struct{}) {
		return mirrorID(d.Owner, d.Name), struct{}{}
	})
	stale := lo.Reject(records, func(record MirrorRecord, _ int) bool {
		_, ok := keep[mirrorID(record.Owner, record.Name)]
		return ok
	})

	for _, record := range stale {
		if delErr := s.mirrors.Delete(ctx, record.Owner, record.Name); delErr != nil {
			return 0, delErr
		}

		s.logger.Info("dropped ledger record of unlisted repository",
			zap.String("owner", record.Owner),
			zap.String("name", record.Name),
			zap.String("path", record.Path))
	}

	return len(stale), nil
}

// Get retrieves the ledger record for owner/name.
func (s *Service) Get(ctx context.Context, owner, name string) (*MirrorRecord, error) {
	return s.mirrors.Get(ctx, owner, name)
}

// List retrieves ledger records, optionally filtered by last outcome.
func (s *Service) List(ctx context.Context, outcome Outcome) ([]MirrorRecord, error) {
	if outcome == "" {
		return s.mirrors.List(ctx)
	}

	return s.mirrors.ListByOutcome(ctx, outcome)
}
