package reconciler

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backgitup/backgitup/internal/mirrors"
)

type fakeLister struct {
	descriptors []mirrors.Descriptor
	err         error // yielded after descriptors
	authErr     error

	passes atomic.Int32
}

func (l *fakeLister) Authenticate(context.Context) (string, error) {
	if l.authErr != nil {
		return "", l.authErr
	}

	return "octocat", nil
}

func (l *fakeLister) Descriptors(context.Context) iter.Seq2[mirrors.Descriptor, error] {
	l.passes.Add(1)

	return func(yield func(mirrors.Descriptor, error) bool) {
		for _, d := range l.descriptors {
			if !yield(d, nil) {
				return
			}
		}

		if l.err != nil {
			yield(mirrors.Descriptor{}, l.err)
		}
	}
}

type fakeSyncer struct {
	failures  map[string]error
	recordErr error

	mu       sync.Mutex
	synced   []string
	recorded []mirrors.Result
	pruned   [][]mirrors.Descriptor
}

func (s *fakeSyncer) Sync(_ context.Context, d mirrors.Descriptor) mirrors.Result {
	s.mu.Lock()
	s.synced = append(s.synced, d.FullName())
	s.mu.Unlock()

	result := mirrors.Result{
		Descriptor: d,
		Path:       "/mirrors/" + d.FullName(),
		StartedAt:  time.Now(),
	}

	if err, ok := s.failures[d.FullName()]; ok {
		result.Outcome = mirrors.OutcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = mirrors.OutcomeCloned
	result.Head = "0123456789abcdef"
	return result
}

func (s *fakeSyncer) Record(_ context.Context, result mirrors.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recorded = append(s.recorded, result)
	return s.recordErr
}

func (s *fakeSyncer) Prune(_ context.Context, listed []mirrors.Descriptor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruned = append(s.pruned, listed)
	return 0, nil
}

func (s *fakeSyncer) Synced() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.synced...)
}

func descriptors(names ...string) []mirrors.Descriptor {
	out := make([]mirrors.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, mirrors.Descriptor{
			Owner:    "alice",
			Name:     name,
			CloneURL: "https://github.com/alice/" + name + ".git",
		})
	}

	return out
}
