package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backgitup/backgitup/internal/github"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler runs a pass, waits Config.Interval and repeats until stopped.
type Scheduler struct {
	config Config
	runner *Runner
	lister Lister

	exit   func(code int)
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(config Config, runner *Runner, lister Lister, shutdowner fx.Shutdowner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config: config,
		runner: runner,
		lister: lister,

		exit: func(code int) {
			if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
				logger.Error("failed to request shutdown", zap.Error(err))
			}
		},
		logger: logger,
	}
}

// Start verifies the credential and launches the loop in the background.
// An authentication failure fails startup; transient errors are left for
// the first pass to deal with.
func (s *Scheduler) Start(ctx context.Context) error {
	login, err := s.lister.Authenticate(ctx)
	switch {
	case errors.Is(err, github.ErrAuthentication):
		return fmt.Errorf("failed to authenticate: %w", err)
	case err != nil:
		s.logger.Warn("could not verify credentials at startup", zap.Error(err))
	default:
		s.logger.Info("authenticated", zap.String("login", login))
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(loopCtx)

	return nil
}

// Stop cancels the loop and waits for the in-flight pass to wind down.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop: %w", ctx.Err())
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		result, err := s.runner.RunPass(ctx)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			s.logger.Error("stopping after fatal pass error", zap.Error(err))
			s.exit(exitCodeAuthentication)
			return
		}

		if s.config.Once {
			code := 0
			if !result.Clean() {
				code = exitCodeFailures
			}
			s.exit(code)
			return
		}

		s.logger.Info("next pass scheduled",
			zap.Duration("interval", s.config.Interval),
			zap.Time("at", time.Now().Add(s.config.Interval)))

		timer := time.NewTimer(s.config.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
