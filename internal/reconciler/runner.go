package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/backgitup/backgitup/internal/github"
	"github.com/backgitup/backgitup/internal/mirrors"
	"go.uber.org/zap"
)

// Runner executes reconciliation passes. It keeps no state between passes.
type Runner struct {
	lister Lister
	syncer Syncer

	out    io.Writer
	logger *zap.Logger
}

func NewRunner(lister Lister, syncer Syncer, logger *zap.Logger) *Runner {
	return &Runner{
		lister: lister,
		syncer: syncer,

		out:    os.Stdout,
		logger: logger,
	}
}

// RunPass lists every repository and synchronizes each one in turn.
// Per-repository failures are collected in the result. The only error
// returned is an authentication failure, which aborts the pass.
func (r *Runner) RunPass(ctx context.Context) (*PassResult, error) {
	result := NewPassResult()
	logger := r.logger.With(zap.Stringer("pass_id", result.ID))

	logger.Info("pass started")

	var listed []mirrors.Descriptor
	for d, err := range r.lister.Descriptors(ctx) {
		if err != nil {
			if errors.Is(err, github.ErrAuthentication) {
				result.Finish()
				logger.Error("authentication failed, aborting pass", zap.Error(err))
				return result, fmt.Errorf("%w: %w", ErrPassAborted, err)
			}

			result.ListingErr = err
			logger.Warn("repository listing ended early", zap.Error(err))
			break
		}

		listed = append(listed, d)

		res := r.syncer.Sync(ctx, d)
		result.Record(res)
		observeOutcome(res.Outcome)

		fields := []zap.Field{
			zap.String("owner", d.Owner),
			zap.String("name", d.Name),
			zap.String("path", res.Path),
			zap.String("outcome", string(res.Outcome)),
			zap.Duration("duration", res.Duration),
		}
		if res.Succeeded() {
			logger.Info("mirror synchronized", append(fields, zap.String("head", res.Head))...)
		} else {
			logger.Warn("mirror failed", append(fields, zap.String("reason", res.Reason()))...)
			logger.Debug("mirror failure detail", zap.String("owner", d.Owner), zap.String("name", d.Name), zap.Error(res.Err))
		}

		if recErr := r.syncer.Record(ctx, res); recErr != nil {
			logger.Warn("failed to record mirror status",
				zap.String("owner", d.Owner),
				zap.String("name", d.Name),
				zap.Error(recErr))
		}

		if ctx.Err() != nil {
			result.ListingErr = ctx.Err()
			break
		}
	}

	if result.ListingErr == nil {
		pruned, pruneErr := r.syncer.Prune(ctx, listed)
		if pruneErr != nil {
			logger.Warn("failed to prune mirror records", zap.Error(pruneErr))
		} else if pruned > 0 {
			logger.Info("pruned mirror records", zap.Int("count", pruned))
		}
	}

	result.Finish()
	observePass(result)

	result.Report(r.out)
	logger.Info("pass finished", result.Fields()...)

	return result, nil
}
