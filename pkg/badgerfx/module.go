package badgerfx

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"badgerfx",
		logger.WithNamedLogger("badgerfx"),
		fx.Provide(newLogger, fx.Private),
		fx.Provide(New),
		fx.Invoke(func(db *badger.DB, config Config, logger *zap.Logger, lifecycle fx.Lifecycle) {
			stopGC := func() {}

			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("badger opened",
						zap.String("dir", config.Dir),
						zap.Bool("in_memory", config.InMemory))

					if config.GCInterval > 0 && !config.InMemory {
						stopGC = runGC(db, config.GCInterval, logger)
					}
					return nil
				},
				OnStop: func(_ context.Context) error {
					stopGC()

					logger.Info("closing badger")
					if err := db.Close(); err != nil {
						return fmt.Errorf("failed to close BadgerDB: %w", err)
					}
					return nil
				},
			})
		}),
	)
}

// runGC collects value log garbage every interval until the returned
// function is called. The function waits for a running collection to end.
func runGC(db *badger.DB, interval time.Duration, logger *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rewritten, err := collectGarbage(db)
				if err != nil {
					logger.Warn("badger garbage collection failed", zap.Error(err))
					continue
				}
				logger.Debug("badger garbage collection finished", zap.Int("rewritten", rewritten))
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
