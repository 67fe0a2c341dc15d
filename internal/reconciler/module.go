package reconciler

import (
	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"reconciler",
		logger.WithNamedLogger("reconciler"),
		fx.Provide(NewGitHubLister, fx.Private),
		fx.Provide(func(svc *mirrors.Service) Syncer { return svc }, fx.Private),
		fx.Provide(NewRunner, fx.Private),
		fx.Provide(NewScheduler),
		fx.Invoke(func(lc fx.Lifecycle, scheduler *Scheduler) {
			lc.Append(fx.Hook{
				OnStart: scheduler.Start,
				OnStop:  scheduler.Stop,
			})
		}),
	)
}
