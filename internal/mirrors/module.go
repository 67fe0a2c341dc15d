package mirrors

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"mirrors",
		logger.WithNamedLogger("mirrors"),
		fx.Provide(NewGitAdapter, fx.Private),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
		fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return svc.EnsureRoot()
				},
			})
		}),
	)
}
