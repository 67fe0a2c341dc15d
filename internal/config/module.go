package config

import (
	"github.com/backgitup/backgitup/internal/git"
	"github.com/backgitup/backgitup/internal/github"
	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/backgitup/backgitup/internal/reconciler"
	"github.com/backgitup/backgitup/pkg/badgerfx"
	"github.com/go-core-fx/fiberfx"
	"go.uber.org/fx"
)

// Module supplies a loaded Config and the per-package configs derived from it.
func Module(cfg Config) fx.Option {
	return fx.Module(
		"config",
		fx.Supply(cfg),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:        cfg.Storage.DataDir,
				InMemory:   cfg.Storage.InMemory,
				GCInterval: cfg.Storage.GCInterval,
			}
		}),
		fx.Provide(func(cfg Config) github.Config {
			return github.Config{
				Token:       cfg.GitHub.Token,
				BaseURL:     cfg.GitHub.BaseURL,
				PerPage:     cfg.GitHub.PerPage,
				Affiliation: cfg.GitHub.Affiliation,
				PageDelay:   cfg.GitHub.PageDelay,
				Timeout:     cfg.GitHub.Timeout,
				Retry: github.RetryConfig{
					Attempts:     cfg.GitHub.Retry.Attempts,
					InitialDelay: cfg.GitHub.Retry.InitialDelay,
					MaxDelay:     cfg.GitHub.Retry.MaxDelay,
				},
			}
		}),
		fx.Provide(func(cfg Config) git.Config {
			return git.Config{
				Timeout: cfg.Git.Timeout,
				Auth: git.HTTPSAuthConfig{
					Username: cfg.Git.Username,
					Token:    cfg.GitHub.Token,
				},
			}
		}),
		fx.Provide(func(cfg Config) mirrors.Config {
			return mirrors.Config{
				Root: cfg.Mirrors.Root,
			}
		}),
		fx.Provide(func(cfg Config) reconciler.Config {
			return reconciler.Config{
				Interval: cfg.Scheduler.Interval,
				Once:     cfg.Scheduler.Once,
			}
		}),
	)
}
