package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/backgitup/backgitup/internal/config"
	"github.com/backgitup/backgitup/internal/git"
	"github.com/backgitup/backgitup/internal/github"
	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/backgitup/backgitup/internal/reconciler"
	"github.com/backgitup/backgitup/internal/server"
	"github.com/backgitup/backgitup/pkg/badgerfx"
	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	playground "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const version = "0.1.0"

func Run() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:     "backgitup",
		Short:   "Keep local mirrors of every GitHub repository the token can reach",
		Version: version,
		Long: `backgitup lists the repositories visible to a GitHub token, clones the
missing ones, fast-forwards the existing ones and reclones broken ones under
<root>/<owner>/<name>. It repeats every interval until stopped.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.New(flags, playground.New())
			if err != nil {
				return err
			}

			log, err := newLogger(flags.Verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			newApp(cfg, log).Run()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "log at debug level, including git progress")
	cmd.Flags().BoolVar(&flags.Once, "once", false, "run a single pass and exit")
	cmd.Flags().DurationVar(&flags.Interval, "interval", 0, "time between passes (overrides scheduler.interval)")
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "", "path to a YAML config file (overrides CONFIG_PATH)")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func newApp(cfg config.Config, log *zap.Logger) *fx.App {
	return fx.New(
		// CORE MODULES
		fx.Supply(log),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		validator.Module,
		httpModules(cfg),
		//
		// APP MODULES
		config.Module(cfg),
		//
		// BUSINESS MODULES
		git.Module(),
		github.Module(),
		mirrors.Module(),
		reconciler.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("🚀 backgitup starting up",
						zap.String("version", version),
						zap.String("root", cfg.Mirrors.Root),
						zap.Duration("interval", cfg.Scheduler.Interval),
						zap.Bool("once", cfg.Scheduler.Once))
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("🛑 backgitup shutting down gracefully")
					_ = logger.Sync()
					return nil
				},
			})
		}),
	)
}

func httpModules(cfg config.Config) fx.Option {
	if !cfg.HTTP.Enabled {
		return fx.Options()
	}

	return fx.Options(
		healthfx.Module(),
		fiberfx.Module(),
		server.Module(),
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: version, ReleaseID: 1} }),
	)
}
