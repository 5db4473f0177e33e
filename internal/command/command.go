package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secret-cache/internal/config"
	"github.com/Checker-Finance/secret-cache/internal/metrics"
	"github.com/Checker-Finance/secret-cache/internal/secrets"
	"github.com/Checker-Finance/secret-cache/pkg/logger"
	pkgsecrets "github.com/Checker-Finance/secret-cache/pkg/secrets"
)

// Exit codes returned by the process, one per error kind.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitInvocation = 2
	ExitBackend    = 3
	ExitParse      = 4
	ExitIO         = 5
)

const description = `Fetches secrets for a Doppler project/config, caches them as a
   shell-sourceable file and prints the file's path.

   The cache is reused while it exists and is non-empty. Typical use:

   $ source "$(secret-cache --project billing --env dev)"`

// Options wires the application's collaborators. Zero values use the real ones.
type Options struct {
	Config  *config.Config
	Version string
	// Provider replaces the Doppler CLI provider, mainly for tests.
	Provider pkgsecrets.Provider
	Stdout   io.Writer
	Stderr   io.Writer
}

// NewApp builds the secret-cache CLI.
func NewApp(ctx context.Context, opts Options) *cli.App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}

	app := cli.NewApp()
	app.Name = "secret-cache"
	app.Usage = "Cache Doppler secrets as a sourceable shell file"
	app.Description = description
	app.Version = opts.Version
	if opts.Stdout != nil {
		app.Writer = opts.Stdout
	}
	if opts.Stderr != nil {
		app.ErrWriter = opts.Stderr
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:     "project, p",
			Usage:    "Doppler project to read secrets from",
			EnvVar:   "SECRET_CACHE_PROJECT",
			Required: true,
		},
		cli.StringFlag{
			Name:     "env, e",
			Usage:    "Doppler config (environment) within the project",
			EnvVar:   "SECRET_CACHE_ENVIRONMENT",
			Required: true,
		},
		cli.BoolFlag{
			Name:  "clean, c",
			Usage: "Delete the cached file before fetching",
		},
		cli.BoolFlag{
			Name:  "force, f",
			Usage: "Fetch from Doppler even if the cache is valid",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = func(c *cli.Context) error {
		level := cfg.LogLevel
		if c.Bool("debug") {
			level = "debug"
		}
		logger.Init(cfg.ServiceName, cfg.Env, level)
		defer logger.Sync()

		provider := opts.Provider
		if provider == nil {
			provider = pkgsecrets.NewDopplerProvider(logger.L(), cfg.BackendBin, cfg.ReservedPrefix, nil)
		}
		fetcher := secrets.NewFetcher(logger.L(), provider, secrets.Options{
			Dir:    cfg.CacheDir,
			Shared: cfg.SharedCacheFile,
		})

		path, err := run(ctx, fetcher, secrets.Scope{
			Project:     c.String("project"),
			Environment: c.String("env"),
		}, c.Bool("clean"), c.Bool("force"))

		if cfg.MetricsFile != "" {
			if merr := metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
				logger.L().Warn("metrics.write_failed", zap.String("path", cfg.MetricsFile), zap.Error(merr))
			}
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(c.App.Writer, path)
		return nil
	}
	return app
}

func run(ctx context.Context, f *secrets.Fetcher, scope secrets.Scope, clean, force bool) (string, error) {
	if clean {
		if err := f.ClearCache(scope); err != nil {
			return "", err
		}
	}
	if force {
		if err := f.FetchAndCache(ctx, scope); err != nil {
			return "", err
		}
		return f.Path(scope), nil
	}
	return f.GetCachedPath(ctx, scope)
}

// Main runs the app with args and returns the process exit code,
// reporting any error on the app's error writer.
func Main(ctx context.Context, opts Options, args []string) int {
	app := NewApp(ctx, opts)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(app.ErrWriter, "%s: %v\n", app.Name, err)
		return ExitCode(err)
	}
	return ExitOK
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	kind, ok := pkgsecrets.KindOf(err)
	if !ok {
		if errors.Is(err, context.Canceled) {
			return ExitInvocation
		}
		return ExitUsage
	}
	switch kind {
	case pkgsecrets.KindInvocation:
		return ExitInvocation
	case pkgsecrets.KindBackend:
		return ExitBackend
	case pkgsecrets.KindParse:
		return ExitParse
	case pkgsecrets.KindIO:
		return ExitIO
	default:
		return ExitUsage
	}
}

// DefaultOptions uses the process's standard streams.
func DefaultOptions(version string) Options {
	return Options{
		Version: version,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}
