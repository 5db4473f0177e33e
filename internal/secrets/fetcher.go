package secrets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secret-cache/internal/metrics"
	pkgsecrets "github.com/Checker-Finance/secret-cache/pkg/secrets"
)

const (
	// SharedFileName is the single cache file used when scopes are not separated.
	SharedFileName = ".sec.key"

	cacheDirPerm = 0o700
)

// Scope identifies the project/environment pair a cache file belongs to.
type Scope struct {
	Project     string
	Environment string
}

// Options configures a Fetcher.
type Options struct {
	// Dir holds the cache files. Defaults to os.TempDir().
	Dir string
	// Shared stores every scope in Dir/.sec.key.
	Shared bool
}

// Fetcher keeps a shell-sourceable cache of a scope's secrets on disk,
// fetching from the provider only when the cache file is missing or empty.
//
// Cache file naming: Dir/.sec.<first 16 hex of sha256(project NUL environment)>.key
type Fetcher struct {
	logger   *zap.Logger
	provider pkgsecrets.Provider
	dir      string
	shared   bool
}

// NewFetcher constructs a Fetcher backed by provider.
func NewFetcher(logger *zap.Logger, provider pkgsecrets.Provider, opts Options) *Fetcher {
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return &Fetcher{
		logger:   logger,
		provider: provider,
		dir:      dir,
		shared:   opts.Shared,
	}
}

// Path returns the cache file path for scope.
func (f *Fetcher) Path(scope Scope) string {
	if f.shared {
		return filepath.Join(f.dir, SharedFileName)
	}
	sum := sha256.Sum256([]byte(scope.Project + "\x00" + scope.Environment))
	return filepath.Join(f.dir, ".sec."+hex.EncodeToString(sum[:])[:16]+".key")
}

// FetchAndCache fetches the scope's secrets and atomically replaces its cache
// file. On failure the previous cache file, if any, is left as it was.
func (f *Fetcher) FetchAndCache(ctx context.Context, scope Scope) error {
	start := time.Now()
	path := f.Path(scope)

	f.logger.Debug("secrets.fetch_started",
		zap.String("project", scope.Project),
		zap.String("environment", scope.Environment))

	set, err := f.provider.GetSecrets(ctx, scope.Project, scope.Environment)
	if err != nil {
		metrics.ObserveFetch(start, resultLabel(err), 0)
		f.logger.Warn("secrets.fetch_failed",
			zap.String("project", scope.Project),
			zap.String("environment", scope.Environment),
			zap.Error(err))
		return err
	}

	if err := f.write(path, set.ShellExports()); err != nil {
		metrics.ObserveFetch(start, resultLabel(err), 0)
		f.logger.Error("cache.write_failed", zap.String("path", path), zap.Error(err))
		return err
	}

	metrics.ObserveFetch(start, "ok", len(set))
	f.logger.Info("cache.written",
		zap.String("path", path),
		zap.Int("secrets", len(set)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// GetCachedPath returns the scope's cache path, populating it first when the
// file is missing or empty. A non-empty file is trusted as-is.
func (f *Fetcher) GetCachedPath(ctx context.Context, scope Scope) (string, error) {
	path := f.Path(scope)

	valid, err := isValidCache(path)
	if err != nil {
		return "", err
	}
	if valid {
		metrics.IncLookup("hit")
		f.logger.Debug("cache.hit", zap.String("path", path))
		return path, nil
	}

	metrics.IncLookup("miss")
	f.logger.Debug("cache.miss", zap.String("path", path))
	if err := f.FetchAndCache(ctx, scope); err != nil {
		return "", err
	}
	return path, nil
}

// ClearCache removes the scope's cache file. A missing file is not an error.
func (f *Fetcher) ClearCache(scope Scope) error {
	path := f.Path(scope)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return pkgsecrets.NewIOError("remove cache", err)
	}
	f.logger.Info("cache.cleared", zap.String("path", path))
	return nil
}

// write replaces path through a temp file and rename so readers never see a
// truncated cache. New files are created 0600.
func (f *Fetcher) write(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), cacheDirPerm); err != nil {
		return pkgsecrets.NewIOError("create cache dir", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(body)); err != nil {
		return pkgsecrets.NewIOError("write cache", err)
	}
	return nil
}

func isValidCache(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, pkgsecrets.NewIOError("stat cache", err)
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

func resultLabel(err error) string {
	switch kind, _ := pkgsecrets.KindOf(err); kind {
	case pkgsecrets.KindInvocation:
		return "invocation_error"
	case pkgsecrets.KindBackend:
		return "backend_error"
	case pkgsecrets.KindParse:
		return "parse_error"
	case pkgsecrets.KindIO:
		return "io_error"
	default:
		return "error"
	}
}
