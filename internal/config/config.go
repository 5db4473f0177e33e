package config

import (
	"os"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Checker-Finance/secret-cache/pkg/config"
	"github.com/Checker-Finance/secret-cache/pkg/secrets"
)

// Config holds the runtime configuration for secret-cache.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	// BackendBin is the Doppler CLI executable, resolved on PATH when not absolute.
	BackendBin     string
	ReservedPrefix string

	CacheDir string
	// SharedCacheFile keeps every project/environment in the single legacy
	// `.sec.key` file instead of one file per scope.
	SharedCacheFile bool

	// MetricsFile, when set, receives a Prometheus textfile snapshot after each run.
	MetricsFile string
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:     pkgconfig.GetEnv("SERVICE_NAME", "secret-cache"),
		Env:             pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:        pkgconfig.GetEnv("LOG_LEVEL", "warn"),
		BackendBin:      pkgconfig.GetEnv("SECRET_CACHE_BACKEND_BIN", secrets.DefaultDopplerBin),
		ReservedPrefix:  pkgconfig.GetEnv("SECRET_CACHE_RESERVED_PREFIX", secrets.DopplerReservedPrefix),
		CacheDir:        pkgconfig.GetEnv("SECRET_CACHE_DIR", os.TempDir()),
		SharedCacheFile: pkgconfig.GetEnvBool("SECRET_CACHE_SHARED_FILE", false),
		MetricsFile:     pkgconfig.GetEnv("SECRET_CACHE_METRICS_FILE", ""),
	}
}
