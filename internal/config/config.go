// Package config loads splash's runtime configuration from a .env file
// (if present) layered under process environment variables, the way the
// corpus's SDK clients do it.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every value the CLI needs to authenticate, fetch, and
// assemble a build.
type Config struct {
	ClientID     string
	ClientSecret string

	AccountServiceURL  string
	LauncherServiceURL string
	UserAgent          string

	ChunkBaseURI string
	CacheDir     string
	Workers      int
}

const (
	defaultAccountServiceURL  = "https://account-public-service-prod03.ol.epicgames.com"
	defaultLauncherServiceURL = "https://launcher-public-service-prod06.ol.epicgames.com"
	defaultUserAgent          = "splash/1.0"
	defaultWorkers            = 16
)

// Load reads a .env file at path (missing is not an error) and then
// resolves every field from the process environment, applying defaults
// for anything optional.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	workers := defaultWorkers
	if v := os.Getenv("SPLASH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: SPLASH_WORKERS: %w", err)
		}
		workers = n
	}

	cfg := &Config{
		ClientID:            os.Getenv("SPLASH_CLIENT_ID"),
		ClientSecret:        os.Getenv("SPLASH_CLIENT_SECRET"),
		AccountServiceURL:   envOr("SPLASH_ACCOUNT_SERVICE_URL", defaultAccountServiceURL),
		LauncherServiceURL:  envOr("SPLASH_LAUNCHER_SERVICE_URL", defaultLauncherServiceURL),
		UserAgent:           envOr("SPLASH_USER_AGENT", defaultUserAgent),
		ChunkBaseURI:        os.Getenv("SPLASH_CHUNK_BASE_URI"),
		CacheDir:            envOr("SPLASH_CACHE_DIR", ".splash-cache"),
		Workers:             workers,
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
