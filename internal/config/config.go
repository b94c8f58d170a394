// Package config loads environment-based overrides for the CLI's runtime
// wiring, layering a .env file (via godotenv) under real process
// environment variables and explicit flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"qiyas/internal/app"
	"qiyas/internal/domain"
)

// Env variable names recognised by Load.
const (
	EnvHomeDir        = "QIYAS_HOME"
	EnvRelayURL       = "QIYAS_RELAY_URL"
	EnvAlgorithm      = "QIYAS_ALGORITHM"
	EnvMaxSkippedKeys = "QIYAS_MAX_SKIPPED_KEYS"
)

// Load reads a .env file at dotenvPath if present (a missing file is not an
// error), then overlays process environment variables onto base, returning
// the merged app.Config. Flags the caller has already set on base take
// precedence over the environment wherever base's field is non-zero.
func Load(dotenvPath string, base app.Config) (app.Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			return app.Config{}, fmt.Errorf("config: loading %s: %w", dotenvPath, err)
		}
	}

	cfg := base
	if cfg.HomeDir == "" {
		if v := os.Getenv(EnvHomeDir); v != "" {
			cfg.HomeDir = v
		}
	}
	if cfg.RelayURL == "" {
		if v := os.Getenv(EnvRelayURL); v != "" {
			cfg.RelayURL = v
		}
	}
	if cfg.Algorithm == 0 {
		if algo, ok := parseAlgorithm(os.Getenv(EnvAlgorithm)); ok {
			cfg.Algorithm = algo
		}
	}
	if cfg.MaxSkippedKeys == 0 {
		if v := os.Getenv(EnvMaxSkippedKeys); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.MaxSkippedKeys = n
			}
		}
	}

	if cfg.HomeDir != "" {
		cfg.HomeDir = filepath.Clean(cfg.HomeDir)
	}
	return cfg, nil
}

func parseAlgorithm(v string) (domain.AEADAlgorithm, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "xchacha20poly1305", "xchacha20-poly1305", "xchacha20":
		return domain.AEADXChaCha20, true
	case "aes256gcm", "aes-256-gcm", "aes":
		return domain.AEADAES256GCM, true
	default:
		return 0, false
	}
}
