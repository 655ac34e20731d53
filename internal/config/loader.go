package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "XPTS_"
	envFile   = ".env"
	// EnvConfigPath names the variable holding an optional YAML file path.
	EnvConfigPath = envPrefix + "CONFIG"
)

// sections are the nested config blocks reachable from env keys.
var sections = []string{"s3", "fetch", "profiles"} //nolint:gochecknoglobals // fixed key layout

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if XPTS_CONFIG is set
//  3. env (prefix XPTS_)
//
// A .env file in the working directory is read into the process environment
// first; variables already set win over it.
func Load(ctx context.Context) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return LoadFrom(ctx, os.Getenv(EnvConfigPath))
}

// LoadDotEnv reads ./.env into the process environment when it exists.
func LoadDotEnv() error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, envFile, err)
	}
	return nil
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file
// layer.
func LoadFrom(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps XPTS_FETCH_BASE_URL to fetch.base_url and
// XPTS_PROFILES_MID_TREES to profiles.mid.trees. Top-level keys keep their
// underscores to match the koanf tags.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		rest, ok := strings.CutPrefix(s, sec+"_")
		if !ok {
			continue
		}
		if sec == "profiles" {
			if cat, field, ok := strings.Cut(rest, "_"); ok {
				return sec + "." + cat + "." + field
			}
		}
		return sec + "." + rest
	}
	return s
}
