// Package config loads talentflow settings from a YAML file, applies
// environment overrides (optionally from a .env file), and validates the
// result against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/talentflow/internal/provider"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables that override the file.
const (
	EnvDatabase    = "TALENTFLOW_DB"
	EnvUser        = "TALENTFLOW_USER"
	EnvFailureRate = "TALENTFLOW_FAILURE_RATE"
)

// Config is the merged configuration.
type Config struct {
	Database    string     `yaml:"database"`
	CurrentUser string     `yaml:"current_user"`
	PageSize    int        `yaml:"page_size"`
	Unreliable  Unreliable `yaml:"unreliable"`
}

// Unreliable configures the simulated network in front of the database.
type Unreliable struct {
	Enabled     bool          `yaml:"enabled"`
	FailureRate float64       `yaml:"failure_rate"`
	MinLatency  time.Duration `yaml:"min_latency"`
	MaxLatency  time.Duration `yaml:"max_latency"`
	Seed        uint64        `yaml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:    "talentflow.db",
		CurrentUser: "Current User",
		PageSize:    10,
		Unreliable: Unreliable{
			Enabled:     false,
			FailureRate: 0.08,
			MinLatency:  200 * time.Millisecond,
			MaxLatency:  1200 * time.Millisecond,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the .env file at envFile (skipped when empty or missing),
// and the process environment, in increasing precedence.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env, err := readEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// readEnv merges the .env file under the process environment.
func readEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		default:
			env = fileEnv
		}
	}
	for _, key := range []string{EnvDatabase, EnvUser, EnvFailureRate} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

func applyEnv(cfg *Config, env map[string]string) error {
	if v := env[EnvDatabase]; v != "" {
		cfg.Database = v
	}
	if v := env[EnvUser]; v != "" {
		cfg.CurrentUser = v
	}
	if v := env[EnvFailureRate]; v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFailureRate, err)
		}
		cfg.Unreliable.FailureRate = rate
		cfg.Unreliable.Enabled = true
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c.cueView()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// cueView is the shape the schema checks. Durations are whole milliseconds.
func (c Config) cueView() map[string]any {
	return map[string]any{
		"database":     c.Database,
		"current_user": c.CurrentUser,
		"page_size":    c.PageSize,
		"unreliable": map[string]any{
			"enabled":        c.Unreliable.Enabled,
			"failure_rate":   c.Unreliable.FailureRate,
			"min_latency_ms": c.Unreliable.MinLatency.Milliseconds(),
			"max_latency_ms": c.Unreliable.MaxLatency.Milliseconds(),
			"seed":           c.Unreliable.Seed,
		},
	}
}

// ProviderOptions returns the provider.Unreliable options for this config.
func (u Unreliable) ProviderOptions() []provider.UnreliableOption {
	opts := []provider.UnreliableOption{
		provider.WithFailureRate(u.FailureRate),
		provider.WithLatency(u.MinLatency, u.MaxLatency),
	}
	if u.Seed != 0 {
		opts = append(opts, provider.WithSeed(u.Seed))
	}
	return opts
}
