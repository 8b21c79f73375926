// Package config loads gifboard settings.
//
// Sources, lowest precedence first:
//  1. Defaults declared in the embedded CUE schema
//  2. An optional CUE file (gifboard.cue)
//  3. A .env file in the working directory, if present
//  4. GIFBOARD_* environment variables
//
// The merged value is validated against the schema, so an out-of-range
// space or an unknown log level fails at load time.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/roach88/gifboard/internal/ir"
)

// DefaultFile is read when Load is given no explicit path and the file
// exists.
const DefaultFile = "gifboard.cue"

//go:embed schema.cue
var schemaCUE string

// Config holds the resolved settings.
type Config struct {
	ProgramID string `json:"program_id"`
	Database  string `json:"database"`
	Space     int    `json:"space"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// envOverrides replace fields of the decoded CUE value. Unset variables leave
// the zero value and are skipped.
type envOverrides struct {
	ProgramID string `env:"GIFBOARD_PROGRAM_ID"`
	Database  string `env:"GIFBOARD_DB"`
	Space     int    `env:"GIFBOARD_SPACE"`
	LogLevel  string `env:"GIFBOARD_LOG_LEVEL"`
	LogFormat string `env:"GIFBOARD_LOG_FORMAT"`
}

// Load resolves the configuration. path names a CUE file; an empty path
// reads DefaultFile if it exists. A missing explicit path is an error.
func Load(path string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	value := schema.LookupPath(cue.ParsePath("#Config"))

	file, err := resolveFile(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		fileValue := ctx.CompileBytes(data, cue.Filename(file))
		if err := fileValue.Err(); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
		value = value.Unify(fileValue)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var ov envOverrides
	if err := env.Load(&ov, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}
	ov.apply(&cfg)

	// Env values replace file values, so the merged struct is checked
	// against the schema again.
	final := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(cfg))
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config after environment overrides: %w", err)
	}

	if _, err := cfg.ProgramIdentity(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("config file: %w", err)
	}
	return "", nil
}

// apply replaces the fields of cfg whose variables are set.
func (ov envOverrides) apply(cfg *Config) {
	if ov.ProgramID != "" {
		cfg.ProgramID = ov.ProgramID
	}
	if ov.Database != "" {
		cfg.Database = ov.Database
	}
	if ov.Space != 0 {
		cfg.Space = ov.Space
	}
	if ov.LogLevel != "" {
		cfg.LogLevel = ov.LogLevel
	}
	if ov.LogFormat != "" {
		cfg.LogFormat = ov.LogFormat
	}
}

// ProgramIdentity parses ProgramID as a base58 identity.
func (c *Config) ProgramIdentity() (ir.Identity, error) {
	id, err := ir.ParseIdentity(c.ProgramID)
	if err != nil {
		return ir.Identity{}, fmt.Errorf("program_id: %w", err)
	}
	return id, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
