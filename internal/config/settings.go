package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/registry"
	"github.com/handiism/modfetch/internal/resolve"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MODFETCH_"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid settings")

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	OutputDir   string `koanf:"output_dir"`
	Concurrency int    `koanf:"concurrency"`
	LoaderTag   string `koanf:"loader_tag"`

	// HTTP settings
	RequestTimeout time.Duration `koanf:"request_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	ChunkSize      int           `koanf:"chunk_size"`
	UserAgent      string        `koanf:"user_agent"`

	// Registry endpoints
	ModrinthURL      string `koanf:"modrinth_url"`
	CurseForgeURL    string `koanf:"curseforge_url"`
	CurseForgeCDNURL string `koanf:"curseforge_cdn_url"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir:   "mods",
		Concurrency: 8,
		LoaderTag:   resolve.DefaultLoaderTag,

		RequestTimeout: http.DefaultRequestTimeout,
		IdleTimeout:    http.DefaultIdleTimeout,
		ChunkSize:      http.DefaultChunkSize,
		UserAgent:      http.DefaultUserAgent,

		ModrinthURL:      registry.DefaultModrinthURL,
		CurseForgeURL:    registry.DefaultCurseForgeURL,
		CurseForgeCDNURL: registry.DefaultCurseForgeCDNURL,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/modfetch/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "modfetch", "config.toml")
}

// Load builds Settings from defaults, the file at path and MODFETCH_*
// environment variables, later layers overriding earlier ones.
//
// The file parser is chosen by extension (.toml, .yaml, .yml, .json). An
// empty path or a missing file is skipped, so Load never fails just because
// no configuration was written yet.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(DefaultSettings().toMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Unmarshal
	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &s, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate reports the first out-of-range setting.
func (s *Settings) Validate() error {
	switch {
	case s.OutputDir == "":
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	case s.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalid, s.Concurrency)
	case s.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be at least 1, got %d", ErrInvalid, s.ChunkSize)
	case strings.TrimSpace(s.LoaderTag) == "":
		return fmt.Errorf("%w: loader_tag is empty", ErrInvalid)
	case s.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive, got %s", ErrInvalid, s.RequestTimeout)
	case s.IdleTimeout <= 0:
		return fmt.Errorf("%w: idle_timeout must be positive, got %s", ErrInvalid, s.IdleTimeout)
	}
	return nil
}

// Save writes settings to a TOML file, creating parent directories.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := gotoml.Marshal(s.toMap())
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// HTTPOptions converts settings to internal/http client options.
func (s *Settings) HTTPOptions() []http.Option {
	return []http.Option{
		http.WithUserAgent(s.UserAgent),
		http.WithRequestTimeout(s.RequestTimeout),
		http.WithIdleTimeout(s.IdleTimeout),
		http.WithChunkSize(s.ChunkSize),
	}
}

// Endpoints converts settings to registry endpoints.
func (s *Settings) Endpoints() registry.Endpoints {
	return registry.Endpoints{
		ModrinthURL:      s.ModrinthURL,
		CurseForgeURL:    s.CurseForgeURL,
		CurseForgeCDNURL: s.CurseForgeCDNURL,
	}
}

// toMap flattens settings into koanf keys. Durations are rendered as
// strings so they round-trip through every file format.
func (s *Settings) toMap() map[string]any {
	return map[string]any{
		"output_dir":         s.OutputDir,
		"concurrency":        s.Concurrency,
		"loader_tag":         s.LoaderTag,
		"request_timeout":    s.RequestTimeout.String(),
		"idle_timeout":       s.IdleTimeout.String(),
		"chunk_size":         s.ChunkSize,
		"user_agent":         s.UserAgent,
		"modrinth_url":       s.ModrinthURL,
		"curseforge_url":     s.CurseForgeURL,
		"curseforge_cdn_url": s.CurseForgeCDNURL,
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}
