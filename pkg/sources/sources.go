package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"gopkg.in/yaml.v3"
)

// Package sources contains pluggable source configs (YAML/JSON) helpers.

// Config describes one source entry declared in config files.
type Config struct {
	ID             string `json:"id" yaml:"id"`
	Enabled        *bool  `json:"enabled" yaml:"enabled"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestDelayMs int    `json:"request_delay_ms" yaml:"request_delay_ms"`
	PerPage        int    `json:"per_page" yaml:"per_page"`
}

type configFile struct {
	Sources []Config `json:"sources" yaml:"sources"`
}

const (
	defaultTimeoutSeconds = 10
	defaultRequestDelayMs = 500
	defaultPerPage        = 30
)

// Registry materializes source definitions loaded from config files.
type Registry struct {
	mu      sync.RWMutex
	sources []Config
	idx     map[string]Config
}

// LoadRegistry loads the source registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	reg := &Registry{
		sources: make([]Config, len(fileReg.Sources)),
		idx:     make(map[string]Config, len(fileReg.Sources)),
	}

	for i := range fileReg.Sources {
		cfg := sanitizeConfig(fileReg.Sources[i])
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", cfg.ID)
		}
		reg.sources[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// DefaultRegistry returns a registry with every supported source enabled on
// its public endpoint, used when no sources file is configured.
func DefaultRegistry() *Registry {
	reg := &Registry{idx: make(map[string]Config, 3)}
	for _, source := range domain.AllSources() {
		cfg := sanitizeConfig(Config{ID: string(source)})
		reg.sources = append(reg.sources, cfg)
		reg.idx[cfg.ID] = cfg
	}
	return reg
}

func parseRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeConfig(cfg Config) Config {
	cfg.ID = strings.ToLower(strings.TrimSpace(cfg.ID))
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL(domain.Source(cfg.ID))
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.RequestDelayMs <= 0 {
		cfg.RequestDelayMs = defaultRequestDelayMs
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}

	return cfg
}

func defaultBaseURL(source domain.Source) string {
	switch source {
	case domain.SourceQiita:
		return "https://qiita.com/api/v2"
	case domain.SourceZenn:
		return "https://zenn.dev"
	case domain.SourceGitHub:
		return "https://api.github.com"
	}
	return ""
}

func validateConfig(cfg Config) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if !domain.Source(cfg.ID).Valid() {
		return fmt.Errorf("unknown source id %q", cfg.ID)
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required for source %q", cfg.ID)
	}
	return nil
}

// ByID returns the source config for the given id, if loaded.
func (r *Registry) ByID(id string) (Config, bool) {
	if r == nil {
		return Config{}, false
	}

	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Config{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns a copy of the loaded source configs.
func (r *Registry) All() []Config {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Config, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns sources that are enabled.
func (r *Registry) Enabled() []Config {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Config, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg Config) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// Timeout returns the per-request timeout for the source.
func (cfg Config) Timeout() time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// RequestDelay returns the per-request throttle duration for the source.
func (cfg Config) RequestDelay() time.Duration {
	if cfg.RequestDelayMs <= 0 {
		return defaultRequestDelayMs * time.Millisecond
	}
	return time.Duration(cfg.RequestDelayMs) * time.Millisecond
}
