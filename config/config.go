package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "DATAAPI_"
	// DefaultFile is read when present and no file is named explicitly
	DefaultFile = "dataapi.yaml"

	envHeadersPrefix     = "client_headers_"
	envAuthHeadersPrefix = "auth_headers_"
)

type loadOptions struct {
	file      string
	required  bool
	yaml      [][]byte
	overrides map[string]any
	environ   func() []string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithFile reads path instead of DefaultFile. The file must exist.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
		o.required = true
	}
}

// WithYAML layers raw YAML above the file.
func WithYAML(data []byte) LoadOption {
	return func(o *loadOptions) { o.yaml = append(o.yaml, data) }
}

// WithOverrides applies dotted keys above every other source.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) { o.overrides = values }
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(environ func() []string) LoadOption {
	return func(o *loadOptions) { o.environ = environ }
}

// Load loads configuration from multiple sources with priority:
// 1. Overrides (highest priority)
// 2. Environment variables with the DATAAPI_ prefix
// 3. Raw YAML documents
// 4. YAML configuration file
// 5. Default values (lowest priority)
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{file: DefaultFile, environ: os.Environ}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			if o.required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", o.file, err)
			}
		}
	}

	for i, doc := range o.yaml {
		if err := k.Load(rawbytes.Provider(doc), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse yaml document %d: %w", i, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// transformEnv maps DATAAPI_RETRY_MAX to retry.max. Header maps keep the rest
// of the name as a dashed header key, so DATAAPI_CLIENT_HEADERS_X_TENANT_ID
// becomes client.headers.x-tenant-id. Scopes are comma separated.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	for _, prefix := range []string{envHeadersPrefix, envAuthHeadersPrefix} {
		if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
			return strings.ReplaceAll(strings.TrimSuffix(prefix, "_"), "_", ".") + "." +
				strings.ReplaceAll(name, "_", "-"), value
		}
	}

	key = strings.ReplaceAll(key, "_", ".")
	if key == "auth.oauth2.scopes" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.baseurl":       "http://localhost:8080/api",
		"client.timeout":       "30s",
		"client.useragent":     "DataAPI-Go-SDK/1.0.0",
		"client.traceidheader": "X-Request-ID",
		"client.w3ctrace":      false,

		"retry.max":        3,
		"retry.delay":      "1s",
		"retry.maxdelay":   "0s",
		"retry.jitter":     false,
		"retry.retryafter": "1s",

		"ratelimit.rps":   0,
		"ratelimit.burst": 1,

		"auth.type":   AuthNone,
		"auth.header": "X-API-Key",

		"log.level":           "info",
		"log.pretty":          false,
		"log.payloads":        false,
		"log.maxpayloadbytes": 1024,

		"observability.enabled":    false,
		"observability.service":    "dataapi-client",
		"observability.protocol":   ProtocolHTTP,
		"observability.samplerate": 1.0,
		"observability.interval":   "15s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
