// Package config loads logger settings from defaults, YAML and environment variables and
// turns them into a logger configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/logbricks/logger"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "LOGBRICKS_"

// Keys whose environment values are comma-separated lists.
var listKeys = map[string]bool{
	"redact.keys": true,
	"tags.deny":   true,
	"tags.allow":  true,
}

type loadOptions struct {
	files     []string
	blobs     [][]byte
	envPrefix string
	environ   func() []string
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithFile adds a YAML file. Files are applied in order; a missing file is an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.files = append(o.files, path)
	}
}

// WithBytes adds raw YAML applied after files.
func WithBytes(data []byte) LoadOption {
	return func(o *loadOptions) {
		o.blobs = append(o.blobs, data)
	}
}

// WithEnvPrefix changes the environment variable prefix. An empty prefix disables the
// environment source.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(environ func() []string) LoadOption {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// Load reads settings with priority, lowest first:
// 1. Default values
// 2. YAML files, in the order given
// 3. Raw YAML documents
// 4. Environment variables
func Load(opts ...LoadOption) (*Settings, error) {
	o := loadOptions{envPrefix: DefaultEnvPrefix, environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, NewSourceError("defaults", err)
	}
	for _, path := range o.files {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, NewSourceError(path, err)
		}
	}
	for i, blob := range o.blobs {
		if err := k.Load(rawbytes.Provider(blob), yaml.Parser()); err != nil {
			return nil, NewSourceError(fmt.Sprintf("yaml document %d", i+1), err)
		}
	}
	if o.envPrefix != "" {
		if err := k.Load(envProvider(o.envPrefix, o.environ), nil); err != nil {
			return nil, NewSourceError("environment", err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, NewSourceError("unmarshal", err)
	}
	if err := Validate(&s, o.envPrefix); err != nil {
		return nil, err
	}
	return &s, nil
}

// envProvider maps PREFIX_FILE_MAXSIZE to file.maxsize.
func envProvider(prefix string, environ func() []string) *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: prefix,
		TransformFunc: func(k, v string) (string, any) {
			key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, prefix)), "_", ".")
			if listKeys[key] {
				parts := strings.Split(v, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				return key, parts
			}
			return key, v
		},
		EnvironFunc: environ,
	})
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"sdk.name":    "app",
		"sdk.version": "0.0.0",

		"enabled":          true,
		"level":            logger.Verbose.String(),
		"format":           "text",
		"async":            true,
		"queue.capacity":   logger.DefaultQueueCapacity,
		"flush.interval":   logger.DefaultFlushInterval.String(),
		"capture.metadata": true,
		"capture.source":   true,
		"shutdown.timeout": logger.DefaultShutdownTimeout.String(),

		"console.enabled": true,
		"console.stream":  "stdout",

		"file.enabled":  false,
		"file.name":     "app",
		"file.maxsize":  logger.DefaultMaxFileSize,
		"file.maxfiles": logger.DefaultMaxFileCount,

		"redact.enabled": true,

		"ratelimit.enabled": false,
		"ratelimit.burst":   1,

		"debug.enabled": false,
		"debug.prefix":  "/_logbricks",
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}
