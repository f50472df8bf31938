package config

import "time"

// Settings is the file/env representation of a logger configuration. Keys are nested single
// words so that environment variables map onto them directly (LOGBRICKS_FILE_MAXSIZE is
// file.maxsize).
type Settings struct {
	SDK       SDKSettings       `koanf:"sdk"`
	Enabled   bool              `koanf:"enabled"`
	Level     string            `koanf:"level" validate:"required,loglevel"`
	Format    string            `koanf:"format" validate:"oneof=text json"`
	Async     bool              `koanf:"async"`
	Queue     QueueSettings     `koanf:"queue"`
	Flush     FlushSettings     `koanf:"flush"`
	Capture   CaptureSettings   `koanf:"capture"`
	Shutdown  ShutdownSettings  `koanf:"shutdown"`
	Console   ConsoleSettings   `koanf:"console"`
	File      FileSettings      `koanf:"file"`
	Redact    RedactSettings    `koanf:"redact"`
	RateLimit RateLimitSettings `koanf:"ratelimit"`
	Tags      TagSettings       `koanf:"tags"`
	Enrich    map[string]string `koanf:"enrich"`
	Debug     DebugSettings     `koanf:"debug"`
}

// SDKSettings identifies the SDK the logger is built for.
type SDKSettings struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

type QueueSettings struct {
	Capacity int `koanf:"capacity" validate:"gt=0,lte=1000000"`
}

type FlushSettings struct {
	// Interval of the periodic flush; zero disables it.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
}

type CaptureSettings struct {
	Metadata bool `koanf:"metadata"`
	Source   bool `koanf:"source"`
}

type ShutdownSettings struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type ConsoleSettings struct {
	Enabled bool   `koanf:"enabled"`
	Stream  string `koanf:"stream" validate:"oneof=stdout stderr"`
}

type FileSettings struct {
	Enabled  bool   `koanf:"enabled"`
	Dir      string `koanf:"dir" validate:"required_if=Enabled true"`
	Name     string `koanf:"name"`
	MaxSize  int64  `koanf:"maxsize" validate:"gt=0"`
	MaxFiles int    `koanf:"maxfiles" validate:"gt=0"`
}

type RedactSettings struct {
	Enabled bool     `koanf:"enabled"`
	Keys    []string `koanf:"keys"`
	Mask    string   `koanf:"mask"`
}

type RateLimitSettings struct {
	Enabled bool    `koanf:"enabled"`
	Rate    float64 `koanf:"rate" validate:"required_if=Enabled true,gte=0"`
	Burst   int     `koanf:"burst" validate:"gte=0"`
	PerTag  bool    `koanf:"pertag"`
	// Exempt names the level from which entries bypass the limit. Empty disables it.
	Exempt string `koanf:"exempt" validate:"omitempty,loglevel"`
}

type TagSettings struct {
	Deny  []string `koanf:"deny"`
	Allow []string `koanf:"allow"`
}

// DebugSettings configures the HTTP debug endpoints.
type DebugSettings struct {
	Enabled bool   `koanf:"enabled"`
	Prefix  string `koanf:"prefix" validate:"omitempty,startswith=/"`
	Token   string `koanf:"token"`
}
