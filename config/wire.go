package config

import (
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/gaborage/logbricks/destination"
	"github.com/gaborage/logbricks/interceptor"
	"github.com/gaborage/logbricks/logger"
)

// Builder turns the settings into a logger.Builder. Interceptors run in the order tag filter,
// rate limit, enrichment, redaction, so enriched fields are redacted too.
func (s *Settings) Builder() (*logger.Builder, error) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		return nil, NewInvalidFieldError("level", err.Error(), levelNames)
	}

	var formatter logger.Formatter = logger.TextFormatter{}
	if s.Format == "json" {
		formatter = logger.JSONFormatter{}
	}

	b := logger.NewBuilder().
		Enabled(s.Enabled).
		MinLevel(level).
		Formatter(formatter).
		Async(s.Async).
		QueueCapacity(s.Queue.Capacity).
		FlushInterval(s.Flush.Interval).
		CollectMetadata(s.Capture.Metadata).
		CaptureSource(s.Capture.Source).
		MaxFileSize(s.File.MaxSize).
		MaxFileCount(s.File.MaxFiles)

	destinations, err := s.destinations(formatter)
	if err != nil {
		return nil, err
	}
	b.Destinations(destinations...)

	interceptors, err := s.interceptors()
	if err != nil {
		return nil, err
	}
	b.Interceptors(interceptors...)

	return b, nil
}

// Options returns the logger options implied by the settings.
func (s *Settings) Options() []logger.Option {
	return []logger.Option{logger.WithShutdownTimeout(s.Shutdown.Timeout)}
}

// NewLogger builds and starts a logger from the settings.
func (s *Settings) NewLogger(opts ...logger.Option) (*logger.Logger, error) {
	b, err := s.Builder()
	if err != nil {
		return nil, err
	}
	return logger.New(s.SDK.Name, s.SDK.Version, b.Build(), append(s.Options(), opts...)...), nil
}

func (s *Settings) destinations(formatter logger.Formatter) ([]logger.Destination, error) {
	var out []logger.Destination
	if s.Console.Enabled {
		var w io.Writer = os.Stdout
		if s.Console.Stream == "stderr" {
			w = os.Stderr
		}
		out = append(out, logger.NewConsoleDestination(w, formatter))
	}
	if s.File.Enabled {
		f, err := destination.NewFile(destination.FileOptions{
			Dir:       s.File.Dir,
			Name:      s.File.Name,
			Formatter: formatter,
			MaxSize:   s.File.MaxSize,
			MaxFiles:  s.File.MaxFiles,
		})
		if err != nil {
			return nil, NewInvalidFieldError("file.dir", err.Error(), nil)
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Settings) interceptors() ([]logger.Interceptor, error) {
	var out []logger.Interceptor
	if len(s.Tags.Allow) > 0 {
		out = append(out, interceptor.AllowTags(s.Tags.Allow...))
	}
	if len(s.Tags.Deny) > 0 {
		out = append(out, interceptor.DenyTags(s.Tags.Deny...))
	}
	if s.RateLimit.Enabled {
		var opts []interceptor.RateLimitOption
		if s.RateLimit.PerTag {
			opts = append(opts, interceptor.PerTag())
		}
		if s.RateLimit.Exempt != "" {
			exempt, err := logger.ParseLevel(s.RateLimit.Exempt)
			if err != nil {
				return nil, NewInvalidFieldError("ratelimit.exempt", err.Error(), levelNames)
			}
			opts = append(opts, interceptor.ExemptFrom(exempt))
		}
		out = append(out, interceptor.RateLimit(rate.Limit(s.RateLimit.Rate), s.RateLimit.Burst, opts...))
	}
	if len(s.Enrich) > 0 {
		fields := make(map[string]any, len(s.Enrich))
		for k, v := range s.Enrich {
			fields[k] = v
		}
		out = append(out, interceptor.Enrich(fields))
	}
	if s.Redact.Enabled {
		out = append(out, interceptor.Redact(interceptor.RedactConfig{
			SensitiveKeys: s.Redact.Keys,
			Mask:          s.Redact.Mask,
		}))
	}
	return out, nil
}
