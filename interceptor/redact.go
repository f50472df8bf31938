// Package interceptor provides logger.Interceptor implementations for redaction, rate
// limiting, tag and level filtering, and enrichment.
package interceptor

import (
	"context"
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/gaborage/logbricks/logger"
)

const (
	// DefaultMaxDepth bounds how deep Redact descends into nested values.
	DefaultMaxDepth = 8
	// DefaultMask replaces sensitive values.
	DefaultMask = "***"

	truncatedValue = "[TRUNCATED]"
	circularValue  = "[CIRCULAR]"
)

// RedactConfig configures the redaction interceptor.
type RedactConfig struct {
	// SensitiveKeys are matched case-insensitively as substrings of metadata keys.
	SensitiveKeys []string
	// Mask replaces sensitive values. Defaults to DefaultMask.
	Mask string
	// MaxDepth bounds recursion into maps, slices and structs. Deeper values are replaced
	// with a placeholder.
	MaxDepth int
}

// DefaultRedactConfig returns a configuration covering common credential names.
func DefaultRedactConfig() RedactConfig {
	return RedactConfig{
		SensitiveKeys: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"auth", "authorization",
			"credential", "credentials",
			"session", "cookie",
			"card_number", "cvv",
		},
		Mask:     DefaultMask,
		MaxDepth: DefaultMaxDepth,
	}
}

// Redactor masks sensitive metadata. Values under sensitive keys are masked; URL values
// anywhere keep their structure with the password masked. Structs are rendered as maps keyed
// by their json names.
type Redactor struct {
	keys     []string
	mask     string
	maxDepth int
}

// Redact returns a redaction interceptor. An empty key list uses DefaultRedactConfig's keys.
func Redact(cfg RedactConfig) *Redactor {
	def := DefaultRedactConfig()
	if len(cfg.SensitiveKeys) == 0 {
		cfg.SensitiveKeys = def.SensitiveKeys
	}
	if cfg.Mask == "" {
		cfg.Mask = def.Mask
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}

	keys := make([]string, len(cfg.SensitiveKeys))
	for i, k := range cfg.SensitiveKeys {
		keys[i] = strings.ToLower(k)
	}
	return &Redactor{keys: keys, mask: cfg.Mask, maxDepth: cfg.MaxDepth}
}

// Intercept implements logger.Interceptor.
func (r *Redactor) Intercept(_ context.Context, e logger.Entry) (logger.Entry, error) {
	if len(e.Metadata) == 0 {
		return e, nil
	}
	e.Metadata = r.Fields(e.Metadata)
	return e, nil
}

// Fields returns a redacted copy of fields.
func (r *Redactor) Fields(fields map[string]any) map[string]any {
	w := walker{r: r, visited: make(map[uintptr]struct{})}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = w.value(k, v, r.maxDepth)
	}
	return out
}

// Value redacts a single value stored under key.
func (r *Redactor) Value(key string, v any) any {
	w := walker{r: r, visited: make(map[uintptr]struct{})}
	return w.value(key, v, r.maxDepth)
}

func (r *Redactor) sensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func (r *Redactor) maskString(s string) string {
	if s == "" {
		return s
	}
	if masked, ok := r.maskURL(s); ok {
		return masked
	}
	return r.mask
}

// maskURL masks the password of URLs carrying user info. ok is false when s is not a URL.
func (r *Redactor) maskURL(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		return "", false
	}
	parsed, err := url.Parse(s)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	if parsed.User == nil {
		return s, true
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return s, true
	}

	var b strings.Builder
	b.WriteString(parsed.Scheme)
	b.WriteString("://")
	b.WriteString(parsed.User.Username())
	b.WriteByte(':')
	b.WriteString(r.mask)
	b.WriteByte('@')
	b.WriteString(parsed.Host)
	b.WriteString(parsed.EscapedPath())
	if parsed.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(parsed.RawQuery)
	}
	if parsed.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(parsed.EscapedFragment())
	}
	return b.String(), true
}

type walker struct {
	r       *Redactor
	visited map[uintptr]struct{}
}

func (w walker) value(key string, v any, depth int) any {
	if w.r.sensitive(key) {
		if s, ok := v.(string); ok {
			return w.r.maskString(s)
		}
		return w.r.mask
	}

	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if masked, ok := w.r.maskURL(val); ok {
			return masked
		}
		return val
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	case time.Time, time.Duration, error, json.Marshaler:
		return val
	}

	if depth <= 0 {
		return truncatedValue
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return w.mapValue(rv, depth)
	case reflect.Slice, reflect.Array:
		return w.sliceValue(key, rv, depth)
	case reflect.Struct:
		return w.structValue(rv, depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}
		if !w.enter(rv.Pointer()) {
			return circularValue
		}
		defer w.leave(rv.Pointer())
		return w.value(key, rv.Elem().Interface(), depth)
	default:
		return v
	}
}

func (w walker) enter(ptr uintptr) bool {
	if ptr == 0 {
		return true
	}
	if _, seen := w.visited[ptr]; seen {
		return false
	}
	w.visited[ptr] = struct{}{}
	return true
}

func (w walker) leave(ptr uintptr) {
	delete(w.visited, ptr)
}

// mapValue redacts maps with string keys. Other maps pass through untouched.
func (w walker) mapValue(rv reflect.Value, depth int) any {
	if rv.Type().Key().Kind() != reflect.String {
		return rv.Interface()
	}
	if rv.IsNil() {
		return rv.Interface()
	}
	ptr := rv.Pointer()
	if !w.enter(ptr) {
		return circularValue
	}
	defer w.leave(ptr)

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		out[k] = w.value(k, iter.Value().Interface(), depth-1)
	}
	return out
}

func (w walker) sliceValue(key string, rv reflect.Value, depth int) any {
	if rv.Kind() == reflect.Slice {
		if rv.IsNil() {
			return rv.Interface()
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Interface()
		}
		if rv.Len() > 0 {
			ptr := rv.Pointer()
			if !w.enter(ptr) {
				return circularValue
			}
			defer w.leave(ptr)
		}
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = w.value(key, rv.Index(i).Interface(), depth-1)
	}
	return out
}

func (w walker) structValue(rv reflect.Value, depth int) any {
	t := rv.Type()
	out := make(map[string]any, rv.NumField())
	for i := range rv.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonName(field)
		if name == "" {
			continue
		}
		out[name] = w.value(name, rv.Field(i).Interface(), depth-1)
	}
	return out
}

// jsonName returns the json name of field, or "" when the field is skipped.
func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
