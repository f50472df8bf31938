package destination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/logbricks/logger"
)

const defaultScope = "logbricks"

// Metadata keys that carry a span context instead of becoming attributes.
const (
	TraceIDKey    = "trace_id"
	SpanIDKey     = "span_id"
	TraceFlagsKey = "trace_flags"
)

// Attribute keys of emitted records.
const (
	attrEntryID    = "log.record.uid"
	attrTag        = "log.tag"
	attrSDKName    = "sdk.name"
	attrSDKVersion = "sdk.version"
	attrGoroutine  = "thread.id"
	attrErrMessage = "exception.message"
	attrErrType    = "exception.type"
	attrCodeFile   = "code.filepath"
	attrCodeFunc   = "code.function"
	attrCodeLine   = "code.lineno"
)

// OTelOptions configures an OpenTelemetry destination.
type OTelOptions struct {
	// Provider receives the records. Required.
	Provider *sdklog.LoggerProvider
	// Scope is the instrumentation scope name. Defaults to "logbricks".
	Scope string
	// OwnsProvider makes Close shut the provider down.
	OwnsProvider bool
}

// OTel emits entries as OpenTelemetry log records.
type OTel struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
	owned    bool
}

func NewOTel(opts OTelOptions) (*OTel, error) {
	if opts.Provider == nil {
		return nil, errors.New("otel destination: logger provider is required")
	}
	scope := opts.Scope
	if scope == "" {
		scope = defaultScope
	}
	return &OTel{
		provider: opts.Provider,
		logger:   opts.Provider.Logger(scope),
		owned:    opts.OwnsProvider,
	}, nil
}

func (o *OTel) Name() string { return "otel" }

func (o *OTel) Write(ctx context.Context, e logger.Entry) error {
	rec, emitCtx := buildLogRecord(ctx, e)
	o.logger.Emit(emitCtx, rec)
	return nil
}

// Flush forces the provider's processors to export pending records.
func (o *OTel) Flush(ctx context.Context) error {
	return o.provider.ForceFlush(ctx)
}

// Close shuts the provider down when the destination owns it and flushes it otherwise.
func (o *OTel) Close(ctx context.Context) error {
	if o.owned {
		return o.provider.Shutdown(ctx)
	}
	return o.provider.ForceFlush(ctx)
}

func buildLogRecord(ctx context.Context, e logger.Entry) (log.Record, context.Context) {
	var rec log.Record
	rec.SetTimestamp(e.Timestamp)
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(severity(e.Level))
	rec.SetSeverityText(e.Level.String())
	rec.SetBody(log.StringValue(e.Message))

	if sc, ok := extractSpanContext(e.Metadata); ok {
		ctx = trace.ContextWithSpanContext(ctx, sc)
	}

	attrs := make([]log.KeyValue, 0, len(e.Metadata)+10)
	attrs = append(attrs,
		log.String(attrEntryID, e.ID),
		log.String(attrTag, e.Tag),
		log.String(attrSDKName, e.SDKName),
		log.String(attrSDKVersion, e.SDKVersion),
		log.Int64(attrGoroutine, int64(e.GoroutineID)),
	)
	if e.Err != nil {
		attrs = append(attrs,
			log.String(attrErrMessage, e.Err.Error()),
			log.String(attrErrType, fmt.Sprintf("%T", e.Err)),
		)
	}
	if e.Source != nil {
		attrs = append(attrs,
			log.String(attrCodeFile, e.Source.File),
			log.String(attrCodeFunc, e.Source.Function),
			log.Int(attrCodeLine, e.Source.Line),
		)
	}
	for k, v := range e.Metadata {
		if k == TraceIDKey || k == SpanIDKey || k == TraceFlagsKey {
			continue
		}
		attrs = append(attrs, log.KeyValue{Key: k, Value: toLogValue(v)})
	}
	rec.AddAttributes(attrs...)

	return rec, ctx
}

func severity(level logger.Level) log.Severity {
	switch level {
	case logger.Verbose:
		return log.SeverityTrace
	case logger.Debug:
		return log.SeverityDebug
	case logger.Info:
		return log.SeverityInfo
	case logger.Warning:
		return log.SeverityWarn
	case logger.Error:
		return log.SeverityError
	case logger.Assert:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}

func extractSpanContext(md map[string]any) (trace.SpanContext, bool) {
	traceID, ok := parseTraceID(md[TraceIDKey])
	if !ok {
		return trace.SpanContext{}, false
	}
	spanID, ok := parseSpanID(md[SpanIDKey])
	if !ok {
		return trace.SpanContext{}, false
	}
	flags, _ := parseTraceFlags(md[TraceFlagsKey])

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	return sc, sc.IsValid()
}

func parseTraceID(v any) (trace.TraceID, bool) {
	switch id := v.(type) {
	case trace.TraceID:
		return id, id.IsValid()
	case string:
		parsed, err := trace.TraceIDFromHex(id)
		return parsed, err == nil && parsed.IsValid()
	}
	return trace.TraceID{}, false
}

func parseSpanID(v any) (trace.SpanID, bool) {
	switch id := v.(type) {
	case trace.SpanID:
		return id, id.IsValid()
	case string:
		parsed, err := trace.SpanIDFromHex(id)
		return parsed, err == nil && parsed.IsValid()
	}
	return trace.SpanID{}, false
}

func parseTraceFlags(value any) (trace.TraceFlags, bool) {
	switch v := value.(type) {
	case trace.TraceFlags:
		return v, true
	case string:
		// accepts "01" and "0x1"
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			if parsed, err := strconv.ParseUint(v[2:], 16, 8); err == nil {
				return trace.TraceFlags(parsed), true
			}
		}
		if parsed, err := strconv.ParseUint(v, 10, 8); err == nil {
			return trace.TraceFlags(parsed), true
		}
	case float64:
		if v >= 0 && v <= math.MaxUint8 {
			return trace.TraceFlags(uint8(v)), true
		}
	case int:
		if v >= 0 && v <= math.MaxUint8 {
			return trace.TraceFlags(uint8(v)), true
		}
	}
	return 0, false
}

// toLogValue converts a metadata value to an OpenTelemetry log value. Unknown types are
// rendered as JSON.
func toLogValue(v any) log.Value {
	switch val := v.(type) {
	case nil:
		return log.StringValue("")
	case string:
		return log.StringValue(val)
	case bool:
		return log.BoolValue(val)
	case int:
		return log.IntValue(val)
	case int32:
		return log.Int64Value(int64(val))
	case int64:
		return log.Int64Value(val)
	case uint32:
		return log.Int64Value(int64(val))
	case float32:
		return log.Float64Value(float64(val))
	case float64:
		return log.Float64Value(val)
	case []byte:
		return log.BytesValue(val)
	case time.Time:
		return log.StringValue(val.Format(time.RFC3339Nano))
	case time.Duration:
		return log.StringValue(val.String())
	case error:
		return log.StringValue(val.Error())
	case fmt.Stringer:
		return log.StringValue(val.String())
	case []any:
		slice := make([]log.Value, len(val))
		for i, item := range val {
			slice[i] = toLogValue(item)
		}
		return log.SliceValue(slice...)
	case []string:
		slice := make([]log.Value, len(val))
		for i, item := range val {
			slice[i] = log.StringValue(item)
		}
		return log.SliceValue(slice...)
	case map[string]any:
		kvs := make([]log.KeyValue, 0, len(val))
		for k, item := range val {
			kvs = append(kvs, log.KeyValue{Key: k, Value: toLogValue(item)})
		}
		return log.MapValue(kvs...)
	default:
		return log.StringValue(jsonStringify(val))
	}
}

func jsonStringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
