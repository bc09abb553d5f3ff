package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/schoolhub/school-directory-service/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	otlploggrpc "go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

// teeHandler duplicates every record to a set of handlers. Used to keep
// stdout JSON logs alongside the OTLP export.
type teeHandler struct {
	targets []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, target := range h.targets {
		if err := target.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{targets: mapHandlers(h.targets, func(t slog.Handler) slog.Handler { return t.WithAttrs(attrs) })}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{targets: mapHandlers(h.targets, func(t slog.Handler) slog.Handler { return t.WithGroup(name) })}
}

func mapHandlers(in []slog.Handler, f func(slog.Handler) slog.Handler) []slog.Handler {
	out := make([]slog.Handler, len(in))
	for i, h := range in {
		out[i] = f(h)
	}
	return out
}

// spanContextHandler stamps trace_id/span_id onto records emitted inside an
// active span, which is what lets Loki queries join logs to traces.
type spanContextHandler struct {
	next slog.Handler
}

func (h *spanContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *spanContextHandler) WithGroup(name string) slog.Handler {
	return &spanContextHandler{next: h.next.WithGroup(name)}
}

var processLogger atomic.Pointer[slog.Logger]

// NewLogger returns the process logger once InitLogger ran, or a plain JSON
// logger for code that logs before initialization.
func NewLogger() *slog.Logger {
	if l := processLogger.Load(); l != nil {
		return l
	}
	return slog.New(stdoutHandler(slog.LevelInfo))
}

// NewBootstrapLogger is for the window before the OTel runtime exists.
func NewBootstrapLogger(cfg *config.Config) *slog.Logger {
	return slog.New(stdoutHandler(parseLogLevel(cfg.OTELLogLevel)))
}

// InitLogger wires the final logger: stdout JSON always, plus the OTLP
// bridge when log export is on, both behind trace correlation. The result
// also becomes slog's default.
func InitLogger(cfg *config.Config, lp *sdklog.LoggerProvider) *slog.Logger {
	sink := slog.Handler(stdoutHandler(parseLogLevel(cfg.OTELLogLevel)))
	if cfg.OTELLogsEnabled && lp != nil {
		bridge := otelslog.NewHandler(cfg.OTELServiceName, otelslog.WithLoggerProvider(lp))
		sink = &teeHandler{targets: []slog.Handler{sink, bridge}}
	}

	l := slog.New(&spanContextHandler{next: sink})
	processLogger.Store(l)
	slog.SetDefault(l)
	return l
}

// InitLogs builds the OTLP log provider, or nothing when export is off.
func InitLogs(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdklog.LoggerProvider, error) {
	if !cfg.OTELLogsEnabled {
		logger.Info("otel logs disabled")
		return nil, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp log exporter: %w", err)
	}

	res, err := serviceResource(ctx, cfg, "logs")
	if err != nil {
		return nil, err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	logger.Info("otel logs initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return lp, nil
}

func stdoutHandler(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func parseLogLevel(v string) slog.Level {
	if level, ok := logLevels[v]; ok {
		return level
	}
	return slog.LevelInfo
}
