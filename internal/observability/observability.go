// Package observability configures the process-wide slog logger.
//
// Text and JSON formats write to stderr through the standard slog handlers.
// The otel format routes records through the OpenTelemetry log bridge, so
// they can be exported to stdout or an OTLP collector (configured via the
// standard OTEL_EXPORTER_OTLP_* environment variables).
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies log records emitted through the bridge.
const instrumentationName = "github.com/florianilch/tokenkeeper"

// Supported formats and exporters.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatOTel = "otel"

	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlphttp"
	ExporterOTLPGRPC = "otlpgrpc"
)

// ShutdownFunc flushes and releases logging resources.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Instrument installs the default slog logger for the given level and format.
// exporter is only consulted for the otel format. The returned ShutdownFunc
// must be called before exit to flush buffered records.
func Instrument(ctx context.Context, level slog.Level, format, exporter string) (ShutdownFunc, error) {
	return instrument(ctx, os.Stderr, level, format, exporter)
}

func instrument(ctx context.Context, w io.Writer, level slog.Level, format, exporter string) (ShutdownFunc, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case FormatText, "":
		slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
		return noopShutdown, nil
	case FormatJSON:
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
		return noopShutdown, nil
	case FormatOTel:
		provider, err := newLoggerProvider(ctx, w, level, exporter)
		if err != nil {
			return nil, err
		}
		global.SetLoggerProvider(provider)
		slog.SetDefault(otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)))
		return provider.Shutdown, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// newLoggerProvider builds an SDK LoggerProvider that drops records below level.
func newLoggerProvider(ctx context.Context, w io.Writer, level slog.Level, exporter string) (*sdklog.LoggerProvider, error) {
	var processor sdklog.Processor

	switch exporter {
	case ExporterStdout, "":
		exp, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout log exporter: %w", err)
		}
		// Short-lived CLI runs: export synchronously so nothing is lost on exit
		processor = sdklog.NewSimpleProcessor(exp)
	case ExporterOTLPHTTP:
		exp, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/HTTP log exporter: %w", err)
		}
		processor = sdklog.NewBatchProcessor(exp)
	case ExporterOTLPGRPC:
		exp, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/gRPC log exporter: %w", err)
		}
		processor = sdklog.NewBatchProcessor(exp)
	default:
		return nil, errors.New("unsupported log exporter: " + exporter)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(processor, severity(level))),
	), nil
}

// severity maps a slog level onto the closest OpenTelemetry minimum severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
