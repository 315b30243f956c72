package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName is the instrumentation scope of the OTel log handler.
const ServiceName = "pearl-calculator"

// Swapped by tests.
var osStdout io.Writer = os.Stdout

// SlogManager owns the process logger. Setup can run again once the final
// log file is known; loggers taken before that keep the old destination.
type SlogManager struct {
	logger   *slog.Logger
	otelLogs *sdklog.LoggerProvider
	context  ContextProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// SetContextProvider makes every record carry the attributes returned by p.
// It takes effect on the next Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context = p
}

// parseLevel accepts slog level names in any case. Unknown names mean info.
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// utcTime renders record times as RFC 3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup routes records to file, or stdout when file is nil, plus the OTel
// bridge when provider is set.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	if file == nil {
		file = osStdout
	}
	m.otelLogs = provider

	text := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: utcTime,
	})
	var bridge slog.Handler
	if provider != nil {
		bridge = otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider))
	}

	m.logger = slog.New(WithContext(NewFanout(text, bridge), m.context))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns slog.Default until Setup has run.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Component returns a child logger tagged with the component name.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush exports pending OTel records, if the bridge is on.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.otelLogs == nil {
		return nil
	}
	return m.otelLogs.ForceFlush(ctx)
}
