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

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger
	base   slog.Handler

	// console receives the human-readable copy; nil disables it.
	console io.Writer

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{console: os.Stdout}
}

// SetConsole replaces the console writer used by the next Setup.
func (m *SlogManager) SetConsole(w io.Writer) {
	m.console = w
}

// parseLevel accepts slog level names in any case. Unknown names log at info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// utcTime renders record times as RFC3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if t, ok := a.Value.Any().(time.Time); ok && a.Key == slog.TimeKey {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup wires console, file, OTel and any extra handlers (Graylog) behind
// one logger. A nil file or provider leaves that output out.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, extra ...slog.Handler) {
	m.logProvider = provider
	opts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTime}

	handlers := make([]slog.Handler, 0, 3+len(extra))
	for _, w := range []io.Writer{m.console, file} {
		if w != nil {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler("navalsim", otelslog.WithLoggerProvider(provider)))
	}
	handlers = append(handlers, extra...)

	m.base = NewMultiHandler(handlers...)
	m.logger = slog.New(m.base)
	m.logger.Info("Logging initialized", "level", level)
}

// SetContext makes every later record carry the attributes returned by
// provider, typically the battle clock.
func (m *SlogManager) SetContext(provider ContextProvider) {
	if m.base == nil {
		return
	}
	m.logger = slog.New(NewContextHandler(m.base, provider))
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes data at the named level, tagged with the calling function.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
