package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON slog handler that ships records to a
// GELF UDP endpoint, and the underlying writer.
func NewGraylogHandler(address, level string) (slog.Handler, *gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("create gelf writer for %s: %w", address, err)
	}
	w.Facility = "navalsim"
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return h, w, nil
}

// ClockProvider adds tick and game time attributes from a clock function.
func ClockProvider(clock func() (tick uint64, gameSeconds float64)) ContextProvider {
	return func() []slog.Attr {
		tick, gt := clock()
		return []slog.Attr{
			slog.Uint64("tick", tick),
			slog.Float64("game_time", gt),
		}
	}
}
