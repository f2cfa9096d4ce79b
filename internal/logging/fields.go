package logging

import "log/slog"

// Standard attribute keys.
const (
	FieldComponent = "component"
	FieldGame      = "game_id"
	FieldEvent     = "event_id"
	FieldLane      = "lane"
	FieldEffect    = "effect"
	FieldError     = "error"
)

// WithComponent tags every record from logger with a component name, shown
// as a prefix by the console handler.
func WithComponent(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, name))
}

// Err is the conventional attribute for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(FieldError, err.Error())
}
