package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: text output during development, JSON in
// production so log shippers get structured records.
func New(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
