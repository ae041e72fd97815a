// Package logging provides a configured zerolog logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with the owning component. All runtime
// subsystems derive their loggers from one of these.
func New(component string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("component", component).
		Timestamp().
		Logger()
}
