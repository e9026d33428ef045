// Package challenge implements the savings-challenge engine: membership and
// deposit escrow, daily scoring, fever-time sweeps, ranking and rewards.
//
// Every operation that writes runs in a single store transaction. Calls to
// the bank are never made while a transaction is open.
package challenge

import (
	"log/slog"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/logging"
)

// Clock returns the current instant in the service's local timezone.
type Clock func() time.Time

// ClockIn returns a Clock reporting wall time in loc.
func ClockIn(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = logging.Discard()
	}
	return logger.With("component", name)
}
