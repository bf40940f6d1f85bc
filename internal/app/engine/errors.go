package engine

import (
	"fmt"

	"github.com/muhammadchandra19/datafeed/pkg/errors"
)

// ErrUnknownInstrument is returned by Submit for instruments outside the configured set.
func ErrUnknownInstrument(instrument string) error {
	return errors.NewErrorDetailsWithObject(
		fmt.Sprintf("instrument %q is not configured", instrument),
		errors.UnknownInstrumentError.String(),
		"stock",
		instrument,
	)
}

// ErrInvalidOrder is returned by Submit for orders that fail validation.
func ErrInvalidOrder(message, field string) error {
	return errors.NewErrorDetails(message, errors.InvalidOrderError.String(), field)
}

// ErrAlreadyStarted is returned by Start on an engine that is already running.
var ErrAlreadyStarted = errors.NewTracer("engine already started")
