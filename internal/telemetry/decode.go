package telemetry

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedEvent is returned for events that carry no usable reading.
var ErrMalformedEvent = errors.New("malformed event")

// Decode extracts a Reading from a status event.
func Decode(ev Event) (Reading, error) {
	if ev.Type != EventStatus {
		return Reading{}, fmt.Errorf("%w: unexpected type %q", ErrMalformedEvent, ev.Type)
	}
	if math.IsNaN(ev.SoleonValue) || math.IsInf(ev.SoleonValue, 0) {
		return Reading{}, fmt.Errorf("%w: level %v", ErrMalformedEvent, ev.SoleonValue)
	}
	if ev.TimeBootMS < 0 {
		return Reading{}, fmt.Errorf("%w: negative boot time %d", ErrMalformedEvent, ev.TimeBootMS)
	}
	return Reading{Timestamp: ev.TimeBootMS, Level: ev.SoleonValue}, nil
}
