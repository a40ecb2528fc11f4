package mode

import (
	"errors"
	"fmt"
)

// Mode is the mode of transport a container arrives or departs with.
type Mode int

// Valid modes of transport. The order is the row/column order of every
// transition matrix in this module.
const (
	Truck Mode = iota
	Train
	Barge
	Feeder
	DeepSeaVessel
)

// Count is the number of modes of transport.
const Count = 5

// All lists every mode of transport in canonical order.
var All = []Mode{Truck, Train, Barge, Feeder, DeepSeaVessel}

// Hinterland modes move containers between the terminal and its inland destinations.
var Hinterland = []Mode{Truck, Train, Barge}

// Maritime modes move containers between the terminal and other ports.
var Maritime = []Mode{Feeder, DeepSeaVessel}

// ErrUnknown is used when a mode of transport can't be recognised
var ErrUnknown = errors.New("unknown mode of transport")

func (m Mode) String() string {
	switch m {
	case Truck:
		return "truck"
	case Train:
		return "train"
	case Barge:
		return "barge"
	case Feeder:
		return "feeder"
	case DeepSeaVessel:
		return "deep_sea_vessel"
	}
	return ""
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= Truck && m <= DeepSeaVessel
}

// IsMaritime reports whether m is a feeder or a deep sea vessel.
func (m Mode) IsMaritime() bool {
	return m == Feeder || m == DeepSeaVessel
}

// Parse returns the mode named s.
func Parse(s string) (Mode, error) {
	for _, m := range All {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// MarshalText encodes the mode by name so it can be used as a JSON object key.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
