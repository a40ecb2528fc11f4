// Package flow accrues the container volume moved by the configured
// schedules and redistributes it through the mode of transport
// distribution.
package flow

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

// Lookup resolves the transition row of a source mode.
type Lookup interface {
	Get(source mode.Mode) (distribution.Row, error)
}

// Snapshot is the consistent set of inputs a preview is computed from.
type Snapshot struct {
	Window       schedule.Window
	Schedules    []schedule.Schedule
	Distribution Lookup
}

// Split holds a TEU quantity per hinterland mode.
type Split struct {
	Truck float64 `json:"truck"`
	Barge float64 `json:"barge"`
	Train float64 `json:"train"`
}

// Total is the sum over all hinterland modes.
func (s Split) Total() float64 {
	return s.Truck + s.Barge + s.Train
}

func (s *Split) add(m mode.Mode, teu float64) {
	switch m {
	case mode.Truck:
		s.Truck += teu
	case mode.Barge:
		s.Barge += teu
	case mode.Train:
		s.Train += teu
	}
}

// Result is the outcome of one accrual.
type Result struct {
	// Inbound is the TEU arriving per mode of transport.
	Inbound map[mode.Mode]float64 `json:"inbound_capacity"`

	// Flow[from][to] is the TEU arriving by from and leaving by to.
	Flow map[mode.Mode]map[mode.Mode]float64 `json:"flow"`

	Transshipment float64 `json:"transshipment"`
	Hinterland    float64 `json:"hinterland"`

	InboundSplit  Split `json:"inbound_modal_split"`
	OutboundSplit Split `json:"outbound_modal_split"`
	AbsoluteSplit Split `json:"absolute_modal_split"`
}

// Accrue computes the container flows of snap.
func Accrue(snap Snapshot) (Result, error) {
	inbound, err := inboundCapacity(snap)
	if err != nil {
		return Result{}, err
	}

	transitions := mat.NewDense(mode.Count, mode.Count, nil)
	for _, source := range mode.All {
		if inbound[source] <= 0 {
			continue
		}
		row, err := snap.Distribution.Get(source)
		if err != nil {
			return Result{}, err
		}
		for target, p := range row {
			transitions.Set(int(source), int(target), p)
		}
	}

	var flows mat.Dense
	flows.Mul(mat.NewDiagDense(mode.Count, inbound), transitions)

	res := Result{
		Inbound: make(map[mode.Mode]float64, mode.Count),
		Flow:    make(map[mode.Mode]map[mode.Mode]float64, mode.Count),
	}
	for _, from := range mode.All {
		res.Inbound[from] = inbound[from]
		res.Flow[from] = make(map[mode.Mode]float64, mode.Count)
		for _, to := range mode.All {
			teu := flows.At(int(from), int(to))
			res.Flow[from][to] = teu
			if from.IsMaritime() && to.IsMaritime() {
				res.Transshipment += teu
			} else {
				res.Hinterland += teu
			}
		}
	}

	// inbound: delivered by a hinterland mode for a vessel
	for _, from := range mode.Hinterland {
		for _, to := range mode.Maritime {
			res.InboundSplit.add(from, res.Flow[from][to])
		}
	}
	// outbound: picked up by a hinterland mode, whatever it arrived with
	for _, from := range mode.All {
		for _, to := range mode.Hinterland {
			res.OutboundSplit.add(to, res.Flow[from][to])
		}
	}
	res.AbsoluteSplit = Split{
		Truck: res.InboundSplit.Truck + res.OutboundSplit.Truck,
		Barge: res.InboundSplit.Barge + res.OutboundSplit.Barge,
		Train: res.InboundSplit.Train + res.OutboundSplit.Train,
	}
	return res, nil
}

// inboundCapacity sums the TEU each mode delivers within the window. The
// trucks that serve a ship, train or barge call are accrued alongside it.
func inboundCapacity(snap Snapshot) ([]float64, error) {
	inbound := make([]float64, mode.Count)
	for _, s := range snap.Schedules {
		if !s.VehicleType.Valid() {
			return nil, fmt.Errorf("schedule %s: %w", s.ID, mode.ErrUnknown)
		}
		n, err := schedule.Occurrences(s, snap.Window)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		moved := s.AverageMovedCapacity * float64(n)
		inbound[s.VehicleType] += moved

		if s.VehicleType == mode.Truck {
			continue
		}
		row, err := snap.Distribution.Get(s.VehicleType)
		if err != nil {
			return nil, err
		}
		inbound[mode.Truck] += moved * row[mode.Truck]
	}
	return inbound, nil
}
