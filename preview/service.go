// Package preview provides the read side of the service: the modal split
// preview computed from the configured schedules, window and distribution.
package preview

import (
	"context"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/flow"
	"github.com/Qalifah/flowpreview/report"
	"github.com/Qalifah/flowpreview/schedule"
)

// Inputs is the narrow view of the scenario store a preview is computed from.
type Inputs interface {
	Schedules(ctx context.Context) ([]schedule.Schedule, error)
	Window(ctx context.Context) (schedule.Window, error)
	Distribution(ctx context.Context) (distribution.Table, error)
}

// NewInputs combines the scenario repositories into Inputs.
func NewInputs(schedules schedule.Repository, windows schedule.WindowRepository, distributions distribution.Repository) Inputs {
	return &repositoryInputs{
		schedules:     schedules,
		windows:       windows,
		distributions: distributions,
	}
}

type repositoryInputs struct {
	schedules     schedule.Repository
	windows       schedule.WindowRepository
	distributions distribution.Repository
}

func (i *repositoryInputs) Schedules(ctx context.Context) ([]schedule.Schedule, error) {
	return i.schedules.FindAll(ctx)
}

func (i *repositoryInputs) Window(ctx context.Context) (schedule.Window, error) {
	return i.windows.Window(ctx)
}

func (i *repositoryInputs) Distribution(ctx context.Context) (distribution.Table, error) {
	return i.distributions.Table(ctx)
}

// Service is the interface that provides the preview methods.
type Service interface {
	// ModalSplitReport renders the transshipment share and the modal
	// splits as fixed-format text.
	ModalSplitReport(ctx context.Context) (string, error)

	// ModalSplit returns the numbers behind the report.
	ModalSplit(ctx context.Context) (flow.Result, error)
}

type service struct {
	inputs Inputs
}

// NewService returns a new instance of the preview Service.
func NewService(inputs Inputs) Service {
	return &service{inputs: inputs}
}

func (s *service) ModalSplitReport(ctx context.Context) (string, error) {
	res, err := s.ModalSplit(ctx)
	if err != nil {
		return "", err
	}
	return report.Render(res), nil
}

func (s *service) ModalSplit(ctx context.Context) (flow.Result, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return flow.Result{}, err
	}
	return flow.Accrue(snap)
}

// snapshot reads all inputs once so a single preview never mixes two
// versions of the scenario.
func (s *service) snapshot(ctx context.Context) (flow.Snapshot, error) {
	table, err := s.inputs.Distribution(ctx)
	if err != nil {
		return flow.Snapshot{}, err
	}
	w, err := s.inputs.Window(ctx)
	if err != nil {
		return flow.Snapshot{}, err
	}
	schedules, err := s.inputs.Schedules(ctx)
	if err != nil {
		return flow.Snapshot{}, err
	}
	return flow.Snapshot{
		Window:       w,
		Schedules:    schedules,
		Distribution: table,
	}, nil
}
