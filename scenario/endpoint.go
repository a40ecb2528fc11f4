package scenario

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

type setDistributionRequest struct {
	Table distribution.Table
}

type setDistributionResponse struct {
	Err error `json:"error,omitempty"`
}

func (r setDistributionResponse) error() error { return r.Err }

func makeSetDistributionEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(setDistributionRequest)
		err := s.SetDistribution(ctx, req.Table)
		return setDistributionResponse{Err: err}, nil
	}
}

type distributionRequest struct{}

type distributionResponse struct {
	Table distribution.Table `json:"distribution,omitempty"`
	Err   error              `json:"error,omitempty"`
}

func (r distributionResponse) error() error { return r.Err }

func makeDistributionEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(distributionRequest)
		t, err := s.Distribution(ctx)
		return distributionResponse{Table: t, Err: err}, nil
	}
}

type setWindowRequest struct {
	Start time.Time
	End   time.Time
}

type setWindowResponse struct {
	Err error `json:"error,omitempty"`
}

func (r setWindowResponse) error() error { return r.Err }

func makeSetWindowEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(setWindowRequest)
		err := s.SetWindow(ctx, req.Start, req.End)
		return setWindowResponse{Err: err}, nil
	}
}

type windowRequest struct{}

type windowResponse struct {
	Window *schedule.Window `json:"window,omitempty"`
	Err    error            `json:"error,omitempty"`
}

func (r windowResponse) error() error { return r.Err }

func makeWindowEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(windowRequest)
		w, err := s.Window(ctx)
		if err != nil {
			return windowResponse{Err: err}, nil
		}
		return windowResponse{Window: &w}, nil
	}
}

type addScheduleRequest struct {
	VehicleType     mode.Mode
	ServiceName     string
	FirstArrival    time.Time
	VehicleCapacity float64
	MovedCapacity   float64
	IntervalDays    int
}

type addScheduleResponse struct {
	ID  schedule.ID `json:"id,omitempty"`
	Err error       `json:"error,omitempty"`
}

func (r addScheduleResponse) error() error { return r.Err }

func makeAddScheduleEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(addScheduleRequest)
		id, err := s.AddSchedule(ctx, req.VehicleType, req.ServiceName, req.FirstArrival,
			req.VehicleCapacity, req.MovedCapacity, req.IntervalDays)
		return addScheduleResponse{ID: id, Err: err}, nil
	}
}

type listSchedulesRequest struct{}

type listSchedulesResponse struct {
	Schedules []schedule.Schedule `json:"schedules"`
	Err       error               `json:"error,omitempty"`
}

func (r listSchedulesResponse) error() error { return r.Err }

func makeListSchedulesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(listSchedulesRequest)
		schedules, err := s.Schedules(ctx)
		if schedules == nil {
			schedules = []schedule.Schedule{}
		}
		return listSchedulesResponse{Schedules: schedules, Err: err}, nil
	}
}

type removeScheduleRequest struct {
	ID schedule.ID
}

type removeScheduleResponse struct {
	Err error `json:"error,omitempty"`
}

func (r removeScheduleResponse) error() error { return r.Err }

func makeRemoveScheduleEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(removeScheduleRequest)
		err := s.RemoveSchedule(ctx, req.ID)
		return removeScheduleResponse{Err: err}, nil
	}
}

type listDatabasesRequest struct{}

type listDatabasesResponse struct {
	Databases []string `json:"databases"`
	Err       error    `json:"error,omitempty"`
}

func (r listDatabasesResponse) error() error { return r.Err }

func makeListDatabasesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(listDatabasesRequest)
		names, err := s.ListDatabases(ctx)
		if names == nil {
			names = []string{}
		}
		return listDatabasesResponse{Databases: names, Err: err}, nil
	}
}

type createDatabaseRequest struct {
	Name string
}

type loadDatabaseRequest struct {
	Name string
}

type closeDatabaseRequest struct{}

type databaseResponse struct {
	Err error `json:"error,omitempty"`
}

func (r databaseResponse) error() error { return r.Err }

func makeCreateDatabaseEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(createDatabaseRequest)
		err := s.CreateDatabase(ctx, req.Name)
		return databaseResponse{Err: err}, nil
	}
}

func makeLoadDatabaseEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadDatabaseRequest)
		err := s.LoadDatabase(ctx, req.Name)
		return databaseResponse{Err: err}, nil
	}
}

func makeCloseDatabaseEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(closeDatabaseRequest)
		err := s.CloseDatabase(ctx)
		return databaseResponse{Err: err}, nil
	}
}
