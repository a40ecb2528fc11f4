package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
	"github.com/Qalifah/flowpreview/sqlite"
)

// MakeHandler returns a handler for the scenario service.
func MakeHandler(s Service, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}

	setDistributionHandler := kithttp.NewServer(
		makeSetDistributionEndpoint(s),
		decodeSetDistributionRequest,
		encodeResponse,
		opts...,
	)
	distributionHandler := kithttp.NewServer(
		makeDistributionEndpoint(s),
		decodeDistributionRequest,
		encodeResponse,
		opts...,
	)
	setWindowHandler := kithttp.NewServer(
		makeSetWindowEndpoint(s),
		decodeSetWindowRequest,
		encodeResponse,
		opts...,
	)
	windowHandler := kithttp.NewServer(
		makeWindowEndpoint(s),
		decodeWindowRequest,
		encodeResponse,
		opts...,
	)
	addScheduleHandler := kithttp.NewServer(
		makeAddScheduleEndpoint(s),
		decodeAddScheduleRequest,
		encodeResponse,
		opts...,
	)
	listSchedulesHandler := kithttp.NewServer(
		makeListSchedulesEndpoint(s),
		decodeListSchedulesRequest,
		encodeResponse,
		opts...,
	)
	removeScheduleHandler := kithttp.NewServer(
		makeRemoveScheduleEndpoint(s),
		decodeRemoveScheduleRequest,
		encodeResponse,
		opts...,
	)

	listDatabasesHandler := kithttp.NewServer(
		makeListDatabasesEndpoint(s),
		decodeListDatabasesRequest,
		encodeResponse,
		opts...,
	)
	createDatabaseHandler := kithttp.NewServer(
		makeCreateDatabaseEndpoint(s),
		decodeCreateDatabaseRequest,
		encodeResponse,
		opts...,
	)
	loadDatabaseHandler := kithttp.NewServer(
		makeLoadDatabaseEndpoint(s),
		decodeLoadDatabaseRequest,
		encodeResponse,
		opts...,
	)
	closeDatabaseHandler := kithttp.NewServer(
		makeCloseDatabaseEndpoint(s),
		decodeCloseDatabaseRequest,
		encodeResponse,
		opts...,
	)

	r.Handle("/scenario/v1/distribution", setDistributionHandler).Methods("PUT")
	r.Handle("/scenario/v1/distribution", distributionHandler).Methods("GET")
	r.Handle("/scenario/v1/window", setWindowHandler).Methods("PUT")
	r.Handle("/scenario/v1/window", windowHandler).Methods("GET")
	r.Handle("/scenario/v1/schedules", addScheduleHandler).Methods("POST")
	r.Handle("/scenario/v1/schedules", listSchedulesHandler).Methods("GET")
	r.Handle("/scenario/v1/schedules/{id}", removeScheduleHandler).Methods("DELETE")
	r.Handle("/scenario/v1/databases", listDatabasesHandler).Methods("GET")
	r.Handle("/scenario/v1/databases", createDatabaseHandler).Methods("POST")
	r.Handle("/scenario/v1/databases/current", closeDatabaseHandler).Methods("DELETE")
	r.Handle("/scenario/v1/databases/{name}", loadDatabaseHandler).Methods("PUT")

	return r
}

var errBadRoute = errors.New("bad route")

func decodeSetDistributionRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Distribution distribution.Table `json:"distribution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return setDistributionRequest{Table: body.Distribution}, nil
}

func decodeDistributionRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return distributionRequest{}, nil
}

func decodeSetWindowRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body schedule.Window
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return setWindowRequest{Start: body.Start, End: body.End}, nil
}

func decodeWindowRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return windowRequest{}, nil
}

func decodeAddScheduleRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		VehicleType            mode.Mode `json:"vehicle_type"`
		ServiceName            string    `json:"service_name"`
		FirstArrival           time.Time `json:"first_arrival"`
		AverageVehicleCapacity float64   `json:"average_vehicle_capacity"`
		AverageMovedCapacity   float64   `json:"average_moved_capacity"`
		RecurrenceIntervalDays int       `json:"recurrence_interval_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return addScheduleRequest{
		VehicleType:     body.VehicleType,
		ServiceName:     body.ServiceName,
		FirstArrival:    body.FirstArrival,
		VehicleCapacity: body.AverageVehicleCapacity,
		MovedCapacity:   body.AverageMovedCapacity,
		IntervalDays:    body.RecurrenceIntervalDays,
	}, nil
}

func decodeListSchedulesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return listSchedulesRequest{}, nil
}

func decodeRemoveScheduleRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	id, ok := vars["id"]
	if !ok {
		return nil, errBadRoute
	}
	return removeScheduleRequest{ID: schedule.ID(id)}, nil
}

func decodeListDatabasesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return listDatabasesRequest{}, nil
}

func decodeCreateDatabaseRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return createDatabaseRequest{Name: body.Name}, nil
}

func decodeLoadDatabaseRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	name, ok := vars["name"]
	if !ok {
		return nil, errBadRoute
	}
	return loadDatabaseRequest{Name: name}, nil
}

func decodeCloseDatabaseRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return closeDatabaseRequest{}, nil
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

type errorer interface {
	error() error
}

// encode errors from business-logic
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode(err))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

func statusCode(err error) int {
	var (
		verr *distribution.ValidationError
		cerr *schedule.ConfigurationError
	)
	switch {
	case errors.Is(err, schedule.ErrUnknown), errors.Is(err, sqlite.ErrUnknownDatabase):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, errBadRoute),
		errors.As(err, &verr), errors.As(err, &cerr),
		errors.Is(err, schedule.ErrInvalidWindow), errors.Is(err, mode.ErrUnknown),
		errors.Is(err, sqlite.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, distribution.ErrNotConfigured), errors.Is(err, schedule.ErrNoWindow),
		errors.Is(err, sqlite.ErrNoCurrentConnection), errors.Is(err, sqlite.ErrDatabaseExists):
		return http.StatusConflict
	case errors.Is(err, ErrNoDatabases):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
