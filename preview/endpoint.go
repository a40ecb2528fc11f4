package preview

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/flowpreview/flow"
)

type modalSplitReportRequest struct{}

type modalSplitReportResponse struct {
	Report string `json:"report,omitempty"`
	Err    error  `json:"error,omitempty"`
}

func (r modalSplitReportResponse) error() error { return r.Err }

func makeModalSplitReportEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(modalSplitReportRequest)
		text, err := s.ModalSplitReport(ctx)
		return modalSplitReportResponse{Report: text, Err: err}, nil
	}
}

type modalSplitRequest struct{}

type modalSplitResponse struct {
	Result *flow.Result `json:"modal_split,omitempty"`
	Err    error        `json:"error,omitempty"`
}

func (r modalSplitResponse) error() error { return r.Err }

func makeModalSplitEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(modalSplitRequest)
		res, err := s.ModalSplit(ctx)
		if err != nil {
			return modalSplitResponse{Err: err}, nil
		}
		return modalSplitResponse{Result: &res}, nil
	}
}

// Limits configures the rate limiter placed in front of every endpoint.
type Limits struct {
	PerSecond float64
	Burst     int
}

// DefaultLimits allows one request per second with bursts of 100.
var DefaultLimits = Limits{PerSecond: 1, Burst: 100}

// Set collects all of the endpoints that compose the preview service.
type Set struct {
	ModalSplitReportEndpoint endpoint.Endpoint
	ModalSplitEndpoint       endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, limits Limits, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	var modalSplitReportEndpoint endpoint.Endpoint
	{
		modalSplitReportEndpoint = makeModalSplitReportEndpoint(svc)

		modalSplitReportEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(limits.PerSecond), limits.Burst))(modalSplitReportEndpoint)
		modalSplitReportEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(modalSplitReportEndpoint)
		modalSplitReportEndpoint = opentracing.TraceServer(otTracer, "ModalSplitReport")(modalSplitReportEndpoint)
		if zipkinTracer != nil {
			modalSplitReportEndpoint = zipkin.TraceEndpoint(zipkinTracer, "ModalSplitReport")(modalSplitReportEndpoint)
		}
		modalSplitReportEndpoint = LoggingMiddleware(log.With(logger, "method", "ModalSplitReport"))(modalSplitReportEndpoint)
		modalSplitReportEndpoint = InstrumentingMiddleware(duration.With("method", "ModalSplitReport"))(modalSplitReportEndpoint)
	}

	var modalSplitEndpoint endpoint.Endpoint
	{
		modalSplitEndpoint = makeModalSplitEndpoint(svc)

		modalSplitEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(limits.PerSecond), limits.Burst))(modalSplitEndpoint)
		modalSplitEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(modalSplitEndpoint)
		modalSplitEndpoint = opentracing.TraceServer(otTracer, "ModalSplit")(modalSplitEndpoint)
		if zipkinTracer != nil {
			modalSplitEndpoint = zipkin.TraceEndpoint(zipkinTracer, "ModalSplit")(modalSplitEndpoint)
		}
		modalSplitEndpoint = LoggingMiddleware(log.With(logger, "method", "ModalSplit"))(modalSplitEndpoint)
		modalSplitEndpoint = InstrumentingMiddleware(duration.With("method", "ModalSplit"))(modalSplitEndpoint)
	}

	return Set{
		ModalSplitReportEndpoint: modalSplitReportEndpoint,
		ModalSplitEndpoint:       modalSplitEndpoint,
	}
}

// LoggingMiddleware logs failures of the transport and its middlewares.
// Business errors travel inside the response and are logged by the
// logging service.
func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				if err != nil {
					logger.Log("transport_error", err, "took", time.Since(begin))
				}
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// InstrumentingMiddleware records the duration of every request.
func InstrumentingMiddleware(duration metrics.Histogram) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				duration.With("success", fmt.Sprint(err == nil)).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// ModalSplitReport implements the service interface so Set can be used as a service
func (s Set) ModalSplitReport(ctx context.Context) (string, error) {
	resp, err := s.ModalSplitReportEndpoint(ctx, modalSplitReportRequest{})
	if err != nil {
		return "", err
	}
	response := resp.(modalSplitReportResponse)
	return response.Report, response.Err
}

// ModalSplit implements the service interface so Set can be used as a service
func (s Set) ModalSplit(ctx context.Context) (flow.Result, error) {
	resp, err := s.ModalSplitEndpoint(ctx, modalSplitRequest{})
	if err != nil {
		return flow.Result{}, err
	}
	response := resp.(modalSplitResponse)
	if response.Err != nil {
		return flow.Result{}, response.Err
	}
	return *response.Result, nil
}
