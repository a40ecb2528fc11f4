package preview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
	"github.com/Qalifah/flowpreview/sqlite"
)

// MakeHandler returns a handler for the preview service.
func MakeHandler(endpoints Set, otTracer stdopentracing.Tracer, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}

	modalSplitReportHandler := kithttp.NewServer(
		endpoints.ModalSplitReportEndpoint,
		decodeModalSplitReportRequest,
		encodeTextResponse,
		append(opts, kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, "ModalSplitReport", logger)))...,
	)
	modalSplitHandler := kithttp.NewServer(
		endpoints.ModalSplitEndpoint,
		decodeModalSplitRequest,
		encodeResponse,
		append(opts, kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, "ModalSplit", logger)))...,
	)

	r.Handle("/preview/v1/modal-split", modalSplitReportHandler).Methods("GET")
	r.Handle("/preview/v1/modal-split.json", modalSplitHandler).Methods("GET")

	return r
}

func decodeModalSplitReportRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return modalSplitReportRequest{}, nil
}

func decodeModalSplitRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return modalSplitRequest{}, nil
}

func encodeTextResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := io.WriteString(w, response.(modalSplitReportResponse).Report)
	return err
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
	case errors.Is(err, distribution.ErrNotConfigured), errors.Is(err, schedule.ErrNoWindow),
		errors.Is(err, sqlite.ErrNoCurrentConnection):
		return http.StatusConflict
	case errors.As(err, &verr), errors.As(err, &cerr),
		errors.Is(err, schedule.ErrInvalidWindow), errors.Is(err, mode.ErrUnknown):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
