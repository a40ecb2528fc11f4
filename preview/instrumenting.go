package preview

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/Qalifah/flowpreview/flow"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		Service:        s,
	}
}

func (s *instrumentingService) ModalSplitReport(ctx context.Context) (string, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "modal_split_report").Add(1)
		s.requestLatency.With("method", "modal_split_report").Observe(time.Since(begin).Seconds())
	}(time.Now())
	return s.Service.ModalSplitReport(ctx)
}

func (s *instrumentingService) ModalSplit(ctx context.Context) (flow.Result, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "modal_split").Add(1)
		s.requestLatency.With("method", "modal_split").Observe(time.Since(begin).Seconds())
	}(time.Now())
	return s.Service.ModalSplit(ctx)
}
