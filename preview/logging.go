package preview

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/flowpreview/flow"
)

type loggingService struct {
	logger log.Logger
	Service
}

// NewLoggingService returns a new instance of a logging Service.
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{logger, s}
}

func (s *loggingService) ModalSplitReport(ctx context.Context) (text string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "modal_split_report",
			"bytes", len(text),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.ModalSplitReport(ctx)
}

func (s *loggingService) ModalSplit(ctx context.Context) (res flow.Result, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "modal_split",
			"transshipment", res.Transshipment,
			"hinterland", res.Hinterland,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.ModalSplit(ctx)
}
