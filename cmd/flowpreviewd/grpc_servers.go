package main

import (
	"github.com/go-kit/kit/log"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Qalifah/flowpreview/preview"
)

// gRPCServers provides access to the grpc servers in our application
type gRPCServers struct {
	preview preview.PreviewServer
	health  *health.Server
}

// newGRPCServers creates a new instance of gRPCServers
func newGRPCServers(previewSet preview.Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) gRPCServers {
	return gRPCServers{
		preview: preview.NewGRPCServer(previewSet, otTracer, zipkinTracer, log.With(logger, "transport", "gRPC")),
		health:  health.NewServer(),
	}
}

func (s gRPCServers) register(server *grpc.Server) {
	preview.RegisterPreviewServer(server, s.preview)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(preview.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, s.health)
}
