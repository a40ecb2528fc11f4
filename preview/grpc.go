package preview

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	"github.com/go-kit/kit/transport"
	grpctransport "github.com/go-kit/kit/transport/grpc"

	"github.com/golang/protobuf/ptypes/empty"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/golang/protobuf/ptypes/wrappers"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Qalifah/flowpreview/flow"
	"github.com/Qalifah/flowpreview/mode"
)

// ServiceName is the fully qualified gRPC service name of the preview.
const ServiceName = "flowpreview.Preview"

// PreviewServer is the gRPC surface of the preview service. Messages are
// protobuf well-known types.
type PreviewServer interface {
	ModalSplitReport(context.Context, *empty.Empty) (*wrappers.StringValue, error)
	ModalSplit(context.Context, *empty.Empty) (*structpb.Struct, error)
}

// RegisterPreviewServer registers srv with s.
func RegisterPreviewServer(s *grpc.Server, srv PreviewServer) {
	s.RegisterService(&previewServiceDesc, srv)
}

var previewServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PreviewServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ModalSplitReport", Handler: modalSplitReportHandler},
		{MethodName: "ModalSplit", Handler: modalSplitHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func modalSplitReportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PreviewServer).ModalSplitReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ModalSplitReport",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PreviewServer).ModalSplitReport(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func modalSplitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PreviewServer).ModalSplit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ModalSplit",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PreviewServer).ModalSplit(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type grpcServer struct {
	modalSplitReport grpctransport.Handler
	modalSplit       grpctransport.Handler
}

// NewGRPCServer makes a set of endpoints available on a grpc server
func NewGRPCServer(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) PreviewServer {
	options := []grpctransport.ServerOption{
		grpctransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCServerTrace(zipkinTracer))
	}

	return &grpcServer{
		modalSplitReport: grpctransport.NewServer(
			endpoints.ModalSplitReportEndpoint,
			decodeGRPCModalSplitReportRequest,
			encodeGRPCModalSplitReportResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "modalSplitReport", logger)))...,
		),
		modalSplit: grpctransport.NewServer(
			endpoints.ModalSplitEndpoint,
			decodeGRPCModalSplitRequest,
			encodeGRPCModalSplitResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "modalSplit", logger)))...,
		),
	}
}

func (s *grpcServer) ModalSplitReport(ctx context.Context, req *empty.Empty) (*wrappers.StringValue, error) {
	_, rep, err := s.modalSplitReport.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*wrappers.StringValue), nil
}

func (s *grpcServer) ModalSplit(ctx context.Context, req *empty.Empty) (*structpb.Struct, error) {
	_, rep, err := s.modalSplit.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

// NewGRPCClient returns a preview service backed by a grpc server at the other end of the conn
func NewGRPCClient(conn *grpc.ClientConn, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) Service {
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))
	var options []grpctransport.ClientOption
	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCClientTrace(zipkinTracer))
	}

	var modalSplitReportEndpoint endpoint.Endpoint
	{
		modalSplitReportEndpoint = grpctransport.NewClient(
			conn,
			ServiceName,
			"ModalSplitReport",
			encodeGRPCModalSplitReportRequest,
			decodeGRPCModalSplitReportResponse,
			wrappers.StringValue{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		modalSplitReportEndpoint = opentracing.TraceClient(otTracer, "ModalSplitReport")(modalSplitReportEndpoint)
		modalSplitReportEndpoint = limiter(modalSplitReportEndpoint)
		modalSplitReportEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ModalSplitReport",
			Timeout: 30 * time.Second,
		}))(modalSplitReportEndpoint)
	}

	var modalSplitEndpoint endpoint.Endpoint
	{
		modalSplitEndpoint = grpctransport.NewClient(
			conn,
			ServiceName,
			"ModalSplit",
			encodeGRPCModalSplitRequest,
			decodeGRPCModalSplitResponse,
			structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		modalSplitEndpoint = opentracing.TraceClient(otTracer, "ModalSplit")(modalSplitEndpoint)
		modalSplitEndpoint = limiter(modalSplitEndpoint)
		modalSplitEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ModalSplit",
			Timeout: 30 * time.Second,
		}))(modalSplitEndpoint)
	}

	return Set{
		ModalSplitReportEndpoint: modalSplitReportEndpoint,
		ModalSplitEndpoint:       modalSplitEndpoint,
	}
}

func decodeGRPCModalSplitReportRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	_ = grpcReq.(*empty.Empty)
	return modalSplitReportRequest{}, nil
}

func decodeGRPCModalSplitRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	_ = grpcReq.(*empty.Empty)
	return modalSplitRequest{}, nil
}

func encodeGRPCModalSplitReportResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(modalSplitReportResponse)
	if resp.Err != nil {
		return nil, grpcError(resp.Err)
	}
	return &wrappers.StringValue{Value: resp.Report}, nil
}

func encodeGRPCModalSplitResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(modalSplitResponse)
	if resp.Err != nil {
		return nil, grpcError(resp.Err)
	}
	return encodeResult(*resp.Result), nil
}

func encodeGRPCModalSplitReportRequest(_ context.Context, request interface{}) (interface{}, error) {
	_ = request.(modalSplitReportRequest)
	return &empty.Empty{}, nil
}

func encodeGRPCModalSplitRequest(_ context.Context, request interface{}) (interface{}, error) {
	_ = request.(modalSplitRequest)
	return &empty.Empty{}, nil
}

func decodeGRPCModalSplitReportResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	reply := grpcReply.(*wrappers.StringValue)
	return modalSplitReportResponse{Report: reply.Value}, nil
}

func decodeGRPCModalSplitResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	reply := grpcReply.(*structpb.Struct)
	res := decodeResult(reply)
	return modalSplitResponse{Result: &res}, nil
}

// grpcError turns a business error into a status carrying a matching code.
func grpcError(err error) error {
	switch statusCode(err) {
	case 409:
		return status.Error(codes.FailedPrecondition, err.Error())
	case 422:
		return status.Error(codes.InvalidArgument, err.Error())
	case 429:
		return status.Error(codes.ResourceExhausted, err.Error())
	case 503:
		return status.Error(codes.Unavailable, err.Error())
	}
	var serr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &serr) {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

func encodeResult(res flow.Result) *structpb.Struct {
	inbound := make(map[string]*structpb.Value, len(res.Inbound))
	for m, teu := range res.Inbound {
		inbound[m.String()] = numberValue(teu)
	}
	flows := make(map[string]*structpb.Value, len(res.Flow))
	for from, targets := range res.Flow {
		row := make(map[string]*structpb.Value, len(targets))
		for to, teu := range targets {
			row[to.String()] = numberValue(teu)
		}
		flows[from.String()] = structValue(row)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"inbound_capacity":     structValue(inbound),
		"flow":                 structValue(flows),
		"transshipment":        numberValue(res.Transshipment),
		"hinterland":           numberValue(res.Hinterland),
		"inbound_modal_split":  encodeSplit(res.InboundSplit),
		"outbound_modal_split": encodeSplit(res.OutboundSplit),
		"absolute_modal_split": encodeSplit(res.AbsoluteSplit),
	}}
}

func decodeResult(s *structpb.Struct) flow.Result {
	res := flow.Result{
		Inbound: make(map[mode.Mode]float64),
		Flow:    make(map[mode.Mode]map[mode.Mode]float64),
	}
	fields := s.GetFields()
	res.Transshipment = fields["transshipment"].GetNumberValue()
	res.Hinterland = fields["hinterland"].GetNumberValue()
	res.InboundSplit = decodeSplit(fields["inbound_modal_split"])
	res.OutboundSplit = decodeSplit(fields["outbound_modal_split"])
	res.AbsoluteSplit = decodeSplit(fields["absolute_modal_split"])

	for name, v := range fields["inbound_capacity"].GetStructValue().GetFields() {
		if m, err := mode.Parse(name); err == nil {
			res.Inbound[m] = v.GetNumberValue()
		}
	}
	for fromName, row := range fields["flow"].GetStructValue().GetFields() {
		from, err := mode.Parse(fromName)
		if err != nil {
			continue
		}
		res.Flow[from] = make(map[mode.Mode]float64)
		for toName, v := range row.GetStructValue().GetFields() {
			if to, err := mode.Parse(toName); err == nil {
				res.Flow[from][to] = v.GetNumberValue()
			}
		}
	}
	return res
}

func encodeSplit(s flow.Split) *structpb.Value {
	return structValue(map[string]*structpb.Value{
		"truck": numberValue(s.Truck),
		"barge": numberValue(s.Barge),
		"train": numberValue(s.Train),
	})
}

func decodeSplit(v *structpb.Value) flow.Split {
	fields := v.GetStructValue().GetFields()
	return flow.Split{
		Truck: fields["truck"].GetNumberValue(),
		Barge: fields["barge"].GetNumberValue(),
		Train: fields["train"].GetNumberValue(),
	}
}

func numberValue(f float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: f}}
}

func structValue(fields map[string]*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{Fields: fields}}}
}
