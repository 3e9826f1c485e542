// Package services implements the DockView gRPC services. Messages use the
// protobuf well-known types so no generated code is needed.
package services

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// LigandServiceName is the fully qualified service name.
const LigandServiceName = "dockview.v1.LigandService"

// OrderMetadataKey carries the optional score order of an Extract call.
const OrderMetadataKey = "x-score-order"

// LigandApplication is the slice of the viewer service exposed over gRPC.
type LigandApplication interface {
	Extract(text string, order ligand.ScoreOrder) ligand.Extraction
	Environment(ctx context.Context) docking.EnvironmentStatus
	Presets() []protein.Preset
}

// LigandServiceServer is the server API of dockview.v1.LigandService.
type LigandServiceServer interface {
	Extract(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	Environment(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Presets(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// LigandService implements LigandServiceServer.
type LigandService struct {
	app    LigandApplication
	logger logging.Logger
}

// NewLigandService creates a LigandService.
func NewLigandService(app LigandApplication, logger logging.Logger) *LigandService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LigandService{app: app, logger: logger.Named("grpc.ligand")}
}

// Extract parses the SDF text in req. The response mirrors the HTTP
// extraction body: blocks, count, records, skipped and order.
func (s *LigandService) Extract(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var order ligand.ScoreOrder
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(OrderMetadataKey); len(v) > 0 && v[0] != "" {
			o, err := ligand.ParseScoreOrder(v[0])
			if err != nil {
				return nil, ToStatus(errors.Wrap(err, errors.ErrCodeSortOrderInvalid, "invalid order"))
			}
			order = o
		}
	}

	ex := s.app.Extract(req.GetValue(), order)
	if ex.Order != "" {
		order = ex.Order
	}
	records := ex.Records
	if records == nil {
		records = []ligand.Record{}
	}
	return toStruct(map[string]interface{}{
		"blocks":  ex.Blocks,
		"count":   len(records),
		"records": records,
		"skipped": ex.Skipped,
		"order":   order,
	})
}

// Environment reports the docking tool status.
func (s *LigandService) Environment(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.app.Environment(ctx)
	return toStruct(map[string]interface{}{
		"tools": st,
		"ready": st.Ready(docking.StatusVina),
	})
}

// Presets lists the protein presets.
func (s *LigandService) Presets(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	presets := s.app.Presets()
	if presets == nil {
		presets = []protein.Preset{}
	}
	return toStruct(map[string]interface{}{"presets": presets})
}

// toStruct converts v through its JSON form so struct tags decide field names.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// ToStatus maps an application error to a gRPC status. Internal failures
// keep their code but not their message.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	code := errors.GetCode(err)
	msg := errors.DefaultMessageForCode(code)
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	switch code {
	case errors.ErrCodeBadRequest, errors.ErrCodeValidation,
		errors.ErrCodeLigandIndexInvalid, errors.ErrCodeSortOrderInvalid,
		errors.ErrCodeProteinEmpty, errors.ErrCodeBindingSiteInvalid:
		return status.Error(codes.InvalidArgument, msg)
	case errors.ErrCodeNotFound, errors.ErrCodeLigandNotFound,
		errors.ErrCodeProteinPresetNotFound, errors.ErrCodeSessionNotFound:
		return status.Error(codes.NotFound, msg)
	case errors.ErrCodeSessionNoProtein, errors.ErrCodeSessionNoLigands,
		errors.ErrCodeDockingPrerequisite:
		return status.Error(codes.FailedPrecondition, msg)
	case errors.ErrCodeConflict, errors.ErrCodeSessionLocked:
		return status.Error(codes.Aborted, msg)
	case errors.ErrCodeDockingToolMissing, errors.ErrCodeServiceUnavailable:
		return status.Error(codes.Unavailable, msg)
	case errors.ErrCodeDockingTimeout, errors.ErrCodeTimeout:
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.ErrCodeDockingNoResult, errors.ErrCodeDockingOutputInvalid:
		return status.Error(codes.Internal, msg)
	default:
		return status.Error(codes.Internal, errors.DefaultMessageForCode(errors.ErrCodeInternal))
	}
}

func _LigandService_Extract_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LigandServiceServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LigandServiceName + "/Extract"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LigandServiceServer).Extract(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _LigandService_Environment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LigandServiceServer).Environment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LigandServiceName + "/Environment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LigandServiceServer).Environment(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _LigandService_Presets_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LigandServiceServer).Presets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LigandServiceName + "/Presets"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LigandServiceServer).Presets(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// LigandServiceDesc describes dockview.v1.LigandService for grpc.Server.
var LigandServiceDesc = grpc.ServiceDesc{
	ServiceName: LigandServiceName,
	HandlerType: (*LigandServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: _LigandService_Extract_Handler},
		{MethodName: "Environment", Handler: _LigandService_Environment_Handler},
		{MethodName: "Presets", Handler: _LigandService_Presets_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dockview/v1/ligand.proto",
}

// LigandServiceClient calls dockview.v1.LigandService.
type LigandServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLigandServiceClient creates a client over cc.
func NewLigandServiceClient(cc grpc.ClientConnInterface) *LigandServiceClient {
	return &LigandServiceClient{cc: cc}
}

// Extract sends text for extraction. A non-empty order is passed as metadata.
func (c *LigandServiceClient) Extract(ctx context.Context, text string, order ligand.ScoreOrder, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if order != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, OrderMetadataKey, string(order))
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+LigandServiceName+"/Extract", wrapperspb.String(text), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Environment fetches the docking tool status.
func (c *LigandServiceClient) Environment(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+LigandServiceName+"/Environment", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Presets fetches the protein presets.
func (c *LigandServiceClient) Presets(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+LigandServiceName+"/Presets", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
