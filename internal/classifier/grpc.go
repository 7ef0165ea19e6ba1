package classifier

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// The sidecar exposes a single unary method whose request and response are
// google.protobuf.Struct values:
//
//	request:  {"text": "...", "max_length": 128}
//	response: {"logits": [..]}
const (
	serviceName    = "emotion.v1.EmotionClassifier"
	classifyMethod = "/" + serviceName + "/Classify"
)

type GRPCBackend struct {
	conn *grpc.ClientConn
}

func NewGRPCBackend(addr string, opts ...grpc.DialOption) (*GRPCBackend, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(4*1024*1024),
			grpc.MaxCallSendMsgSize(4*1024*1024),
		),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to classifier service: %w", err)
	}

	return &GRPCBackend{conn: conn}, nil
}

func (b *GRPCBackend) Logits(ctx context.Context, text string, maxLength int) ([]float64, error) {
	req, err := structpb.NewStruct(map[string]any{
		"text":       text,
		"max_length": maxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := b.conn.Invoke(ctx, classifyMethod, req, resp); err != nil {
		return nil, fmt.Errorf("classifier rpc failed: %w", err)
	}

	return logitsFromStruct(resp)
}

func (b *GRPCBackend) Close() error {
	return b.conn.Close()
}

// LogitsFunc is the model behind a sidecar. It implements LogitsServer.
type LogitsFunc func(ctx context.Context, text string, maxLength int) ([]float64, error)

func (f LogitsFunc) Classify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields["text"].GetStringValue()
	maxLength := int(fields["max_length"].GetNumberValue())

	logits, err := f(ctx, text, maxLength)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return logitsToStruct(logits)
}

// Logits lets a LogitsFunc be used directly as a Backend.
func (f LogitsFunc) Logits(ctx context.Context, text string, maxLength int) ([]float64, error) {
	return f(ctx, text, maxLength)
}

type LogitsServer interface {
	Classify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterLogitsServer(s grpc.ServiceRegistrar, srv LogitsServer) {
	s.RegisterService(&logitsServiceDesc, srv)
}

var logitsServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LogitsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Classify",
			Handler:    classifyHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "emotion/v1/classifier.proto",
}

func classifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogitsServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: classifyMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogitsServer).Classify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func logitsFromStruct(s *structpb.Struct) ([]float64, error) {
	v, ok := s.GetFields()["logits"]
	if !ok {
		return nil, ErrEmptyLogits
	}

	values := v.GetListValue().GetValues()
	logits := make([]float64, 0, len(values))
	for i, item := range values {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("logit %d is not a number", i)
		}
		logits = append(logits, n.NumberValue)
	}
	return logits, nil
}

func logitsToStruct(logits []float64) (*structpb.Struct, error) {
	list := make([]any, len(logits))
	for i, v := range logits {
		list[i] = v
	}
	return structpb.NewStruct(map[string]any{"logits": list})
}
