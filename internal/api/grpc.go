package api

import (
	"context"
	"encoding/base64"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/render"
)

// ConvertFullMethod is the gRPC method name of Convert.
const ConvertFullMethod = "/quizconv.v1.Converter/Convert"

// ConverterServer serves quizconv.v1.Converter. Requests and responses are
// google.protobuf.Struct values:
//
//	request:  topics, questions (base64), format, sort, allow_unknown_version
//	response: catalog_id, output (base64), cached
type ConverterServer interface {
	Convert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var converterServiceDesc = grpc.ServiceDesc{
	ServiceName: "quizconv.v1.Converter",
	HandlerType: (*ConverterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Convert",
			Handler:    convertHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quizconv/v1/converter.proto",
}

func RegisterConverterServer(s grpc.ServiceRegistrar, srv ConverterServer) {
	s.RegisterService(&converterServiceDesc, srv)
}

func convertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConverterServer).Convert(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConvertFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConverterServer).Convert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ConverterClient calls quizconv.v1.Converter.
type ConverterClient struct {
	cc grpc.ClientConnInterface
}

func NewConverterClient(cc grpc.ClientConnInterface) *ConverterClient {
	return &ConverterClient{cc: cc}
}

func (c *ConverterClient) Convert(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ConvertFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Convert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := convert.Request{Format: a.format}

	var err error
	if req.Topics, err = base64Field(in, "topics"); err != nil {
		return nil, err
	}
	if req.Questions, err = base64Field(in, "questions"); err != nil {
		return nil, err
	}

	fields := in.GetFields()
	if f := fields["format"].GetStringValue(); f != "" {
		req.Format = render.Format(f)
	}
	req.Sort = fields["sort"].GetBoolValue()
	req.AllowUnknownVersion = fields["allow_unknown_version"].GetBoolValue()

	res, err := a.cs.Convert(ctx, req)
	if err != nil {
		return nil, errors.Convert(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"catalog_id": res.CatalogID,
		"output":     base64.StdEncoding.EncodeToString(res.Output),
		"cached":     res.Cached,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return out, nil
}

func base64Field(s *structpb.Struct, name string) ([]byte, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("missing field %q", name))
	}

	b, err := base64.StdEncoding.DecodeString(v.GetStringValue())
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("field %q is not base64", name),
			errors.WithCause(err))
	}
	return b, nil
}
