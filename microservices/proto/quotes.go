// Package proto describes the quotes.v1.QuoteService RPC surface. Requests
// and responses are the well-known wrapper messages, so no generated message
// types are needed.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	QuoteServiceName           = "quotes.v1.QuoteService"
	QuoteServiceGetRandomQuote = "/quotes.v1.QuoteService/GetRandomQuote"
)

// QuoteServiceServer returns a quote whose length is at least the requested
// minimum.
type QuoteServiceServer interface {
	GetRandomQuote(ctx context.Context, minLength *wrapperspb.Int32Value) (*wrapperspb.StringValue, error)
}

type UnimplementedQuoteServiceServer struct{}

func (UnimplementedQuoteServiceServer) GetRandomQuote(context.Context, *wrapperspb.Int32Value) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRandomQuote not implemented")
}

func RegisterQuoteServiceServer(s grpc.ServiceRegistrar, srv QuoteServiceServer) {
	s.RegisterService(&QuoteServiceDesc, srv)
}

func getRandomQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QuoteServiceServer).GetRandomQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: QuoteServiceGetRandomQuote,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QuoteServiceServer).GetRandomQuote(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

var QuoteServiceDesc = grpc.ServiceDesc{
	ServiceName: QuoteServiceName,
	HandlerType: (*QuoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRandomQuote",
			Handler:    getRandomQuoteHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quotes/v1/quotes.proto",
}

type QuoteServiceClient interface {
	GetRandomQuote(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type quoteServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQuoteServiceClient(cc grpc.ClientConnInterface) QuoteServiceClient {
	return &quoteServiceClient{cc: cc}
}

func (c *quoteServiceClient) GetRandomQuote(ctx context.Context, in *wrapperspb.Int32Value, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, QuoteServiceGetRandomQuote, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
