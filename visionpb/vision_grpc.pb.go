package visionpb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ComputerVision_ProcessImage_FullMethodName      = "/visionpb.ComputerVision/ProcessImage"
	ComputerVision_ProcessImageBatch_FullMethodName = "/visionpb.ComputerVision/ProcessImageBatch"
)

// ComputerVisionClient is the client API for the ComputerVision service.
type ComputerVisionClient interface {
	ProcessImage(ctx context.Context, in *ImgProcRequest, opts ...grpc.CallOption) (*ImgProcResponse, error)
	ProcessImageBatch(ctx context.Context, opts ...grpc.CallOption) (ComputerVision_ProcessImageBatchClient, error)
}

type computerVisionClient struct {
	cc grpc.ClientConnInterface
}

func NewComputerVisionClient(cc grpc.ClientConnInterface) ComputerVisionClient {
	return &computerVisionClient{cc}
}

func (c *computerVisionClient) ProcessImage(ctx context.Context, in *ImgProcRequest, opts ...grpc.CallOption) (*ImgProcResponse, error) {
	out := new(ImgProcResponse)
	err := c.cc.Invoke(ctx, ComputerVision_ProcessImage_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *computerVisionClient) ProcessImageBatch(ctx context.Context, opts ...grpc.CallOption) (ComputerVision_ProcessImageBatchClient, error) {
	stream, err := c.cc.(interface {
		NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error)
	}).NewStream(ctx, &ComputerVision_ServiceDesc.Streams[0], ComputerVision_ProcessImageBatch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &computerVisionProcessImageBatchClient{stream}, nil
}

// ComputerVision_ProcessImageBatchClient is the bidirectional stream handle
// the gateway uses to push every image in a batch and read back
// descriptions in input order.
type ComputerVision_ProcessImageBatchClient interface {
	Send(*ImgProcRequest) error
	Recv() (*ImgProcResponse, error)
	grpc.ClientStream
}

type computerVisionProcessImageBatchClient struct {
	grpc.ClientStream
}

func (x *computerVisionProcessImageBatchClient) Send(m *ImgProcRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *computerVisionProcessImageBatchClient) Recv() (*ImgProcResponse, error) {
	m := new(ImgProcResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ComputerVisionServer is the server API for the ComputerVision service.
// The gateway never implements this — it is the vision backend's
// contract, listed here only so the stub is self-contained.
type ComputerVisionServer interface {
	ProcessImage(context.Context, *ImgProcRequest) (*ImgProcResponse, error)
	ProcessImageBatch(ComputerVision_ProcessImageBatchServer) error
}

type ComputerVision_ProcessImageBatchServer interface {
	Send(*ImgProcResponse) error
	Recv() (*ImgProcRequest, error)
	grpc.ServerStream
}

func _ComputerVision_ProcessImage_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ImgProcRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComputerVisionServer).ProcessImage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ComputerVision_ProcessImage_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComputerVisionServer).ProcessImage(ctx, req.(*ImgProcRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ComputerVision_ProcessImageBatch_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(ComputerVisionServer).ProcessImageBatch(&computerVisionProcessImageBatchServer{stream})
}

type computerVisionProcessImageBatchServer struct {
	grpc.ServerStream
}

func (x *computerVisionProcessImageBatchServer) Send(m *ImgProcResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *computerVisionProcessImageBatchServer) Recv() (*ImgProcRequest, error) {
	m := new(ImgProcRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ComputerVision_ServiceDesc is the grpc.ServiceDesc for the ComputerVision
// service, used to register a server implementation and to resolve the
// client's streaming method descriptor above.
var ComputerVision_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "visionpb.ComputerVision",
	HandlerType: (*ComputerVisionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessImage",
			Handler:    _ComputerVision_ProcessImage_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ProcessImageBatch",
			Handler:       _ComputerVision_ProcessImageBatch_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "vision.proto",
}
