package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const BookingServiceName = "easyapt.v1.BookingService"

const (
	BookingService_ListProviders_FullMethodName     = "/" + BookingServiceName + "/ListProviders"
	BookingService_GetProvider_FullMethodName       = "/" + BookingServiceName + "/GetProvider"
	BookingService_CreateProvider_FullMethodName    = "/" + BookingServiceName + "/CreateProvider"
	BookingService_SetWeeklyHours_FullMethodName    = "/" + BookingServiceName + "/SetWeeklyHours"
	BookingService_AddBlackout_FullMethodName       = "/" + BookingServiceName + "/AddBlackout"
	BookingService_DeleteBlackout_FullMethodName    = "/" + BookingServiceName + "/DeleteBlackout"
	BookingService_GetAvailability_FullMethodName   = "/" + BookingServiceName + "/GetAvailability"
	BookingService_BookAppointment_FullMethodName   = "/" + BookingServiceName + "/BookAppointment"
	BookingService_CancelAppointment_FullMethodName = "/" + BookingServiceName + "/CancelAppointment"
	BookingService_DescribeTimeZone_FullMethodName  = "/" + BookingServiceName + "/DescribeTimeZone"
)

type BookingServiceServer interface {
	ListProviders(context.Context, *ListProvidersRequest) (*ListProvidersResponse, error)
	GetProvider(context.Context, *GetProviderRequest) (*GetProviderResponse, error)
	CreateProvider(context.Context, *CreateProviderRequest) (*CreateProviderResponse, error)
	SetWeeklyHours(context.Context, *SetWeeklyHoursRequest) (*SetWeeklyHoursResponse, error)
	AddBlackout(context.Context, *AddBlackoutRequest) (*AddBlackoutResponse, error)
	DeleteBlackout(context.Context, *DeleteBlackoutRequest) (*DeleteBlackoutResponse, error)
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error)
	DescribeTimeZone(context.Context, *DescribeTimeZoneRequest) (*DescribeTimeZoneResponse, error)
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

// BookingService_ServiceDesc is declared by hand; messages travel through Codec rather
// than protobuf.
var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: BookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProviders", Handler: unaryHandler(BookingService_ListProviders_FullMethodName, BookingServiceServer.ListProviders)},
		{MethodName: "GetProvider", Handler: unaryHandler(BookingService_GetProvider_FullMethodName, BookingServiceServer.GetProvider)},
		{MethodName: "CreateProvider", Handler: unaryHandler(BookingService_CreateProvider_FullMethodName, BookingServiceServer.CreateProvider)},
		{MethodName: "SetWeeklyHours", Handler: unaryHandler(BookingService_SetWeeklyHours_FullMethodName, BookingServiceServer.SetWeeklyHours)},
		{MethodName: "AddBlackout", Handler: unaryHandler(BookingService_AddBlackout_FullMethodName, BookingServiceServer.AddBlackout)},
		{MethodName: "DeleteBlackout", Handler: unaryHandler(BookingService_DeleteBlackout_FullMethodName, BookingServiceServer.DeleteBlackout)},
		{MethodName: "GetAvailability", Handler: unaryHandler(BookingService_GetAvailability_FullMethodName, BookingServiceServer.GetAvailability)},
		{MethodName: "BookAppointment", Handler: unaryHandler(BookingService_BookAppointment_FullMethodName, BookingServiceServer.BookAppointment)},
		{MethodName: "CancelAppointment", Handler: unaryHandler(BookingService_CancelAppointment_FullMethodName, BookingServiceServer.CancelAppointment)},
		{MethodName: "DescribeTimeZone", Handler: unaryHandler(BookingService_DescribeTimeZone_FullMethodName, BookingServiceServer.DescribeTimeZone)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "easyapt/v1/booking.proto",
}

func unaryHandler[Req, Resp any](fullMethod string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BookingServiceClient calls BookingService with the JSON codec selected on every call.
type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) ListProviders(ctx context.Context, in *ListProvidersRequest, opts ...grpc.CallOption) (*ListProvidersResponse, error) {
	return invoke[ListProvidersResponse](ctx, c.cc, BookingService_ListProviders_FullMethodName, in, opts)
}

func (c *BookingServiceClient) GetProvider(ctx context.Context, in *GetProviderRequest, opts ...grpc.CallOption) (*GetProviderResponse, error) {
	return invoke[GetProviderResponse](ctx, c.cc, BookingService_GetProvider_FullMethodName, in, opts)
}

func (c *BookingServiceClient) CreateProvider(ctx context.Context, in *CreateProviderRequest, opts ...grpc.CallOption) (*CreateProviderResponse, error) {
	return invoke[CreateProviderResponse](ctx, c.cc, BookingService_CreateProvider_FullMethodName, in, opts)
}

func (c *BookingServiceClient) SetWeeklyHours(ctx context.Context, in *SetWeeklyHoursRequest, opts ...grpc.CallOption) (*SetWeeklyHoursResponse, error) {
	return invoke[SetWeeklyHoursResponse](ctx, c.cc, BookingService_SetWeeklyHours_FullMethodName, in, opts)
}

func (c *BookingServiceClient) AddBlackout(ctx context.Context, in *AddBlackoutRequest, opts ...grpc.CallOption) (*AddBlackoutResponse, error) {
	return invoke[AddBlackoutResponse](ctx, c.cc, BookingService_AddBlackout_FullMethodName, in, opts)
}

func (c *BookingServiceClient) DeleteBlackout(ctx context.Context, in *DeleteBlackoutRequest, opts ...grpc.CallOption) (*DeleteBlackoutResponse, error) {
	return invoke[DeleteBlackoutResponse](ctx, c.cc, BookingService_DeleteBlackout_FullMethodName, in, opts)
}

func (c *BookingServiceClient) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error) {
	return invoke[GetAvailabilityResponse](ctx, c.cc, BookingService_GetAvailability_FullMethodName, in, opts)
}

func (c *BookingServiceClient) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error) {
	return invoke[BookAppointmentResponse](ctx, c.cc, BookingService_BookAppointment_FullMethodName, in, opts)
}

func (c *BookingServiceClient) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error) {
	return invoke[CancelAppointmentResponse](ctx, c.cc, BookingService_CancelAppointment_FullMethodName, in, opts)
}

func (c *BookingServiceClient) DescribeTimeZone(ctx context.Context, in *DescribeTimeZoneRequest, opts ...grpc.CallOption) (*DescribeTimeZoneResponse, error) {
	return invoke[DescribeTimeZoneResponse](ctx, c.cc, BookingService_DescribeTimeZone_FullMethodName, in, opts)
}
