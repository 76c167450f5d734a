package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey        = "capture"
	serviceName         = "worksmart.capture.v1.CaptureProvider"
	jsonCodecName       = "json"
	methodGetMetadata   = "/" + serviceName + "/GetMetadata"
	methodCaptureScreen = "/" + serviceName + "/CaptureScreens"
	methodSnapshot      = "/" + serviceName + "/Snapshot"
	methodListDevices   = "/" + serviceName + "/ListDevices"
	methodFocusedWindow = "/" + serviceName + "/FocusedWindow"
	methodInputEvents   = "/" + serviceName + "/InputEvents"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "WORKSMART_CAPTURE_PLUGIN",
	MagicCookieValue: "worksmart",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type ScreenImage struct {
	Monitor int32  `json:"monitor"`
	PNG     []byte `json:"png,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CaptureScreensResponse struct {
	Images []ScreenImage `json:"images"`
}

type SnapshotRequest struct {
	DeviceID string `json:"device_id"`
	DelayMS  int64  `json:"delay_ms"`
}

// SnapshotResponse carries device failures as codes so the host can map them
// back onto its sentinel errors.
type SnapshotResponse struct {
	PNG       []byte `json:"png,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

const (
	ErrorCodePermission     = "permission_denied"
	ErrorCodeDeviceNotFound = "device_not_found"
)

type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
}

type FocusedWindowResponse struct {
	Found   bool   `json:"found"`
	AppName string `json:"app_name"`
	Title   string `json:"title"`
}

type InputEvent struct {
	Kind        string `json:"kind"`
	UnixMillis  int64  `json:"unix_millis"`
}

type InputEventSender interface {
	Send(*InputEvent) error
	Context() context.Context
}

type InputEventReceiver interface {
	Recv() (*InputEvent, error)
}

type CaptureProviderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	CaptureScreens(ctx context.Context, in *Empty) (*CaptureScreensResponse, error)
	Snapshot(ctx context.Context, in *SnapshotRequest) (*SnapshotResponse, error)
	ListDevices(ctx context.Context, in *Empty) (*ListDevicesResponse, error)
	FocusedWindow(ctx context.Context, in *Empty) (*FocusedWindowResponse, error)
	InputEvents(in *Empty, stream InputEventSender) error
}

type CaptureProviderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	CaptureScreens(ctx context.Context) (*CaptureScreensResponse, error)
	Snapshot(ctx context.Context, in *SnapshotRequest) (*SnapshotResponse, error)
	ListDevices(ctx context.Context) (*ListDevicesResponse, error)
	FocusedWindow(ctx context.Context) (*FocusedWindowResponse, error)
	InputEvents(ctx context.Context) (InputEventReceiver, error)
}

type captureProviderClient struct {
	conn *grpc.ClientConn
}

func NewCaptureProviderClient(conn *grpc.ClientConn) CaptureProviderClient {
	return &captureProviderClient{conn: conn}
}

func (c *captureProviderClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(jsonCodecName))
}

func (c *captureProviderClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.invoke(ctx, methodGetMetadata, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureProviderClient) CaptureScreens(ctx context.Context) (*CaptureScreensResponse, error) {
	out := &CaptureScreensResponse{}
	if err := c.invoke(ctx, methodCaptureScreen, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureProviderClient) Snapshot(ctx context.Context, in *SnapshotRequest) (*SnapshotResponse, error) {
	out := &SnapshotResponse{}
	if err := c.invoke(ctx, methodSnapshot, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureProviderClient) ListDevices(ctx context.Context) (*ListDevicesResponse, error) {
	out := &ListDevicesResponse{}
	if err := c.invoke(ctx, methodListDevices, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureProviderClient) FocusedWindow(ctx context.Context) (*FocusedWindowResponse, error) {
	out := &FocusedWindowResponse{}
	if err := c.invoke(ctx, methodFocusedWindow, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

var inputEventsStreamDesc = grpc.StreamDesc{
	StreamName:    "InputEvents",
	ServerStreams: true,
}

func (c *captureProviderClient) InputEvents(ctx context.Context) (InputEventReceiver, error) {
	stream, err := c.conn.NewStream(ctx, &inputEventsStreamDesc, methodInputEvents, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &inputEventsClient{stream: stream}, nil
}

type inputEventsClient struct {
	stream grpc.ClientStream
}

func (c *inputEventsClient) Recv() (*InputEvent, error) {
	out := &InputEvent{}
	if err := c.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

type inputEventsServer struct {
	stream grpc.ServerStream
}

func (s *inputEventsServer) Send(ev *InputEvent) error {
	return s.stream.SendMsg(ev)
}

func (s *inputEventsServer) Context() context.Context {
	return s.stream.Context()
}

func unary[Req any](method string, call func(ctx context.Context, in *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type")
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterCaptureProviderServer(server grpc.ServiceRegistrar, impl CaptureProviderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CaptureProviderServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetMetadata", func(ctx context.Context, in *Empty) (any, error) { return impl.GetMetadata(ctx, in) }),
			unary("CaptureScreens", func(ctx context.Context, in *Empty) (any, error) { return impl.CaptureScreens(ctx, in) }),
			unary("Snapshot", func(ctx context.Context, in *SnapshotRequest) (any, error) { return impl.Snapshot(ctx, in) }),
			unary("ListDevices", func(ctx context.Context, in *Empty) (any, error) { return impl.ListDevices(ctx, in) }),
			unary("FocusedWindow", func(ctx context.Context, in *Empty) (any, error) { return impl.FocusedWindow(ctx, in) }),
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "InputEvents",
				ServerStreams: true,
				Handler: func(_ any, stream grpc.ServerStream) error {
					in := &Empty{}
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return impl.InputEvents(in, &inputEventsServer{stream: stream})
				},
			},
		},
		Metadata: "schemas/capture-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CaptureProviderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCaptureProviderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCaptureProviderClient(conn), nil
}

func PluginMap(impl CaptureProviderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
