package rpc

import (
	"context"
	"errors"
	"time"

	"worksmart/internal/modules/capture/domain"
	captureout "worksmart/internal/modules/capture/port/out"
)

// ProviderServer serves a local Provider over the plugin protocol.
type ProviderServer struct {
	provider captureout.Provider
	meta     Metadata
}

func NewProviderServer(provider captureout.Provider, meta Metadata) *ProviderServer {
	return &ProviderServer{provider: provider, meta: meta}
}

var _ CaptureProviderServer = (*ProviderServer)(nil)

func (s *ProviderServer) GetMetadata(context.Context, *Empty) (*Metadata, error) {
	meta := s.meta
	return &meta, nil
}

func (s *ProviderServer) CaptureScreens(ctx context.Context, _ *Empty) (*CaptureScreensResponse, error) {
	shots, err := s.provider.CaptureAllMonitors(ctx)
	if err != nil {
		return nil, err
	}
	out := &CaptureScreensResponse{Images: make([]ScreenImage, 0, len(shots))}
	for _, shot := range shots {
		out.Images = append(out.Images, ScreenImage{Monitor: int32(shot.Monitor), PNG: shot.PNG, Error: shot.Err})
	}
	return out, nil
}

func (s *ProviderServer) Snapshot(ctx context.Context, in *SnapshotRequest) (*SnapshotResponse, error) {
	frame, err := s.provider.Snapshot(ctx, in.DeviceID, time.Duration(in.DelayMS)*time.Millisecond)
	switch {
	case err == nil:
		return &SnapshotResponse{PNG: frame}, nil
	case errors.Is(err, domain.ErrPermissionDenied):
		return &SnapshotResponse{ErrorCode: ErrorCodePermission, Error: err.Error()}, nil
	case errors.Is(err, domain.ErrDeviceNotFound):
		return &SnapshotResponse{ErrorCode: ErrorCodeDeviceNotFound, Error: err.Error()}, nil
	default:
		return nil, err
	}
}

func (s *ProviderServer) ListDevices(ctx context.Context, _ *Empty) (*ListDevicesResponse, error) {
	devices, err := s.provider.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListDevicesResponse{Devices: make([]Device, 0, len(devices))}
	for _, d := range devices {
		out.Devices = append(out.Devices, Device{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func (s *ProviderServer) FocusedWindow(ctx context.Context, _ *Empty) (*FocusedWindowResponse, error) {
	win, ok, err := s.provider.FocusedWindow(ctx)
	if err != nil {
		return nil, err
	}
	return &FocusedWindowResponse{Found: ok, AppName: win.AppName, Title: win.Title}, nil
}

func (s *ProviderServer) InputEvents(_ *Empty, stream InputEventSender) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()
	var sendErr error
	err := s.provider.Stream(ctx, func(ev domain.InputEvent) {
		if sendErr != nil {
			return
		}
		if sendErr = stream.Send(&InputEvent{Kind: string(ev.Kind), UnixMillis: ev.At.UnixMilli()}); sendErr != nil {
			cancel()
		}
	})
	if sendErr != nil {
		return sendErr
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
