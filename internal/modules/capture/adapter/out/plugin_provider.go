package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	capturerpc "worksmart/internal/modules/capture/adapter/out/rpc"
	"worksmart/internal/modules/capture/domain"
	captureout "worksmart/internal/modules/capture/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginProvider runs a capture provider binary out of process and keeps it
// alive for the lifetime of the daemon.
type PluginProvider struct {
	binary string
	logger hclog.Logger

	mu     sync.Mutex
	client *plugin.Client
	rpc    capturerpc.CaptureProviderClient
	closed bool
}

func NewPluginProvider(binary string, logger hclog.Logger) *PluginProvider {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel})
	}
	return &PluginProvider{binary: binary, logger: logger}
}

var _ captureout.Provider = (*PluginProvider)(nil)

// Metadata starts the plugin if needed and asks it to describe itself.
func (p *PluginProvider) Metadata(ctx context.Context) (capturerpc.Metadata, error) {
	client, err := p.connect()
	if err != nil {
		return capturerpc.Metadata{}, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return capturerpc.Metadata{}, p.fail("get metadata", err)
	}
	return *meta, nil
}

func (p *PluginProvider) CaptureAllMonitors(ctx context.Context) ([]domain.ScreenImage, error) {
	client, err := p.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	resp, err := client.CaptureScreens(callCtx)
	if err != nil {
		return nil, p.fail("capture screens", err)
	}
	out := make([]domain.ScreenImage, 0, len(resp.Images))
	for _, img := range resp.Images {
		out = append(out, domain.ScreenImage{Monitor: int(img.Monitor), PNG: img.PNG, Err: img.Error})
	}
	return out, nil
}

func (p *PluginProvider) Snapshot(ctx context.Context, deviceID string, delay time.Duration) ([]byte, error) {
	client, err := p.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout+delay)
	defer cancel()
	resp, err := client.Snapshot(callCtx, &capturerpc.SnapshotRequest{DeviceID: deviceID, DelayMS: delay.Milliseconds()})
	if err != nil {
		return nil, p.fail("webcam snapshot", err)
	}
	switch resp.ErrorCode {
	case "":
		return resp.PNG, nil
	case capturerpc.ErrorCodePermission:
		return nil, fmt.Errorf("%w: %s", domain.ErrPermissionDenied, resp.Error)
	case capturerpc.ErrorCodeDeviceNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, resp.Error)
	default:
		return nil, fmt.Errorf("webcam snapshot: %s", resp.Error)
	}
}

func (p *PluginProvider) ListDevices(ctx context.Context) ([]domain.Device, error) {
	client, err := p.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	resp, err := client.ListDevices(callCtx)
	if err != nil {
		return nil, p.fail("list devices", err)
	}
	out := make([]domain.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		out = append(out, domain.Device{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func (p *PluginProvider) FocusedWindow(ctx context.Context) (domain.Window, bool, error) {
	client, err := p.connect()
	if err != nil {
		return domain.Window{}, false, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	resp, err := client.FocusedWindow(callCtx)
	if err != nil {
		return domain.Window{}, false, p.fail("focused window", err)
	}
	return domain.Window{AppName: resp.AppName, Title: resp.Title}, resp.Found, nil
}

func (p *PluginProvider) Stream(ctx context.Context, emit func(domain.InputEvent)) error {
	client, err := p.connect()
	if err != nil {
		return err
	}
	stream, err := client.InputEvents(ctx)
	if err != nil {
		return p.fail("open input stream", err)
	}
	for {
		ev, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return p.fail("input stream", err)
		}
		emit(domain.InputEvent{Kind: domain.InputKind(ev.Kind), At: time.UnixMilli(ev.UnixMillis).UTC()})
	}
}

func (p *PluginProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}

func (p *PluginProvider) connect() (capturerpc.CaptureProviderClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, domain.ErrProviderClosed
	}
	if p.client != nil && !p.client.Exited() {
		return p.rpc, nil
	}
	p.reset()

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  capturerpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          capturerpc.PluginMap(nil),
		Cmd:              exec.Command(p.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           p.logger,
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start capture plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(capturerpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense capture plugin: %w", err)
	}
	typed, ok := raw.(capturerpc.CaptureProviderClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("capture plugin rpc client type mismatch")
	}
	p.client = client
	p.rpc = typed
	return typed, nil
}

// fail drops a dead plugin process so the next call restarts it.
func (p *PluginProvider) fail(op string, err error) error {
	p.mu.Lock()
	if p.client != nil && p.client.Exited() {
		p.reset()
	}
	p.mu.Unlock()
	return fmt.Errorf("%s: %w", op, err)
}

func (p *PluginProvider) reset() {
	if p.client != nil {
		p.client.Kill()
	}
	p.client = nil
	p.rpc = nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
