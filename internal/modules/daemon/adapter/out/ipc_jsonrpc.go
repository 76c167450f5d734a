package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"strings"
	"time"

	"worksmart/internal/modules/daemon/domain"
	daemonout "worksmart/internal/modules/daemon/port/out"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
	apperrors "worksmart/internal/platform/errors"
)

const serviceName = "Worksmart"

const callDeadline = 10 * time.Second

type JSONRPCServer struct{}

type JSONRPCClient struct{}

func NewJSONRPCServer() daemonout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient() daemonout.IPCClient {
	return &JSONRPCClient{}
}

// Empty and StopSessionReq are exported because net/rpc only registers methods whose argument types are exported.
type Empty struct{}

type StopSessionReq struct {
	Mode string
}

// rpcHandler adapts IPCHandler to the net/rpc method shape.
type rpcHandler struct {
	ctx context.Context
	h   daemonout.IPCHandler
}

func (s *rpcHandler) StartSession(_ Empty, resp *sessiondto.SessionOutput) error {
	out, err := s.h.StartSession(s.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) StopSession(req StopSessionReq, resp *sessiondto.SessionOutput) error {
	out, err := s.h.StopSession(s.ctx, req.Mode)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) Session(_ Empty, resp *sessiondto.SessionOutput) error {
	out, err := s.h.Session(s.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) Today(_ Empty, resp *trackerdto.TodayOutput) error {
	out, err := s.h.Today(s.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) Status(_ Empty, resp *domain.Status) error {
	status, err := s.h.Status(s.ctx)
	if err != nil {
		return err
	}
	*resp = status
	return nil
}

func (s *rpcHandler) Stop(_ Empty, _ *Empty) error {
	return s.h.Stop(s.ctx)
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler daemonout.IPCHandler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(serviceName, &rpcHandler{ctx: context.WithoutCancel(ctx), h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) StartSession(ctx context.Context, socketPath string) (sessiondto.SessionOutput, error) {
	var resp sessiondto.SessionOutput
	err := call(ctx, socketPath, "StartSession", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) StopSession(ctx context.Context, socketPath string, mode string) (sessiondto.SessionOutput, error) {
	var resp sessiondto.SessionOutput
	err := call(ctx, socketPath, "StopSession", StopSessionReq{Mode: mode}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Session(ctx context.Context, socketPath string) (sessiondto.SessionOutput, error) {
	var resp sessiondto.SessionOutput
	err := call(ctx, socketPath, "Session", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Today(ctx context.Context, socketPath string) (trackerdto.TodayOutput, error) {
	var resp trackerdto.TodayOutput
	err := call(ctx, socketPath, "Today", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Status(ctx context.Context, socketPath string) (domain.Status, error) {
	var resp domain.Status
	err := call(ctx, socketPath, "Status", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Stop(ctx context.Context, socketPath string) error {
	return call(ctx, socketPath, "Stop", Empty{}, &Empty{})
}

func call(ctx context.Context, socketPath, method string, req, resp any) error {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Call(serviceName+"."+method, req, resp); err != nil {
		return remoteError(err)
	}
	return nil
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
	}
	_ = conn.SetDeadline(time.Now().Add(callDeadline))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}

// remoteError restores the sentinels that net/rpc flattens into strings.
func remoteError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	msg := string(serverErr)
	for _, sentinel := range []error{apperrors.ErrNoActiveSession, apperrors.ErrInvalidInput, apperrors.ErrNotFound} {
		if strings.Contains(msg, sentinel.Error()) {
			return fmt.Errorf("%w: %s", sentinel, msg)
		}
	}
	return err
}
