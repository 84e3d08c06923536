package ipc

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"coffer/internal/command"
	"coffer/internal/daemon"
	"coffer/internal/faults"
	"coffer/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Coffer", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) authorize(token string) error {
	expected := s.daemon.Token()
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return errors.New("invalid access token")
	}
	return nil
}

// Run executes one command. Command faults travel inside the response
// envelope; only transport-level problems (bad token) use the RPC error path.
func (s *service) Run(req RunRequest, resp *RunResponse) error {
	if err := s.authorize(req.Token); err != nil {
		return err
	}

	s.logger.Debug("command dispatched",
		logging.String(logging.FieldCommand, req.Command))

	cmdReq := &command.Request{
		Command: req.Command,
		Args:    req.Args,
		Kwargs:  req.Kwargs,
		WorkDir: req.WorkDir,
	}
	result, err := s.daemon.Execute(s.ctx, cmdReq, req.WalletPath, req.Password)
	if err != nil {
		fault := faults.Ensure(err)
		if fault.Kind == faults.KindInternal {
			s.logger.Error("command failed",
				logging.String(logging.FieldCommand, req.Command),
				logging.Error(err))
		}
		resp.Error = FromFault(fault)
		return nil
	}
	resp.Result = result
	return nil
}

// Status reports daemon runtime information.
func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	if err := s.authorize(req.Token); err != nil {
		return err
	}
	resp.Running = s.daemon.Running()
	resp.PID = os.Getpid()
	resp.Info = s.daemon.Info(s.ctx)
	return nil
}
