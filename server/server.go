// Package server exposes the compiler over a unix domain socket using the
// ipc framing.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nstehr/abilityc/compiler"
	"github.com/nstehr/abilityc/ipc"
	"github.com/nstehr/abilityc/prompt"
)

type Server struct {
	compiler *compiler.Compiler
	model    string
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New creates a server. model names the configured client for the hello
// reply; it is empty when the compiler runs heuristic only.
func New(c *compiler.Compiler, model string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{compiler: c, model: model, logger: logger.Named("server"), conns: map[net.Conn]struct{}{}}
}

// Listen binds a unix socket at path, removing a stale socket file first.
func Listen(path string) (net.Listener, error) {
	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("clean up socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and every open connection and waits for their handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer s.shutdown()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("failed to accept connection", zap.Error(err))
			continue
		}
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.HandleConn(ctx, conn)
		}()
	}
}

func (s *Server) track(conn net.Conn, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) shutdown() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// HandleConn serves one client until it disconnects.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	session := uuid.NewString()
	c := ipc.NewConnection(conn, nil, s.logger.With(zap.String("session", session)))
	c.RegisterHandler(ipc.TypeHello, s.handleHello(c))
	c.RegisterHandler(ipc.TypeCompile, s.handleCompile(ctx, session))
	s.logger.Info("new connection accepted", zap.String("session", session))
	c.ReadLoop()
}

// handleHello completes the handshake so the client knows which model answers.
func (s *Server) handleHello(c *ipc.Connection) ipc.Handler {
	return func(env ipc.Envelope) (*ipc.Envelope, error) {
		var hello ipc.HelloMessage
		if err := env.Decode(&hello); err != nil {
			return nil, err
		}
		c.Client = hello.Client
		s.logger.Info("client identified", zap.String("client", hello.Client))

		ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Model: s.model, Version: prompt.Version})
		if err != nil {
			return nil, err
		}
		return &ack, nil
	}
}

func (s *Server) handleCompile(ctx context.Context, session string) ipc.Handler {
	return func(env ipc.Envelope) (*ipc.Envelope, error) {
		var req ipc.CompileRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		s.logger.Info("compile requested",
			zap.String("session", session),
			zap.String("id", req.ID),
			zap.String("name", req.Input.Name),
			zap.String("game", string(req.Input.Game)),
		)

		res := s.compiler.Compile(ctx, req.Input, req.Provenance)
		out, err := ipc.NewEnvelope(ipc.TypeResult, ipc.CompileResult{
			ID:        req.ID,
			Script:    res.Script,
			UsedModel: res.UsedModel,
			Error:     res.Error,
		})
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
}
