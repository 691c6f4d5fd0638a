package ipc

import (
	"net"
	"sync"

	"go.uber.org/zap"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one client session. Handlers run on the read loop, one
// envelope at a time.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	logger   *zap.Logger
	writeMu  sync.Mutex
	Client   string
}

func NewConnection(conn net.Conn, handlers map[string]Handler, logger *zap.Logger) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		logger:   logger.Named("ipc"),
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// ReadLoop blocks until the connection closes or errors. It owns the conn lifetime
// so callers don't need to track cleanup.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			c.logger.Info("connection read ended", zap.String("client", c.Client), zap.Error(err))
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			c.logger.Warn("no handler for message type", zap.String("type", env.Type))
			if err := c.Send(TypeError, ErrorMessage{Error: "unknown message type " + env.Type}); err != nil {
				return
			}
			continue
		}

		resp, err := handler(env)
		if err != nil {
			c.logger.Error("handler error", zap.String("type", env.Type), zap.Error(err))
			if err := c.Send(TypeError, ErrorMessage{Error: err.Error()}); err != nil {
				return
			}
			continue
		}

		if resp != nil {
			if err := c.write(*resp); err != nil {
				c.logger.Error("failed to send response", zap.String("type", resp.Type), zap.Error(err))
				return
			}
			c.logger.Debug("sent response", zap.String("type", resp.Type), zap.String("client", c.Client))
		}
	}
}
