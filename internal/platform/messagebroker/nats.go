package messagebroker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsClient wraps a core NATS connection used for fire-and-forget event publishing.
type NatsClient struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsClient connects to natsURL (e.g. "nats://localhost:4222") and reconnects forever.
func NewNatsClient(natsURL, appName string, logger *slog.Logger) (*NatsClient, error) {
	logger = logger.With("component", "nats")
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed", "last_error", nc.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsClient{conn: nc, logger: logger}, nil
}

// Publish sends data on subject. The context is only checked before publishing;
// core NATS publishes are buffered and do not block on the server.
func (c *NatsClient) Publish(ctx context.Context, subject string, data []byte) error {
	if c == nil || c.conn == nil {
		return errors.New("nats client not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (c *NatsClient) Close() {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS drain failed", "error", err)
		c.conn.Close()
	}
}
