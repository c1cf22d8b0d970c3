package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const keepAlive = 30 * time.Second

// Acceptor hands out TCP connections from one listener. It is shared by
// consecutive games until Close.
type Acceptor struct {
	logger   *slog.Logger
	listener net.Listener
	once     sync.Once
}

// Listen opens a TCP listener on addr, e.g. ":4080".
func Listen(logger *slog.Logger, addr string) (*Acceptor, error) {
	lc := net.ListenConfig{KeepAlive: keepAlive}

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Acceptor{
		logger:   logger.With("component", "tcp"),
		listener: listener,
	}, nil
}

func (that *Acceptor) Addr() net.Addr {
	return that.listener.Addr()
}

// Accept blocks until a client connects or ctx is done.
func (that *Acceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	type result struct {
		conn net.Conn
		err  error
	}

	resCh := make(chan result, 1)
	go func() {
		conn, err := that.listener.Accept()
		resCh <- result{conn: conn, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return nil, fmt.Errorf("failed to accept: %w", res.err)
		}
		that.logger.Info("Client connected", "remote", res.conn.RemoteAddr().String())
		return res.conn, nil

	case <-ctx.Done():
		// unblocks the pending Accept; the listener cannot be reused afterwards
		that.Close()
		if res := <-resCh; res.conn != nil {
			_ = res.conn.Close()
		}
		return nil, ctx.Err()
	}
}

func (that *Acceptor) Close() {
	that.once.Do(func() {
		if err := that.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			that.logger.Error("failed to close listener", "error", err)
		}
	})
}

// Dial connects a client to a game server.
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := net.Dialer{KeepAlive: keepAlive}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return conn, nil
}
