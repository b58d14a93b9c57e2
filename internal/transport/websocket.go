package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
)

// ErrClosed is returned by Send and Receive after Close
var ErrClosed = errors.New("transport closed")

// Transport moves UTF-8 JSON text frames to and from the exchange
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// WebsocketTransport is a Transport over a gorilla websocket connection
type WebsocketTransport struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu      sync.Mutex
	writeTimeout time.Duration

	frames  chan []byte
	readErr error
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the exchange websocket at rawURL
func Dial(ctx context.Context, rawURL string, logger *zap.Logger) (*WebsocketTransport, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid websocket url %q: scheme must be ws or wss", rawURL)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", u.Host, err)
	}

	logger.Info("websocket connected", zap.String("host", u.Host))
	return NewWebsocketTransport(conn, logger, defaultPingInterval), nil
}

// NewWebsocketTransport wraps an established connection. A pingInterval of
// zero disables keepalive pings.
func NewWebsocketTransport(conn *websocket.Conn, logger *zap.Logger, pingInterval time.Duration) *WebsocketTransport {
	t := &WebsocketTransport{
		conn:         conn,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		frames:       make(chan []byte, 64),
		done:         make(chan struct{}),
	}
	go t.readLoop()
	if pingInterval > 0 {
		go t.pingLoop(pingInterval)
	}
	return t
}

// Send writes one text frame
func (t *WebsocketTransport) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(t.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Receive returns the next text frame. Once the connection fails every call
// returns the read error.
func (t *WebsocketTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-t.frames:
		if !ok {
			return nil, t.readErr
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close sends a close frame and tears down the connection
func (t *WebsocketTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = t.conn.Close()
	})
	return err
}

func (t *WebsocketTransport) readLoop() {
	defer close(t.frames)
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
				t.readErr = ErrClosed
			default:
				t.readErr = fmt.Errorf("failed to read frame: %w", err)
				t.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			t.logger.Debug("ignoring non-text frame", zap.Int("type", msgType))
			continue
		}

		select {
		case t.frames <- data:
		case <-t.done:
			t.readErr = ErrClosed
			return
		}
	}
}

func (t *WebsocketTransport) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeTimeout)); err != nil {
				t.logger.Warn("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}
