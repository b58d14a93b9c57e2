package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/chaos"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/transport"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"go.uber.org/zap"
)

const maxLoggedFrame = 512

// Handler is called for every decoded inbound operation
type Handler func(ctx context.Context, op zigzag.Operation) error

// Stats counts session traffic
type Stats struct {
	Received     int64
	DecodeErrors int64
	Sent         int64
	Dropped      int64
}

// Session speaks the exchange protocol over a Transport
type Session struct {
	transport transport.Transport
	logger    *zap.Logger
	chaos     *chaos.Chaos

	statsInterval time.Duration

	received     int64
	decodeErrors int64
	sent         int64
	dropped      int64
}

// Option configures a Session
type Option func(*Session)

// WithChaos gates outbound frames through c
func WithChaos(c *chaos.Chaos) Option {
	return func(s *Session) { s.chaos = c }
}

// WithStatsInterval sets how often Run logs traffic counters. Zero disables it.
func WithStatsInterval(d time.Duration) Option {
	return func(s *Session) { s.statsInterval = d }
}

// New creates a session over t
func New(t transport.Transport, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		transport:     t,
		logger:        logger,
		statsInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates the connection for userID on chainID
func (s *Session) Login(ctx context.Context, chainID uint32, userID string) error {
	return s.Send(ctx, &zigzag.Login{ChainID: chainID, UserID: userID})
}

// Subscribe subscribes to market data for each market
func (s *Session) Subscribe(ctx context.Context, chainID uint32, markets ...string) error {
	for _, m := range markets {
		if err := s.Send(ctx, &zigzag.Subscribemarket{ChainID: chainID, Market: m}); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", m, err)
		}
	}
	return nil
}

// Send encodes op and writes it to the transport
func (s *Session) Send(ctx context.Context, op zigzag.Operation) error {
	frame, err := zigzag.Encode(op)
	if err != nil {
		return err
	}
	tag := zigzag.Tag(op)

	if s.chaos.MaybeDrop("outbound", tag) {
		atomic.AddInt64(&s.dropped, 1)
		return nil
	}
	if err := s.chaos.MaybeDelay(ctx, "outbound", tag); err != nil {
		return err
	}

	if err := s.transport.Send(ctx, frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", tag, err)
	}
	atomic.AddInt64(&s.sent, 1)
	s.logger.Debug("frame sent", zap.String("op", tag))
	return nil
}

// Run receives frames until ctx is cancelled or the transport fails.
// Frames that do not decode are logged and skipped. A handler error stops
// the loop and is returned.
func (s *Session) Run(ctx context.Context, handler Handler) error {
	if s.statsInterval > 0 {
		statsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.logStats(statsCtx)
	}

	for {
		frame, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to receive frame: %w", err)
		}
		atomic.AddInt64(&s.received, 1)

		op, err := zigzag.Decode(frame)
		if err != nil {
			atomic.AddInt64(&s.decodeErrors, 1)
			s.logDecodeError(frame, err)
			continue
		}

		if e, ok := op.(*zigzag.Error); ok {
			s.logger.Warn("exchange reported error",
				zap.String("operation", e.Operation),
				zap.String("message", e.Message),
			)
		}

		if err := handler(ctx, op); err != nil {
			return fmt.Errorf("handler failed for %s: %w", zigzag.Tag(op), err)
		}
	}
}

// Stats returns a snapshot of the traffic counters
func (s *Session) Stats() Stats {
	return Stats{
		Received:     atomic.LoadInt64(&s.received),
		DecodeErrors: atomic.LoadInt64(&s.decodeErrors),
		Sent:         atomic.LoadInt64(&s.sent),
		Dropped:      atomic.LoadInt64(&s.dropped),
	}
}

// Close closes the underlying transport
func (s *Session) Close() error {
	return s.transport.Close()
}

func (s *Session) logDecodeError(frame []byte, err error) {
	if len(frame) > maxLoggedFrame {
		frame = frame[:maxLoggedFrame]
	}
	fields := []zap.Field{zap.ByteString("frame", frame), zap.Error(err)}

	var de *zigzag.DecodeError
	if errors.As(err, &de) {
		fields = append(fields,
			zap.String("schema", de.Schema),
			zap.String("field", de.Field),
		)
	}
	s.logger.Warn("failed to decode frame", fields...)
}

func (s *Session) logStats(ctx context.Context) {
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.Stats()
			s.logger.Info("session stats",
				zap.Int64("received", st.Received),
				zap.Int64("decode_errors", st.DecodeErrors),
				zap.Int64("sent", st.Sent),
				zap.Int64("dropped", st.Dropped),
			)
		}
	}
}
