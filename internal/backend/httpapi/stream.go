// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/logging"
)

// Reconnect defaults. The delay before attempt n is baseDelay * 2^(n-1).
const (
	DefaultReconnectDelay = time.Second
	DefaultMaxReconnects  = 5

	// ConnectionLostMessage is sent as a terminal error event when the
	// stream gives up reconnecting.
	ConnectionLostMessage = "Connection lost. Please refresh the page."

	streamBuffer = 64
	maxFrameSize = 1 << 20
)

// =============================================================================
// STREAM CLIENT
// =============================================================================

// StreamClient reads server-push events from the WebSocket endpoint and
// reconnects with exponential backoff. It implements backend.StreamSource.
type StreamClient struct {
	url           string
	dialer        *websocket.Dialer
	baseDelay     time.Duration
	maxReconnects int
	log           logrus.FieldLogger

	events chan backend.StreamEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// StreamOption configures a StreamClient.
type StreamOption func(*StreamClient)

// WithReconnect sets the backoff base delay and the number of attempts
// made after a connection drops.
func WithReconnect(baseDelay time.Duration, maxAttempts int) StreamOption {
	return func(s *StreamClient) {
		if baseDelay > 0 {
			s.baseDelay = baseDelay
		}
		if maxAttempts >= 0 {
			s.maxReconnects = maxAttempts
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) StreamOption {
	return func(s *StreamClient) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithStreamLogger sets the logger.
func WithStreamLogger(l logrus.FieldLogger) StreamOption {
	return func(s *StreamClient) { s.log = logging.OrDiscard(l) }
}

// StreamURL builds the WebSocket URL from cfg: WSURL when set, otherwise
// BaseURL with its scheme switched to ws/wss and /ws/chat appended.
// The token travels as a query parameter.
func StreamURL(cfg config.APIConfig) string {
	raw := cfg.WSURL
	if raw == "" {
		raw = strings.TrimSuffix(cfg.BaseURL, "/") + "/ws/chat"
		raw = strings.Replace(raw, "https://", "wss://", 1)
		raw = strings.Replace(raw, "http://", "ws://", 1)
	}
	if cfg.Token == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("token", cfg.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

// DialStream starts a StreamClient in the background. Connection failures
// are retried; when retries are exhausted a terminal error event carrying
// ConnectionLostMessage is delivered and the channel closes.
func DialStream(ctx context.Context, cfg config.APIConfig, opts ...StreamOption) *StreamClient {
	s := &StreamClient{
		url:           StreamURL(cfg),
		dialer:        &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		baseDelay:     DefaultReconnectDelay,
		maxReconnects: DefaultMaxReconnects,
		log:           logging.Discard(),
		events:        make(chan backend.StreamEvent, streamBuffer),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	go s.run()
	return s
}

// Events returns the event channel.
func (s *StreamClient) Events() <-chan backend.StreamEvent {
	return s.events
}

// Close stops the client and waits for the reader to exit.
func (s *StreamClient) Close() error {
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

// Connected reports whether a connection is currently open.
func (s *StreamClient) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// run owns the connection lifecycle and closes events on exit.
func (s *StreamClient) run() {
	defer close(s.done)
	defer close(s.events)

	attempts := 0
	for {
		connected := s.connectAndRead()
		if s.ctx.Err() != nil {
			return
		}
		if connected {
			attempts = 0
		}
		if attempts >= s.maxReconnects {
			s.log.WithField("attempts", attempts).Error("stream reconnect attempts exhausted")
			s.emit(backend.StreamEvent{Type: backend.EventError, Error: ConnectionLostMessage})
			return
		}
		attempts++
		delay := s.baseDelay * time.Duration(1<<(attempts-1))
		s.log.WithFields(logrus.Fields{"attempt": attempts, "delay": delay}).Warn("stream reconnecting")

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// connectAndRead dials once and pumps frames until the connection fails.
// Reports whether the dial succeeded.
func (s *StreamClient) connectAndRead() bool {
	conn, _, err := s.dialer.DialContext(s.ctx, s.url, nil)
	if err != nil {
		s.log.WithError(err).Debug("stream dial failed")
		return false
	}
	conn.SetReadLimit(maxFrameSize)

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		conn.Close()
		return true
	}
	s.conn = conn
	s.mu.Unlock()
	s.log.Debug("stream connected")

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				s.log.WithError(err).Info("stream closed")
			}
			return true
		}
		var ev backend.StreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.WithError(err).Warn("discarding malformed stream frame")
			continue
		}
		if !s.emit(ev) {
			return true
		}
	}
}

func (s *StreamClient) emit(ev backend.StreamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

var _ backend.StreamSource = (*StreamClient)(nil)
