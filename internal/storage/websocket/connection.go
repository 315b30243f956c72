package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	ws "github.com/gorilla/websocket"
)

const (
	outboxSize  = 4096
	ackBuffer   = 16
	writeWait   = 10 * time.Second
	ackTimeout  = 10 * time.Second
	redialTries = 10
)

// redialInterval is the first wait before redialing a dropped stream.
var redialInterval = time.Second

var errLinkClosed = errors.New("websocket link closed")

// link is one logical stream to the server. A dropped socket is redialed and
// the hello message replayed on it, so queued envelopes survive the gap.
// Only the supervisor goroutine writes data frames.
type link struct {
	logger *slog.Logger
	outbox chan []byte
	acks   chan AckMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	conn   *ws.Conn
	target string
	hello  []byte

	dropped atomic.Int64
}

func newLink(logger *slog.Logger) *link {
	ctx, cancel := context.WithCancel(context.Background())
	return &link{
		logger: logger,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan AckMessage, ackBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// streamURL appends the api key as a query parameter.
func streamURL(raw, apiKey string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("apiKey", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func dial(ctx context.Context, target string) (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// open dials, starts the supervisor and sends hello, waiting for the server
// to ack helloType.
func (l *link) open(rawURL, apiKey string, hello []byte, helloType string) error {
	target, err := streamURL(rawURL, apiKey)
	if err != nil {
		return err
	}
	conn, err := dial(l.ctx, target)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.target = target
	l.hello = hello
	l.conn = conn
	l.mu.Unlock()

	l.wg.Add(1)
	go l.supervise(conn)

	return l.request(hello, helloType, ackTimeout)
}

func (l *link) connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

func (l *link) setConn(c *ws.Conn) {
	l.mu.Lock()
	l.conn = c
	l.mu.Unlock()
}

// supervise serves one socket at a time until the link is closed or the
// server stays unreachable past the redial budget.
func (l *link) supervise(conn *ws.Conn) {
	defer l.wg.Done()
	for {
		err := l.serve(conn)
		l.setConn(nil)
		_ = conn.Close()
		if l.ctx.Err() != nil {
			return
		}

		l.logger.Warn("WebSocket stream interrupted", "error", err)
		if conn, err = l.redial(); err != nil {
			l.logger.Error("WebSocket reconnect gave up", "error", err, "maxAttempts", redialTries)
			return
		}
		l.setConn(conn)
		l.logger.Info("WebSocket reconnected")
	}
}

func (l *link) serve(conn *ws.Conn) error {
	readErr := make(chan error, 1)
	go func() { readErr <- l.readAcks(conn) }()

	for {
		select {
		case <-l.ctx.Done():
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		case err := <-readErr:
			return err
		case data := <-l.outbox:
			if err := writeText(conn, data); err != nil {
				return err
			}
		}
	}
}

func writeText(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// readAcks forwards acks until the socket fails. Other server messages are
// ignored.
func (l *link) readAcks(conn *ws.Conn) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ack AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			l.logger.Debug("Non-ack message received", "raw", string(message))
			continue
		}
		select {
		case l.acks <- ack:
		default:
			l.logger.Debug("Ack buffer full, dropping", "for", ack.For)
		}
	}
}

func (l *link) redial() (*ws.Conn, error) {
	l.mu.Lock()
	target, hello := l.target, l.hello
	l.mu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = redialInterval
	policy.MaxInterval = 30 * time.Second

	return backoff.Retry(l.ctx, func() (*ws.Conn, error) {
		conn, err := dial(l.ctx, target)
		if err != nil {
			return nil, err
		}
		if hello != nil {
			if err := writeText(conn, hello); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("replay session: %w", err)
			}
		}
		return conn, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(redialTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.logger.Info("Reconnecting to WebSocket", "error", err, "retryIn", next)
		}),
	)
}

// send queues data without blocking. A full outbox drops the message.
func (l *link) send(data []byte) {
	select {
	case l.outbox <- data:
	default:
		l.dropped.Add(1)
		l.logger.Warn("WebSocket outbox full, dropping message")
	}
}

// request sends data and waits for the server to ack ackFor.
func (l *link) request(data []byte, ackFor string, timeout time.Duration) error {
	l.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-l.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-l.ctx.Done():
			return fmt.Errorf("%w while waiting for ack of %q", errLinkClosed, ackFor)
		}
	}
}

// close stops the supervisor after it sends a close frame. Safe to call
// more than once, and before open.
func (l *link) close() {
	l.cancel()
	l.wg.Wait()
}
