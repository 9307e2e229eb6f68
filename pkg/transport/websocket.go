package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/protocol"
)

// ErrOriginNotAllowed rejects cross-site upgrade attempts.
var ErrOriginNotAllowed = errors.New("transport: origin not allowed")

// WebSocketConfig configures WebSocket security settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of allowed origins for WebSocket connections.
	// If empty and InsecureDevMode is false, only same-origin connections are allowed.
	AllowedOrigins []string

	// InsecureDevMode disables origin validation (ONLY for development).
	InsecureDevMode bool
}

// DefaultWebSocketConfig returns secure default configuration.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{}
}

// WebSocketTransport implements Transport over a coder/websocket
// connection.
type WebSocketTransport struct {
	*queues
	conn     *websocket.Conn
	codec    protocol.Codec
	wsConfig *WebSocketConfig
	logger   logging.Logger
	mu       sync.Mutex
}

// NewWebSocketTransport creates a new WebSocket transport. A nil codec
// selects JSON.
func NewWebSocketTransport(cfg Config, wsConfig *WebSocketConfig, codec protocol.Codec) *WebSocketTransport {
	if wsConfig == nil {
		wsConfig = DefaultWebSocketConfig()
	}
	if codec == nil {
		codec = protocol.NewJSONCodec()
	}
	return &WebSocketTransport{
		queues:   newQueues(cfg),
		codec:    codec,
		wsConfig: wsConfig,
		logger:   logging.NopLogger{},
	}
}

// SetLogger sets the logger used for dropped frames and read errors.
func (t *WebSocketTransport) SetLogger(l logging.Logger) {
	t.logger = l
}

// Codec returns the wire codec.
func (t *WebSocketTransport) Codec() protocol.Codec {
	return t.codec
}

// isOriginAllowed checks if the origin is allowed for WebSocket connections.
func (t *WebSocketTransport) isOriginAllowed(origin string, requestHost string) bool {
	if t.wsConfig.InsecureDevMode {
		return true
	}

	// Empty origin = non-browser client
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}

	return false
}

// originPatterns converts the allow list to the host patterns accepted by
// websocket.Accept.
func (t *WebSocketTransport) originPatterns() []string {
	patterns := make([]string, 0, len(t.wsConfig.AllowedOrigins))
	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}

// Upgrade upgrades an HTTP connection to WebSocket (server-side).
// Validates origin header to prevent WebSocket hijacking attacks.
func (t *WebSocketTransport) Upgrade(w http.ResponseWriter, r *http.Request) error {
	if !t.isOriginAllowed(r.Header.Get("Origin"), r.Host) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: t.wsConfig.InsecureDevMode,
		OriginPatterns:     t.originPatterns(),
	})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}

	t.start(conn)
	return nil
}

// Dial connects to a WebSocket server (client-side).
func (t *WebSocketTransport) Dial(ctx context.Context, rawURL string, header http.Header) error {
	conn, _, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	t.start(conn)
	return nil
}

func (t *WebSocketTransport) start(conn *websocket.Conn) {
	conn.SetReadLimit(t.cfg.MaxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.setConnected(true)
	t.mu.Unlock()

	go t.readLoop()
	go t.writeLoop()
	go t.pingLoop()
}

// Send queues a message for the write loop.
func (t *WebSocketTransport) Send(msg *protocol.Message) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(t.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case t.out <- msg:
		return nil
	case <-t.done:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// Close closes the WebSocket connection.
func (t *WebSocketTransport) Close() error {
	t.shut()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "closing")
		t.conn = nil
		return err
	}
	return nil
}

func (t *WebSocketTransport) getConn() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

// readLoop reads messages from the WebSocket.
func (t *WebSocketTransport) readLoop() {
	defer t.Close()

	for {
		conn := t.getConn()
		if conn == nil {
			return
		}

		ctx, cancel := t.readContext()
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				t.logger.Debug("websocket read ended", logging.Err(err))
			}
			return
		}

		msg, err := t.codec.Decode(data)
		if err != nil {
			t.logger.Debug("dropping undecodable frame", logging.Err(err))
			continue
		}

		select {
		case t.in <- msg:
		case <-t.done:
			return
		}
	}
}

// writeLoop writes messages to the WebSocket.
func (t *WebSocketTransport) writeLoop() {
	typ := websocket.MessageText
	if t.codec.Binary() {
		typ = websocket.MessageBinary
	}

	for {
		select {
		case msg := <-t.out:
			conn := t.getConn()
			if conn == nil {
				return
			}

			data, err := t.codec.Encode(msg)
			if err != nil {
				t.logger.Warn("dropping unencodable message",
					logging.String("event", msg.Event),
					logging.Err(err),
				)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.cfg.WriteTimeout)
			err = conn.Write(ctx, typ, data)
			cancel()

			if err != nil {
				t.Close()
				return
			}

		case <-t.done:
			return
		}
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn := t.getConn()
			if conn == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), t.cfg.WriteTimeout)
			conn.Ping(ctx)
			cancel()
		case <-t.done:
			return
		}
	}
}
