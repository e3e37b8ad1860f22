// Package feed subscribes to the host ledger node's transfer-notification
// stream and turns frames into settlement triggers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/observability"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// transferFrame is the wire shape of one transfer notification.
type transferFrame struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"` // canonical asset text, e.g. "10.0000 TOKA"
	Memo     string `json:"memo"`
	Contract string `json:"contract"` // source contract of the notification
}

// WSClient streams transfer notifications from a ledger node. Frames that
// fail to decode or carry malformed account identifiers are dropped and
// counted; they never reach the settlement engine.
type WSClient struct {
	endpoint string
	config   WSClientConfig
	metrics  *observability.Metrics
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	notices chan domain.TransferNotice

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient creates a new client and connects to the endpoint. The
// returned client delivers notices on Notices until Close is called.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig, metrics *observability.Metrics, logger *log.Logger) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
		notices:  make(chan domain.TransferNotice, 256),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Notices returns the channel of decoded transfer notifications.
func (c *WSClient) Notices() <-chan domain.TransferNotice {
	return c.notices
}

// Close shuts the client down and closes the notices channel.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.notices)
	return nil
}

// connect establishes WebSocket connection.
func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// readLoop reads frames and pushes decoded notices, reconnecting with
// exponential backoff on read errors.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Printf("Feed read error: %v", err)
			if !c.reconnect() {
				return
			}
			continue
		}

		notice, ok := c.decodeFrame(data)
		if !ok {
			continue
		}

		select {
		case c.notices <- notice:
		case <-c.done:
			return
		}
	}
}

// decodeFrame parses one frame into a TransferNotice. Returns false when
// the frame is malformed and was dropped.
func (c *WSClient) decodeFrame(data []byte) (domain.TransferNotice, bool) {
	var frame transferFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.dropFrame("bad_json", string(data))
		return domain.TransferNotice{}, false
	}

	quantity, err := domain.ParseAsset(frame.Quantity)
	if err != nil {
		c.dropFrame("bad_quantity", frame.Quantity)
		return domain.TransferNotice{}, false
	}

	for _, account := range []string{frame.From, frame.To, frame.Contract} {
		if !ValidAccount(account) {
			c.dropFrame("bad_account", account)
			return domain.TransferNotice{}, false
		}
	}

	return domain.TransferNotice{
		From:           frame.From,
		To:             frame.To,
		Quantity:       quantity,
		Memo:           frame.Memo,
		SourceContract: frame.Contract,
	}, true
}

func (c *WSClient) dropFrame(reason, detail string) {
	if c.metrics != nil {
		c.metrics.FeedFramesDropped.WithLabelValues(reason).Inc()
	}
	c.logger.Printf("Dropped feed frame (%s): %q", reason, detail)
}

// reconnect re-dials with exponential backoff. Returns false on shutdown.
func (c *WSClient) reconnect() bool {
	delay := c.config.ReconnectDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.connect(context.Background()); err != nil {
			c.logger.Printf("Feed reconnect failed: %v", err)
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			continue
		}

		if c.metrics != nil {
			c.metrics.FeedReconnects.Inc()
		}
		c.logger.Printf("Feed reconnected to %s", c.endpoint)
		return true
	}
}

// pingLoop keeps the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.Printf("Feed ping failed: %v", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}
