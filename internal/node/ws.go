package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"sks-explorer/internal/domain"
	"sks-explorer/internal/observability"
)

// FeedConfig configures the live transaction feed.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
	// Buffer is the capacity of the transactions channel.
	Buffer int
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            256,
	}
}

// Feed streams fresh transactions from the node's blockchain updates
// websocket. The node pushes one transaction JSON record per message;
// malformed messages are dropped, the stream keeps going.
type Feed struct {
	endpoint string
	config   FeedConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	txs  chan *domain.RawTransaction
	done chan struct{}
	wg   sync.WaitGroup
}

// NewFeed connects to the endpoint and starts streaming.
func NewFeed(ctx context.Context, endpoint string, config *FeedConfig, logger *log.Logger) (*Feed, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	f := &Feed{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		txs:      make(chan *domain.RawTransaction, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// Transactions returns the stream of fresh raw transactions.
func (f *Feed) Transactions() <-chan *domain.RawTransaction {
	return f.txs
}

// Close shuts the feed down and closes the transactions channel.
func (f *Feed) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	close(f.txs)
	return nil
}

// connect establishes the websocket connection.
func (f *Feed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.endpoint, err)
	}

	f.conn = conn
	return nil
}

// readLoop reads messages until shutdown, reconnecting with backoff on
// connection loss.
func (f *Feed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.logger.Printf("feed read error: %v, reconnecting", err)
			if !f.reconnect() {
				return
			}
			continue
		}

		observability.RecordFeedMessage()

		var tx domain.RawTransaction
		if err := json.Unmarshal(message, &tx); err != nil {
			f.logger.Printf("feed: dropping malformed message: %v", err)
			continue
		}

		select {
		case f.txs <- &tx:
		case <-f.done:
			return
		default:
			// Consumer is behind; drop the oldest to keep the feed live.
			select {
			case <-f.txs:
			default:
			}
			select {
			case f.txs <- &tx:
			default:
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff.
// Returns false when the feed is shutting down.
func (f *Feed) reconnect() bool {
	delay := f.config.ReconnectDelay

	for {
		select {
		case <-f.done:
			return false
		case <-time.After(delay):
		}

		observability.RecordFeedReconnect()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := f.connect(ctx)
		cancel()
		if err == nil {
			return true
		}

		f.logger.Printf("feed reconnect failed: %v", err)
		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// pingLoop keeps the connection alive.
func (f *Feed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			conn := f.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.logger.Printf("feed ping failed: %v", err)
				}
			}
			f.connMu.Unlock()
		}
	}
}
