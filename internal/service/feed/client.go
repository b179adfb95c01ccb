package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockPredict/internal/domain/models"
)

// Client subscribes to the /ws/predictions feed of a running server.
type Client struct {
	feedURL      string
	symbol       string
	pingInterval time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a feed client for baseURL (http, https, ws or wss). An empty
// symbol subscribes to every symbol.
func New(baseURL, symbol string, pingInterval time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("feed url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("feed url: unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/ws/predictions") {
		u.Path += "/ws/predictions"
	}
	if symbol != "" {
		q := u.Query()
		q.Set("symbol", strings.ToUpper(symbol))
		u.RawQuery = q.Encode()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{feedURL: u.String(), symbol: symbol, pingInterval: pingInterval}, nil
}

// URL is the resolved websocket endpoint.
func (c *Client) URL() string { return c.feedURL }

// Connect establishes the websocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.feedURL, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Read streams events until ctx ends or the connection fails. Both channels
// are closed when reading stops.
func (c *Client) Read(ctx context.Context) (<-chan models.PredictionEvent, <-chan error) {
	events := make(chan models.PredictionEvent, 64)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		errs <- fmt.Errorf("feed not connected")
		close(events)
		close(errs)
		return events, errs
	}

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = c.Close()
				return
			case <-ticker.C:
				c.mu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				c.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					errs <- fmt.Errorf("feed read: %w", err)
				}
				return
			}
			var ev models.PredictionEvent
			if err := json.Unmarshal(b, &ev); err != nil {
				// ignore foreign frames
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
