package oddsfeed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/telemetry"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// Client connects to the live odds feed and republishes received
// events onto the local in-process bus.
type Client struct {
	addr string
	bus  *events.Bus
}

func NewClient(addr string, bus *events.Bus) *Client {
	return &Client{addr: addr, bus: bus}
}

// ConnectWithRetry connects to the feed and reconnects on failure with
// exponential backoff. Blocks until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		connStart := time.Now()
		err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}

		// A connection that held for a while earns a fresh backoff.
		if time.Since(connStart) > time.Minute {
			attempt = 0
		}

		attempt++
		telemetry.Metrics.FeedReconnects.Inc()
		backoff := time.Duration(float64(minBackoff) * math.Pow(2, float64(min(attempt-1, 5))))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		if err != nil {
			telemetry.Warnf("oddsfeed: connection lost (attempt %d): %v, retrying in %s", attempt, err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	url := fmt.Sprintf("ws://%s/ws", c.addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	telemetry.Infof("oddsfeed: connected to %s", c.addr)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		evt, err := UnmarshalEvent(msg)
		if err != nil {
			telemetry.Metrics.FeedParseErrors.Inc()
			telemetry.Warnf("oddsfeed: %v", err)
			continue
		}

		if !evt.Timestamp.IsZero() {
			telemetry.Metrics.FeedLatency.Record(time.Since(evt.Timestamp))
		}
		c.bus.Publish(evt)
	}
}
