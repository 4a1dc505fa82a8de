// Package location follows a live feed of character locations and moves the
// corresponding markers on the map.
package location

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

const maxBackoff = 60 * time.Second

// Publisher receives marker and centering commands.
type Publisher interface {
	Publish(cmd mapengine.Command) int
}

// Update is one message on the feed.
type Update struct {
	CharacterID   int64 `json:"character_id"`
	SolarSystemID int64 `json:"solar_system_id"`
}

// Client reads location updates from a websocket. Only changes are
// published: a character reported in the same system twice moves nothing.
type Client struct {
	URL    string
	Follow bool
	Out    Publisher
	Dialer *websocket.Dialer

	mu   sync.Mutex
	last map[int64]int64
}

func NewClient(url string, follow bool, out Publisher) *Client {
	return &Client{
		URL:    url,
		Follow: follow,
		Out:    out,
		Dialer: websocket.DefaultDialer,
		last:   make(map[int64]int64),
	}
}

// Run connects and reconnects with exponential backoff until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	if c.URL == "" {
		log.Printf("[LOCATION] No feed configured")
		<-ctx.Done()
		return nil
	}
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	backoff := 1 * time.Second
	for {
		log.Printf("[LOCATION] Connecting to %s", c.URL)
		conn, _, err := dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[LOCATION] Dial error: %v. Retrying in %v...", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 1 * time.Second

		c.read(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		if !sleep(ctx, time.Second) {
			return nil
		}
	}
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[LOCATION] Read error: %v. Reconnecting...", err)
			}
			return
		}
		var u Update
		if err := json.Unmarshal(message, &u); err != nil {
			log.Printf("[LOCATION] Ignoring malformed message: %v", err)
			continue
		}
		c.Handle(u)
	}
}

// Handle publishes an update. It reports whether the character moved.
func (c *Client) Handle(u Update) bool {
	if u.CharacterID == 0 || u.SolarSystemID == 0 {
		return false
	}
	c.mu.Lock()
	if c.last == nil {
		c.last = make(map[int64]int64)
	}
	prev, seen := c.last[u.CharacterID]
	c.last[u.CharacterID] = u.SolarSystemID
	c.mu.Unlock()
	if seen && prev == u.SolarSystemID {
		return false
	}

	c.Out.Publish(mapengine.MarkerMoved{EntityID: u.CharacterID, PointID: u.SolarSystemID})
	if c.Follow {
		c.Out.Publish(mapengine.CenterOn{Target: mapengine.TargetSystem, ID: u.SolarSystemID})
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
