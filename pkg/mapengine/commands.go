package mapengine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Target selects what a CenterOn command refers to.
type Target int

const (
	TargetSystem Target = iota
	TargetRegion
)

func (t Target) String() string {
	if t == TargetRegion {
		return "region"
	}
	return "system"
}

// Command is an immutable instruction broadcast to every map pane.
type Command interface {
	command()
}

// CenterOn recenters a pane on a point (TargetSystem) or a label
// (TargetRegion).
type CenterOn struct {
	Target Target
	ID     int64
}

// Notify starts a pulse on a point.
type Notify struct {
	PointID int64
	At      time.Time
}

// MarkerMoved moves a tracked entity's marker to a point.
type MarkerMoved struct {
	EntityID int64
	PointID  int64
}

func (CenterOn) command()    {}
func (Notify) command()      {}
func (MarkerMoved) command() {}

// DefaultCommandBuffer is the per-pane channel capacity.
const DefaultCommandBuffer = 30

const paneAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewPaneID returns a random 15 character pane identifier.
func NewPaneID() string {
	return gonanoid.MustGenerate(paneAlphabet, 15)
}

// Broadcaster fans commands out to every subscribed pane. Publish never
// blocks: a pane whose buffer is full misses the command.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[string]chan Command
	buffer  int
	dropped atomic.Int64
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultCommandBuffer
	}
	return &Broadcaster{subs: make(map[string]chan Command), buffer: buffer}
}

// Subscribe registers a pane and returns its receive channel. Subscribing an
// id twice returns the existing channel.
func (b *Broadcaster) Subscribe(paneID string) <-chan Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[paneID]; ok {
		return ch
	}
	ch := make(chan Command, b.buffer)
	b.subs[paneID] = ch
	return ch
}

// Unsubscribe removes a pane and closes its channel.
func (b *Broadcaster) Unsubscribe(paneID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[paneID]; ok {
		close(ch)
		delete(b.subs, paneID)
	}
}

// Publish delivers cmd to every pane with room and returns how many got it.
func (b *Broadcaster) Publish(cmd Command) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- cmd:
			delivered++
		default:
			if b.dropped.Add(1)%100 == 1 {
				log.Printf("[MAP] Pane %s is not draining commands, dropping %T", id, cmd)
			}
		}
	}
	return delivered
}

// Dropped is the total number of commands not delivered to a full pane.
func (b *Broadcaster) Dropped() int64 { return b.dropped.Load() }

// Panes returns the number of subscribed panes.
func (b *Broadcaster) Panes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
