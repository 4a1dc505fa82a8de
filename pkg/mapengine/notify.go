package mapengine

import (
	"sort"
	"time"
)

// DefaultPulseDuration is how long a notification pulse lasts.
const DefaultPulseDuration = 5 * time.Second

// NotificationTracker animates fixed-length pulses on points. Each point has
// at most one pulse; notifying it again restarts the animation.
type NotificationTracker struct {
	duration time.Duration
	started  map[int64]time.Time
}

func NewNotificationTracker(duration time.Duration) *NotificationTracker {
	if duration <= 0 {
		duration = DefaultPulseDuration
	}
	return &NotificationTracker{duration: duration, started: make(map[int64]time.Time)}
}

func (n *NotificationTracker) Duration() time.Duration { return n.duration }

// Notify starts or restarts the pulse on id.
func (n *NotificationTracker) Notify(id int64, at time.Time) {
	n.started[id] = at
}

// Tick returns the alpha of every live pulse at now, in [0, 1], and drops the
// ones that have fully decayed.
func (n *NotificationTracker) Tick(now time.Time) map[int64]float64 {
	out := make(map[int64]float64, len(n.started))
	for id, start := range n.started {
		alpha := clampf(1-float64(now.Sub(start))/float64(n.duration), 0, 1)
		if alpha <= 0 {
			delete(n.started, id)
			continue
		}
		out[id] = alpha
	}
	return out
}

// Animating reports whether any pulse is still live, meaning the host must
// keep redrawing without input.
func (n *NotificationTracker) Animating() bool { return len(n.started) > 0 }

// Active lists the ids with a pulse, sorted.
func (n *NotificationTracker) Active() []int64 {
	ids := make([]int64, 0, len(n.started))
	for id := range n.started {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
