package timeline

import "github.com/gauthierbraillon/tweetmix/internal/logging"

// EventKind describes what changed.
type EventKind string

const (
	// ViewChanged: the view's item sequence changed (add, remove, move).
	ViewChanged EventKind = "view_changed"
	// ItemChanged: an item's flags changed in place.
	ItemChanged EventKind = "item_changed"
	// ActiveChanged: a different view became active.
	ActiveChanged EventKind = "active_changed"
	// NewContent: a notifiable view received new items.
	NewContent EventKind = "new_content"
)

// Event is published to subscribers after the operation that caused it
// has fully applied.
type Event struct {
	Kind   EventKind
	View   Name
	ItemID string
}

// Subscribe returns a channel that receives timeline events.
// The channel should be drained; events are dropped for slow subscribers.
func (s *Set) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel.
func (s *Set) Unsubscribe(ch <-chan Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (s *Set) publish(events ...Event) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for _, event := range events {
		for _, ch := range s.subscribers {
			select {
			case ch <- event:
			default:
				logging.Debug("Timeline event dropped (subscriber full)",
					"kind", event.Kind,
					"view", event.View)
			}
		}
	}
}

func (s *Set) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.closed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}
