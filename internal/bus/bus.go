package bus

import (
	"strings"
	"sync"
	"time"
)

// Event is a domain event published in-process. Topic is dot-namespaced
// ("convo.thread_updated", "session.expired"); Data is topic-specific.
type Event struct {
	Topic string
	At    time.Time
	Data  any
}

// Topics published by the client core. Subscribers may also use a namespace
// prefix ("convo.") to receive everything under it.
const (
	TopicPartnersUpdated  = "convo.partners_updated"
	TopicThreadUpdated    = "convo.thread_updated"
	TopicSelectionChanged = "convo.selection_changed"
	TopicMessageSent      = "message.sent"
	TopicMessageFailed    = "message.send_failed"
	TopicUnreadChanged    = "badge.unread_changed"
	TopicSessionChanged   = "session.state_changed"
	TopicSessionExpired   = "session.expired"
	TopicFlash            = "ui.flash"
)

// Bus is an in-process publish/subscribe fanout with namespace filtering.
// Publish never blocks: a subscriber with a full buffer misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Topic.
// The timestamp is stamped here if the caller left it zero.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if strings.HasPrefix(evt.Topic, s.prefix) {
			select {
			case s.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers interest in every topic starting with prefix and
// returns the delivery channel plus an idempotent unsubscribe func.
func (b *Bus) Subscribe(prefix string, buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}
