package hub

import (
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/westrik/chatwire/internal/model/chat"
)

// subscriberBuffer bounds each subscriber's envelope queue. A subscriber
// that falls this far behind loses events rather than stalling the hub.
const subscriberBuffer = 32

type subscriber struct {
	user chat.SessionUser
	ch   chan chat.Envelope
}

// Hub fans envelopes out to the development server's stream subscribers.
// Public messages go to everyone; private messages only to the streams of
// the sender and the recipient. The roster envelope is rebuilt from the
// live subscriber set on every join and leave.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// Subscribe registers a stream for the given user and returns its id and
// envelope channel. The caller must Unsubscribe when the stream ends.
func (h *Hub) Subscribe(user chat.SessionUser) (string, <-chan chat.Envelope) {
	sub := &subscriber{user: user, ch: make(chan chat.Envelope, subscriberBuffer)}
	id := uuid.NewString()

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	return id, sub.ch
}

// Unsubscribe removes a stream. Its channel is not closed; the hub simply
// stops delivering to it.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// BroadcastMessage delivers a message envelope to every stream allowed to
// see it.
func (h *Hub) BroadcastMessage(message chat.Message) {
	envelope := chat.Envelope{Type: chat.EnvelopeMessage, Message: &message}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		if message.IsPrivate &&
			sub.user.Username != message.Sender &&
			sub.user.Username != message.Recipient {
			continue
		}
		h.deliver(id, sub, envelope)
	}
}

// BroadcastRoster sends the current online roster to every stream.
func (h *Hub) BroadcastRoster() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	envelope := chat.Envelope{Type: chat.EnvelopeUsers, Users: h.rosterLocked()}
	for id, sub := range h.subs {
		h.deliver(id, sub, envelope)
	}
}

// Roster returns the distinct users currently subscribed.
func (h *Hub) Roster() []chat.UserSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rosterLocked()
}

func (h *Hub) rosterLocked() []chat.UserSummary {
	seen := make(map[string]bool, len(h.subs))
	roster := make([]chat.UserSummary, 0, len(h.subs))
	for _, sub := range h.subs {
		if seen[sub.user.ID] {
			continue
		}
		seen[sub.user.ID] = true
		roster = append(roster, sub.user.Summary())
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Username < roster[j].Username })
	return roster
}

func (h *Hub) deliver(id string, sub *subscriber, envelope chat.Envelope) {
	select {
	case sub.ch <- envelope:
	default:
		log.Printf("[hub] subscriber %s lagging, dropping %s envelope", id, envelope.Type)
	}
}
