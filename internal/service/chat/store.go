package chat

import (
	"sync"

	"github.com/westrik/chatwire/internal/model/chat"
)

// Store holds the ordered conversation log. Mutations come from the stream
// dispatcher; reads come from whoever presents the log. There is a single
// backing slice and the public/private views are computed on demand from it.
//
// The store performs no deduplication: if the stream delivers the same
// message id twice it is kept twice. The server owns ordering and fan-out;
// the store only records what arrived, in arrival order.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewStore returns an empty message store.
func NewStore() *Store {
	return &Store{messages: make([]chat.Message, 0, 64)}
}

// ReplaceAll discards the current log and installs the given history.
// Driven by the stream's init envelope.
func (s *Store) ReplaceAll(messages []chat.Message) {
	copied := append([]chat.Message(nil), messages...)

	s.mu.Lock()
	s.messages = copied
	s.mu.Unlock()
}

// Append adds one message to the end of the log.
func (s *Store) Append(message chat.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
}

// All returns the full log in arrival order.
func (s *Store) All() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Message(nil), s.messages...)
}

// PublicView returns the subsequence of the log without a recipient,
// preserving arrival order.
func (s *Store) PublicView() []chat.Message {
	return s.filtered(false)
}

// PrivateView returns the subsequence of the log with a recipient,
// preserving arrival order. The server already scoped delivery to the
// right parties; no further filtering happens here.
func (s *Store) PrivateView() []chat.Message {
	return s.filtered(true)
}

// Len reports the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Store) filtered(private bool) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := make([]chat.Message, 0, len(s.messages))
	for _, message := range s.messages {
		if message.IsPrivate == private {
			view = append(view, message)
		}
	}
	return view
}
