package presence

import (
	"sync"

	"github.com/westrik/chatwire/internal/model/chat"
)

// Tracker holds the current online roster. Every users envelope replaces
// the roster wholesale; there is no merging with the previous state. The
// local user is filtered out on ingestion so the exposed roster never
// contains it, wherever the payload placed it.
type Tracker struct {
	mu     sync.RWMutex
	selfID string
	users  []chat.UserSummary
}

// NewTracker returns a tracker that excludes the given local user id.
func NewTracker(selfID string) *Tracker {
	return &Tracker{selfID: selfID}
}

// ReplaceRoster installs the incoming roster, dropping the local user.
func (t *Tracker) ReplaceRoster(users []chat.UserSummary) {
	roster := make([]chat.UserSummary, 0, len(users))
	for _, user := range users {
		if user.ID == t.selfID {
			continue
		}
		roster = append(roster, user)
	}

	t.mu.Lock()
	t.users = roster
	t.mu.Unlock()
}

// Roster returns the online users other than the local one.
func (t *Tracker) Roster() []chat.UserSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]chat.UserSummary(nil), t.users...)
}

// Find resolves a roster entry by user id.
func (t *Tracker) Find(id string) (chat.UserSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, user := range t.users {
		if user.ID == id {
			return user, true
		}
	}
	return chat.UserSummary{}, false
}
