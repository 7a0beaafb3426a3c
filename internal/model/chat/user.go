package chat

import "time"

// UserSummary is a roster entry: just enough to address a recipient.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserAccount is the richer shape returned by the admin surfaces.
type UserAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary projects an account down to its roster shape.
func (a UserAccount) Summary() UserSummary {
	return UserSummary{ID: a.ID, Username: a.Username}
}
