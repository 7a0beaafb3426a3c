package chat

// SessionUser is the identity record issued at login.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Summary projects the session identity down to its roster shape.
func (u SessionUser) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// Session is the credential pair the stream and send paths consume. It is
// issued by the auth service, passed in at construction, and never mutated
// by the components holding it.
type Session struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}
