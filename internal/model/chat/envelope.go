package chat

// Envelope type discriminators delivered over the event stream.
const (
	EnvelopeInit    = "init"
	EnvelopeMessage = "message"
	EnvelopeUsers   = "users"
)

// Envelope is one discrete JSON event from the persistent read stream.
// Exactly one of the payload fields is populated, selected by Type:
// init carries the full history, message a single new entry, users the
// full current roster.
type Envelope struct {
	Type     string        `json:"type"`
	Messages []Message     `json:"messages,omitempty"`
	Message  *Message      `json:"message,omitempty"`
	Users    []UserSummary `json:"users,omitempty"`
}
