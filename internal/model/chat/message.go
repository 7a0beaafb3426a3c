package chat

import "time"

// Message type discriminators carried on the wire.
const (
	TypeText  = "text"
	TypeImage = "image"
)

// Message is one immutable entry in the conversation log. Sender and
// Recipient are usernames; an absent Recipient means the message went to
// the public channel. Image holds a self-describing data URI when Type is
// TypeImage; Text may still carry a caption alongside it.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	IsPrivate bool      `json:"isPrivate"`
}
