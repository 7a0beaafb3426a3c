package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/westrik/chatwire/internal/model/chat"
	"github.com/westrik/chatwire/pkg/utils"
)

// MaxImageBytes is the attachment size ceiling, checked before encoding.
const MaxImageBytes = 5 << 20

// RecipientPublic addresses the public channel; the recipient field is
// omitted from the outgoing request when it is selected.
const RecipientPublic = "public"

var (
	ErrEmptyDraft    = errors.New("draft needs text or an image")
	ErrImageTooLarge = fmt.Errorf("image exceeds the %d MiB limit", MaxImageBytes>>20)
	ErrNotConnected  = errors.New("not connected to the chat stream")
	ErrBusy          = errors.New("a send is already in flight")
)

// IsValidationError reports whether the error was raised by client-side
// draft validation, before any network traffic.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyDraft) || errors.Is(err, ErrImageTooLarge)
}

// Connection reports the live stream state. Satisfied by *stream.Manager.
type Connection interface {
	Connected() bool
}

// Composer validates, packages and dispatches outbound messages. It holds
// the pending draft (text, attachment path, recipient) and enforces the
// single-flight policy: a Send while another is outstanding is rejected
// with ErrBusy, never queued. On success the pending text and image are
// cleared; on any failure they are left untouched so the user can retry.
type Composer struct {
	baseURL string
	session chat.Session
	conn    Connection
	client  *http.Client

	// permit is the single-flight guard: one token, try-acquire only.
	permit chan struct{}

	mu        sync.Mutex
	text      string
	imagePath string
	recipient string
}

// NewComposer builds a composer bound to one session and connection.
func NewComposer(baseURL string, session chat.Session, conn Connection) *Composer {
	return &Composer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		session:   session,
		conn:      conn,
		client:    &http.Client{},
		permit:    make(chan struct{}, 1),
		recipient: RecipientPublic,
	}
}

// SetText replaces the pending message text.
func (c *Composer) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Text returns the pending message text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// AttachImage stages a file as the pending attachment.
func (c *Composer) AttachImage(path string) {
	c.mu.Lock()
	c.imagePath = path
	c.mu.Unlock()
}

// ClearImage removes the pending attachment.
func (c *Composer) ClearImage() {
	c.mu.Lock()
	c.imagePath = ""
	c.mu.Unlock()
}

// ImagePath returns the pending attachment path.
func (c *Composer) ImagePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imagePath
}

// SetRecipient selects the target: RecipientPublic or a user id.
func (c *Composer) SetRecipient(recipient string) {
	c.mu.Lock()
	if recipient == "" {
		recipient = RecipientPublic
	}
	c.recipient = recipient
	c.mu.Unlock()
}

// Recipient returns the current target.
func (c *Composer) Recipient() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recipient
}

// sendRequest is the wire shape of the send endpoint.
type sendRequest struct {
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type"`
	RecipientID string `json:"recipientId,omitempty"`
}

// Send validates the pending draft and posts it. Validation failures,
// a not-connected stream and a busy composer all fail before any network
// request is issued. The server's asynchronous echo on the stream, not
// the response body, is the authoritative record of the message.
func (c *Composer) Send(ctx context.Context) error {
	select {
	case c.permit <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-c.permit }()

	c.mu.Lock()
	text := strings.TrimSpace(c.text)
	imagePath := c.imagePath
	recipient := c.recipient
	c.mu.Unlock()

	if text == "" && imagePath == "" {
		return ErrEmptyDraft
	}

	if imagePath != "" {
		info, err := os.Stat(imagePath)
		if err != nil {
			return fmt.Errorf("stat image: %w", err)
		}
		if info.Size() > MaxImageBytes {
			return ErrImageTooLarge
		}
	}

	if !c.conn.Connected() {
		return ErrNotConnected
	}

	payload := sendRequest{Text: text, Type: chat.TypeText}
	if imagePath != "" {
		image, err := encodeImage(imagePath)
		if err != nil {
			return err
		}
		payload.Image = image
		payload.Type = chat.TypeImage
	}
	if recipient != RecipientPublic {
		payload.RecipientID = recipient
	}

	if err := c.post(ctx, payload); err != nil {
		return err
	}

	// Success: the draft is spent. The recipient selection survives.
	c.mu.Lock()
	c.text = ""
	c.imagePath = ""
	c.mu.Unlock()
	return nil
}

func (c *Composer) post(ctx context.Context, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.session.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.ErrorFromResponse(resp)
	}
	return nil
}
