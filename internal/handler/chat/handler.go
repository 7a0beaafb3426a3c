package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authHandler "github.com/westrik/chatwire/internal/handler/auth"
	"github.com/westrik/chatwire/internal/model/chat"
	"github.com/westrik/chatwire/internal/service/accounts"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/hub"
	"github.com/westrik/chatwire/pkg/utils"
)

// Handler serves the real-time surface: the event stream, the send
// endpoint and the read-only message snapshot.
type Handler struct {
	accounts *accounts.Service
	store    *chatService.Store
	hub      *hub.Hub
}

// New creates the chat handler.
func New(accountsSvc *accounts.Service, store *chatService.Store, h *hub.Hub) *Handler {
	return &Handler{accounts: accountsSvc, store: store, hub: h}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/stream", h.handleStream)
	r.Post("/chat/send", h.handleSend)
	r.Get("/chat/messages", h.handleMessages)
}

// handleStream turns the request into a persistent event stream. The first
// envelope is always init with the history this user may see, then the
// roster; after that the subscriber receives whatever the hub fans out
// until the client goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := h.accounts.Resolve(r.URL.Query().Get("token"))
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	init := chat.Envelope{Type: chat.EnvelopeInit, Messages: h.visibleTo(user.Username)}
	utils.SendSSEChunk(w, flusher, init)

	id, events := h.hub.Subscribe(user)
	defer func() {
		h.hub.Unsubscribe(id)
		h.hub.BroadcastRoster()
	}()
	h.hub.BroadcastRoster()

	ctx := r.Context()
	log.Printf("[sse] stream opened for user=%s", user.Username)
	defer log.Printf("[sse] stream closed for user=%s", user.Username)

	for {
		select {
		case <-ctx.Done():
			return
		case envelope := <-events:
			utils.SendSSEChunk(w, flusher, envelope)
		}
	}
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	user, ok := h.accounts.Resolve(authHandler.BearerToken(r))
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	var payload struct {
		Text        string `json:"text"`
		Image       string `json:"image"`
		Type        string `json:"type"`
		RecipientID string `json:"recipientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" && payload.Image == "" {
		utils.RespondError(w, http.StatusBadRequest, "message needs text or an image")
		return
	}

	var recipient string
	if payload.RecipientID != "" {
		account, err := h.accounts.Get(payload.RecipientID)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "unknown recipient")
			return
		}
		recipient = account.Username
	}

	messageType := chat.TypeText
	if payload.Image != "" {
		messageType = chat.TypeImage
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		Sender:    user.Username,
		Recipient: recipient,
		Text:      text,
		Image:     payload.Image,
		Type:      messageType,
		Timestamp: time.Now().UTC(),
		IsPrivate: recipient != "",
	}

	h.store.Append(message)
	h.hub.BroadcastMessage(message)

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"message": message})
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.accounts.Resolve(authHandler.BearerToken(r)); !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"messages": h.store.All()})
}

// visibleTo filters the log down to what one user may see: everything
// public plus private traffic they sent or received.
func (h *Handler) visibleTo(username string) []chat.Message {
	all := h.store.All()
	visible := make([]chat.Message, 0, len(all))
	for _, message := range all {
		if message.IsPrivate && message.Sender != username && message.Recipient != username {
			continue
		}
		visible = append(visible, message)
	}
	return visible
}
