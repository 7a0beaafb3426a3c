package stream

import (
	"context"
	"log"

	"github.com/westrik/chatwire/internal/model/chat"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/presence"
)

// Dispatcher consumes envelopes from the stream channel on one goroutine
// and applies their mutations to the message store and presence tracker.
// Keeping a single consumer means the stores never see concurrent writers
// from the stream path.
type Dispatcher struct {
	store    *chatService.Store
	presence *presence.Tracker

	// Notify, when set, observes every applied envelope. Used by the CLI
	// to render incoming traffic; nil otherwise.
	Notify func(chat.Envelope)
}

// NewDispatcher wires the stores an incoming envelope may mutate.
func NewDispatcher(store *chatService.Store, tracker *presence.Tracker) *Dispatcher {
	return &Dispatcher{store: store, presence: tracker}
}

// Run applies envelopes in arrival order until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan chat.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope := <-events:
			d.Apply(envelope)
		}
	}
}

// Apply performs the mutation one envelope calls for: init replaces the
// whole log, message appends one entry, users replaces the roster. An
// unknown type is logged and dropped without touching prior state.
func (d *Dispatcher) Apply(envelope chat.Envelope) {
	switch envelope.Type {
	case chat.EnvelopeInit:
		d.store.ReplaceAll(envelope.Messages)
	case chat.EnvelopeMessage:
		if envelope.Message == nil {
			log.Printf("[stream] message envelope without payload")
			return
		}
		d.store.Append(*envelope.Message)
	case chat.EnvelopeUsers:
		d.presence.ReplaceRoster(envelope.Users)
	default:
		log.Printf("[stream] unknown envelope type %q", envelope.Type)
		return
	}

	if d.Notify != nil {
		d.Notify(envelope)
	}
}
