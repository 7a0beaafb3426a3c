package chat_test

import (
	"testing"
	"time"

	model "github.com/westrik/chatwire/internal/model/chat"
	chat "github.com/westrik/chatwire/internal/service/chat"
)

func message(id, sender, text string, private bool) model.Message {
	m := model.Message{
		ID:        id,
		Sender:    sender,
		Text:      text,
		Type:      model.TypeText,
		Timestamp: time.Now().UTC(),
		IsPrivate: private,
	}
	if private {
		m.Recipient = "someone"
	}
	return m
}

func TestStoreReplaceThenAppendPreservesArrivalOrder(t *testing.T) {
	store := chat.NewStore()

	store.ReplaceAll([]model.Message{
		message("m1", "alice", "one", false),
		message("m2", "bob", "two", true),
	})
	store.Append(message("m3", "alice", "three", false))

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(all))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if all[i].ID != want {
			t.Fatalf("position %d: got %s want %s", i, all[i].ID, want)
		}
	}
}

func TestStoreReplaceAllDiscardsPriorLog(t *testing.T) {
	store := chat.NewStore()

	store.Append(message("old", "alice", "stale", false))
	store.ReplaceAll([]model.Message{message("new", "bob", "fresh", false)})

	all := store.All()
	if len(all) != 1 || all[0].ID != "new" {
		t.Fatalf("expected only the replacement history, got %v", all)
	}
}

func TestStoreViewsPartitionTheLog(t *testing.T) {
	store := chat.NewStore()

	store.ReplaceAll([]model.Message{
		message("m1", "alice", "pub", false),
		message("m2", "bob", "priv", true),
		message("m3", "carol", "pub", false),
		message("m4", "dave", "priv", true),
	})

	public := store.PublicView()
	private := store.PrivateView()

	if len(public)+len(private) != store.Len() {
		t.Fatalf("views do not cover the log: %d + %d != %d", len(public), len(private), store.Len())
	}
	for _, m := range public {
		if m.IsPrivate {
			t.Fatalf("private message %s leaked into public view", m.ID)
		}
	}
	for _, m := range private {
		if !m.IsPrivate {
			t.Fatalf("public message %s leaked into private view", m.ID)
		}
	}

	// Relative order of the backing log survives in each view.
	if public[0].ID != "m1" || public[1].ID != "m3" {
		t.Fatalf("public view out of order: %v", public)
	}
	if private[0].ID != "m2" || private[1].ID != "m4" {
		t.Fatalf("private view out of order: %v", private)
	}
}

func TestStoreKeepsDuplicateIDs(t *testing.T) {
	store := chat.NewStore()

	store.Append(message("m1", "alice", "hi", false))
	store.Append(message("m1", "alice", "hi", false))

	if store.Len() != 2 {
		t.Fatalf("expected duplicates to be kept, got %d messages", store.Len())
	}
}

func TestStoreDoesNotRederivePrivacy(t *testing.T) {
	store := chat.NewStore()

	// A contradictory flag must be stored as-is, never recomputed from
	// the recipient field.
	odd := model.Message{ID: "m1", Sender: "alice", Recipient: "bob", Text: "x", Type: model.TypeText, IsPrivate: false}
	store.Append(odd)

	public := store.PublicView()
	if len(public) != 1 || public[0].ID != "m1" {
		t.Fatalf("expected message filed under its stored flag, got %v", public)
	}
}
