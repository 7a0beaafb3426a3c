package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/westrik/chatwire/internal/config"
	"github.com/westrik/chatwire/internal/model/chat"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/compose"
	"github.com/westrik/chatwire/internal/service/presence"
	"github.com/westrik/chatwire/internal/service/session"
	"github.com/westrik/chatwire/internal/service/stream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	baseURL := flag.String("base", cfg.Client.BaseURL, "chat backend base URL")
	username := flag.String("user", cfg.Client.Username, "username for login")
	password := flag.String("pass", cfg.Client.Password, "password for login")
	token := flag.String("token", cfg.Client.Token, "existing session token (skips login)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authClient := session.NewClient(*baseURL)
	sess, err := establishSession(ctx, authClient, *username, *password, *token)
	if err != nil {
		log.Fatalf("failed to establish session: %v", err)
	}
	log.Printf("logged in as %s", sess.User.Username)

	store := chatService.NewStore()
	tracker := presence.NewTracker(sess.User.ID)
	manager := stream.NewManager(*baseURL, cfg.Client.StreamBuffer)
	composer := compose.NewComposer(*baseURL, sess, manager)

	manager.SetStateHandler(func(state stream.State, err error) {
		if err != nil {
			log.Printf("[stream] state=%s: %v", state, err)
			return
		}
		log.Printf("[stream] state=%s", state)
	})

	dispatcher := stream.NewDispatcher(store, tracker)
	dispatcher.Notify = func(envelope chat.Envelope) {
		printEnvelope(envelope, sess.User.Username)
	}
	go dispatcher.Run(ctx, manager.Events())

	if err := manager.Open(ctx, sess); err != nil {
		log.Fatalf("failed to open stream: %v", err)
	}
	defer manager.Close()

	runInput(ctx, composer, tracker, authClient, sess)
}

func establishSession(ctx context.Context, authClient *session.Client, username, password, token string) (chat.Session, error) {
	if token != "" {
		if err := authClient.Verify(ctx, token); err != nil {
			return chat.Session{}, fmt.Errorf("verify token: %w", err)
		}
		// The verify endpoint confirms the token but the identity has to
		// come from somewhere; with a bare token the user record stays
		// empty and private traffic cannot be addressed to us by name.
		return chat.Session{Token: token}, nil
	}
	if username == "" || password == "" {
		return chat.Session{}, fmt.Errorf("set CHAT_USERNAME/CHAT_PASSWORD or CHAT_TOKEN")
	}
	return authClient.Login(ctx, username, password)
}

// runInput reads stdin lines and turns them into sends or commands until
// EOF or /quit.
func runInput(ctx context.Context, composer *compose.Composer, tracker *presence.Tracker, authClient *session.Client, sess chat.Session) {
	fmt.Println("commands: /to <user-id>, /public, /img <path>, /who, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			if err := authClient.Logout(ctx, sess.Token); err != nil {
				log.Printf("logout failed: %v", err)
			}
			return
		case line == "/who":
			for _, user := range tracker.Roster() {
				fmt.Printf("  %s (%s)\n", user.Username, user.ID)
			}
			continue
		case line == "/public":
			composer.SetRecipient(compose.RecipientPublic)
			fmt.Println("sending to: everyone")
			continue
		case strings.HasPrefix(line, "/to "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/to "))
			if user, ok := tracker.Find(id); ok {
				composer.SetRecipient(user.ID)
				fmt.Printf("sending privately to: %s\n", user.Username)
			} else {
				fmt.Printf("no online user with id %q\n", id)
			}
			continue
		case strings.HasPrefix(line, "/img "):
			composer.AttachImage(strings.TrimSpace(strings.TrimPrefix(line, "/img ")))
			fmt.Println("image attached; next send includes it")
			continue
		}

		composer.SetText(line)
		if err := composer.Send(ctx); err != nil {
			log.Printf("send failed: %v", err)
		}
	}
}

func printEnvelope(envelope chat.Envelope, self string) {
	switch envelope.Type {
	case chat.EnvelopeInit:
		fmt.Printf("--- history: %d messages ---\n", len(envelope.Messages))
		for _, message := range envelope.Messages {
			printMessage(message, self)
		}
	case chat.EnvelopeMessage:
		printMessage(*envelope.Message, self)
	case chat.EnvelopeUsers:
		names := make([]string, 0, len(envelope.Users))
		for _, user := range envelope.Users {
			names = append(names, user.Username)
		}
		fmt.Printf("--- online: %s ---\n", strings.Join(names, ", "))
	}
}

func printMessage(message chat.Message, self string) {
	sender := message.Sender
	if sender == self {
		sender = "you"
	}

	tag := ""
	if message.IsPrivate {
		tag = fmt.Sprintf(" (private to %s)", message.Recipient)
	}

	body := message.Text
	if message.Type == chat.TypeImage {
		body = "[image]"
		if message.Text != "" {
			body += " " + message.Text
		}
	}

	fmt.Printf("[%s] %s%s: %s\n", message.Timestamp.Local().Format("15:04:05"), sender, tag, body)
}
