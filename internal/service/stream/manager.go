package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/westrik/chatwire/internal/model/chat"
	"github.com/westrik/chatwire/pkg/utils"
)

// State describes the connection lifecycle of the event stream.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// Data-URI image payloads run well past the default scanner buffer, so the
// line limit has to clear an encoded 5 MiB attachment plus JSON framing.
const maxEventSize = 8 << 20

// Manager owns at most one live stream subscription. It converts raw SSE
// frames into typed envelopes and feeds them to a bounded channel consumed
// by a single Dispatcher goroutine. It never reconnects on its own: after
// a failure the state stays at StateError until the caller opens again.
type Manager struct {
	baseURL string
	client  *http.Client
	events  chan chat.Envelope

	mu      sync.Mutex
	state   State
	lastErr error
	onState func(State, error)
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a manager for the given backend. buffer bounds the
// envelope channel; delivery blocks the read loop when the consumer lags.
//
// The HTTP client deliberately has no timeout: the subscription is a
// persistent response and its lifetime is governed by the caller's context.
func NewManager(baseURL string, buffer int) *Manager {
	if buffer < 1 {
		buffer = 64
	}
	return &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		events:  make(chan chat.Envelope, buffer),
		state:   StateConnecting,
	}
}

// SetStateHandler registers a callback invoked on every state transition.
// Register before Open; the callback runs on the manager's goroutines.
func (m *Manager) SetStateHandler(fn func(State, error)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// State returns the current connection state and, in StateError, its cause.
func (m *Manager) State() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.lastErr
}

// Connected reports whether the stream is currently live.
func (m *Manager) Connected() bool {
	state, _ := m.State()
	return state == StateConnected
}

// Events exposes the envelope channel. The channel is never closed; stop
// the consumer through its own context when tearing the client down.
func (m *Manager) Events() <-chan chat.Envelope {
	return m.events
}

// Open subscribes to the event stream with the session's token. Any prior
// subscription is closed first, so there is at most one live transport per
// manager. On transport failure, including a rejected token, the state
// moves to StateError with the cause attached and the error is returned.
func (m *Manager) Open(ctx context.Context, session chat.Session) error {
	m.closeCurrent()
	m.setState(StateConnecting, nil)

	endpoint := fmt.Sprintf("%s/api/chat/stream?token=%s", m.baseURL, url.QueryEscape(session.Token))

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		err = fmt.Errorf("build stream request: %w", err)
		m.setState(StateError, err)
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := m.client.Do(req)
	if err != nil {
		cancel()
		err = fmt.Errorf("open stream: %w", err)
		m.setState(StateError, err)
		return err
	}

	if resp.StatusCode != http.StatusOK {
		err := utils.ErrorFromResponse(resp)
		resp.Body.Close()
		cancel()
		m.setState(StateError, err)
		return err
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.setState(StateConnected, nil)
	go m.readLoop(streamCtx, resp.Body, done)
	return nil
}

// Close tears down the current subscription, if any, and moves the state
// to StateDisconnected. It waits for the read loop to exit, so no envelope
// is delivered after Close returns. Safe to call repeatedly and on a
// manager that never opened.
func (m *Manager) Close() {
	m.closeCurrent()
	m.setState(StateDisconnected, nil)
}

func (m *Manager) closeCurrent() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) readLoop(ctx context.Context, body io.ReadCloser, done chan struct{}) {
	defer close(done)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Blank line terminates one SSE event.
			if data.Len() > 0 {
				m.dispatch(ctx, data.Bytes())
				data.Reset()
			}
			continue
		}

		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
		// Comment lines and other SSE fields (event:, id:, retry:) are
		// not part of this protocol and are skipped.
	}

	if ctx.Err() != nil {
		// Deliberate close; Close() owns the state transition.
		return
	}

	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	m.setState(StateError, fmt.Errorf("stream lost: %w", err))
}

func (m *Manager) dispatch(ctx context.Context, raw []byte) {
	var envelope chat.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("[stream] dropping malformed envelope: %v", err)
		return
	}
	if envelope.Type == "" {
		log.Printf("[stream] dropping envelope without type")
		return
	}

	select {
	case m.events <- envelope:
	case <-ctx.Done():
	}
}

func (m *Manager) setState(state State, err error) {
	m.mu.Lock()
	m.state = state
	m.lastErr = err
	handler := m.onState
	m.mu.Unlock()

	if handler != nil {
		handler(state, err)
	}
}
