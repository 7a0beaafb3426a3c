package accounts

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/westrik/chatwire/internal/model/chat"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
)

// Roles assigned to accounts.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Service is the development server's in-memory account and session
// registry. Accounts and issued tokens live for the process lifetime.
type Service struct {
	mu        sync.RWMutex
	users     map[string]chat.UserAccount // by id
	byName    map[string]string           // username -> id
	passwords map[string]string           // id -> password
	sessions  map[string]string           // token -> user id
}

// NewService returns an empty registry.
func NewService() *Service {
	return &Service{
		users:     make(map[string]chat.UserAccount),
		byName:    make(map[string]string),
		passwords: make(map[string]string),
		sessions:  make(map[string]string),
	}
}

// Create registers a new account.
func (s *Service) Create(username, password, role string) (chat.UserAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return chat.UserAccount{}, ErrInvalidCredentials
	}
	if role == "" {
		role = RoleMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[username]; taken {
		return chat.UserAccount{}, ErrUsernameTaken
	}

	account := chat.UserAccount{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	s.users[account.ID] = account
	s.byName[username] = account.ID
	s.passwords[account.ID] = password
	return account, nil
}

// Authenticate checks credentials and issues a fresh session token.
func (s *Service) Authenticate(username, password string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[strings.TrimSpace(username)]
	if !ok || s.passwords[id] != password {
		return chat.Session{}, ErrInvalidCredentials
	}

	account := s.users[id]
	if !account.IsActive {
		return chat.Session{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.sessions[token] = id

	return chat.Session{
		Token: token,
		User:  chat.SessionUser{ID: account.ID, Username: account.Username, Role: account.Role},
	}, nil
}

// Resolve maps a token back to its user, if the token is still honoured.
func (s *Service) Resolve(token string) (chat.SessionUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessions[token]
	if !ok {
		return chat.SessionUser{}, false
	}
	account := s.users[id]
	return chat.SessionUser{ID: account.ID, Username: account.Username, Role: account.Role}, true
}

// Revoke invalidates a token. Revoking an unknown token is a no-op.
func (s *Service) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Get returns an account by id.
func (s *Service) Get(id string) (chat.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.users[id]
	if !ok {
		return chat.UserAccount{}, ErrUserNotFound
	}
	return account, nil
}

// List returns every account, ordered by creation time.
func (s *Service) List() []chat.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]chat.UserAccount, 0, len(s.users))
	for _, account := range s.users {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}
