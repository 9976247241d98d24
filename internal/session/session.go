// Package session holds the current credential and user profile.
//
// A Session is constructed explicitly and injected wherever a credential is
// needed. It never retries or talks to the network; it only holds state and
// mirrors it to the local key-value store so it survives between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"zendo/internal/service"
	"zendo/internal/storage"
)

// ErrEmptyToken is returned by SetCredential for a blank token.
var ErrEmptyToken = errors.New("empty token")

// Session is the identity provider. Safe for concurrent use.
type Session struct {
	kv storage.KV

	mu    sync.RWMutex
	token *oauth2.Token
	user  *service.User
}

// New creates an empty session persisted to kv. kv may be nil for an
// in-memory session.
func New(kv storage.KV) *Session {
	return &Session{kv: kv}
}

// Load restores a persisted credential. A missing or unreadable credential
// leaves the session logged out.
func (s *Session) Load() error {
	if s.kv == nil {
		return nil
	}

	rawToken, ok, err := s.kv.Get(storage.KeyToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if !ok || rawToken == "" {
		return nil
	}
	token := decodeToken(rawToken)

	var user *service.User
	rawUser, ok, err := s.kv.Get(storage.KeyUser)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if ok && rawUser != "" {
		var u service.User
		if err := json.Unmarshal([]byte(rawUser), &u); err == nil {
			user = &u
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// AuthHeader returns the Authorization header value for the held token, or
// "" when logged out.
func (s *Session) AuthHeader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil || s.token.AccessToken == "" {
		return ""
	}
	return s.token.Type() + " " + s.token.AccessToken
}

// Token returns a copy of the held token, or nil.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	t := *s.token
	return &t
}

// User returns the held user profile.
func (s *Session) User() (service.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return service.User{}, false
	}
	return *s.user, true
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	return s.AuthHeader() != ""
}

// SetCredential stores a bearer token and the user it belongs to.
func (s *Session) SetCredential(token string, user service.User) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.SetToken(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}, user)
}

// SetToken stores a full OAuth2 token (including refresh data) and user.
func (s *Session) SetToken(token *oauth2.Token, user service.User) error {
	if token == nil || token.AccessToken == "" {
		return ErrEmptyToken
	}
	t := *token
	u := user

	s.mu.Lock()
	s.token = &t
	s.user = &u
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	if err := s.kv.Set(storage.KeyToken, encodeToken(&t)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	userJSON, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.kv.Set(storage.KeyUser, string(userJSON)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ClearCredential removes token and user. Idempotent.
func (s *Session) ClearCredential() error {
	s.mu.Lock()
	s.token = nil
	s.user = nil
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	return errors.Join(s.kv.Delete(storage.KeyToken), s.kv.Delete(storage.KeyUser))
}

// encodeToken stores a plain bearer token as the bare string and anything
// carrying refresh data as JSON.
func encodeToken(t *oauth2.Token) string {
	if t.RefreshToken == "" && t.Expiry.IsZero() && (t.TokenType == "" || t.TokenType == "Bearer") {
		return t.AccessToken
	}
	data, err := json.Marshal(t)
	if err != nil {
		return t.AccessToken
	}
	return string(data)
}

func decodeToken(raw string) *oauth2.Token {
	if len(raw) > 0 && raw[0] == '{' {
		var t oauth2.Token
		if err := json.Unmarshal([]byte(raw), &t); err == nil && t.AccessToken != "" {
			return &t
		}
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
}
