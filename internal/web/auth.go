package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/caseflow-ai/caseflow/internal/platform/cache"
)

const sessionCookie = "caseflow_session"

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("session not found")

// Session is a logged-in staff session.
type Session struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists staff sessions by opaque token.
type SessionStore interface {
	Create(ctx context.Context, s Session, ttl time.Duration) (string, error)
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	session   Session
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Create(ctx context.Context, s Session, ttl time.Duration) (string, error) {
	token := newToken()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{session: s, expiresAt: m.now().Add(ttl)}
	return token, nil
}

func (m *MemorySessionStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.sessions, token)
		return nil, ErrSessionNotFound
	}
	s := entry.session
	return &s, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// RedisSessionStore persists sessions in Redis so they survive restarts.
type RedisSessionStore struct {
	cache *cache.Cache
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(c *cache.Cache) *RedisSessionStore {
	return &RedisSessionStore{cache: c}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (r *RedisSessionStore) Create(ctx context.Context, s Session, ttl time.Duration) (string, error) {
	token := newToken()
	if err := r.cache.SetJSON(ctx, sessionKey(token), s, ttl); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.cache.GetJSON(ctx, sessionKey(token), &s)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return r.cache.Delete(ctx, sessionKey(token))
}

func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HashPassword produces the bcrypt hash stored for the staff account.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if len(s.adminHash) == 0 {
		writeError(w, http.StatusForbidden, "staff login disabled")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username != "admin" ||
		bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
		slog.Warn("failed login attempt", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.sessions.Create(r.Context(), Session{
		Username:  req.Username,
		CreatedAt: time.Now(),
	}, s.sessionTTL)
	if err != nil {
		slog.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.sessions.Delete(r.Context(), c.Value); err != nil {
			slog.Warn("deleting session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSession gates staff routes behind a valid session cookie.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if _, err := s.sessions.Get(r.Context(), c.Value); err != nil {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next(w, r)
	})
}
