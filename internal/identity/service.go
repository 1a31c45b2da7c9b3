package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/repository"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

const uniqueViolation = "23505"

// Session is the explicit authentication context handed into every
// view and command: created on successful sign-in, torn down on
// sign-out, never implicitly shared across scopes.
type Session struct {
	UserID string
	Role   domain.Role
	Name   string
	Email  string
}

// Scope derives the view scope the session is entitled to.
func (s Session) Scope() domain.Scope {
	if s.Role == domain.RoleStaff {
		return domain.StaffScope(s.UserID)
	}
	return domain.CustomerScope(s.UserID)
}

// SessionEventType marks a session transition.
type SessionEventType string

const (
	SessionStarted SessionEventType = "started"
	SessionEnded   SessionEventType = "ended"
)

// SessionEvent is delivered to session-change listeners.
type SessionEvent struct {
	Type    SessionEventType
	Session Session
}

// SessionListener observes session transitions, e.g. to tear down
// active view scopes on sign-out.
type SessionListener func(SessionEvent)

// Service is the identity provider facade: sign-up, sign-in,
// sign-out, current-session lookup and a session change stream. The
// complaint core reads only the session's user id and role.
type Service struct {
	users      repository.UserRepository
	tokens     *TokenManager
	bcryptCost int

	mu        sync.Mutex
	listeners []SessionListener
}

// NewService constructs the identity service.
func NewService(users repository.UserRepository, tokens *TokenManager, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// TokenManager exposes the underlying token manager for middleware.
func (s *Service) TokenManager() *TokenManager {
	return s.tokens
}

// OnSessionChange registers a listener for session transitions.
func (s *Service) OnSessionChange(listener SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// SignUp registers a customer account and starts a session.
func (s *Service) SignUp(ctx context.Context, name, email, phone, password string) (Session, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return Session{}, "", time.Time{}, apperrors.NewValidationError("name, email and password required", nil)
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Role:         domain.RoleCustomer,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Session{}, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return Session{}, "", time.Time{}, err
	}

	return s.startSession(user)
}

// SignIn authenticates by email and password and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return Session{}, "", time.Time{}, err
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return Session{}, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.startSession(user)
}

// SignOut ends the session and notifies listeners so its view scopes
// are released.
func (s *Service) SignOut(session Session) {
	s.notify(SessionEvent{Type: SessionEnded, Session: session})
}

// SessionFromToken resolves the current session for a bearer token,
// re-reading the user so a role change invalidates stale claims.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return Session{}, apperrors.NewUnauthorized("invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, apperrors.NewUnauthorized("user not found")
		}
		return Session{}, err
	}
	return sessionOf(user), nil
}

func (s *Service) startSession(user *domain.User) (Session, string, time.Time, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return Session{}, "", time.Time{}, err
	}
	session := sessionOf(user)
	s.notify(SessionEvent{Type: SessionStarted, Session: session})
	return session, token, expiresAt, nil
}

func (s *Service) notify(event SessionEvent) {
	s.mu.Lock()
	listeners := append([]SessionListener{}, s.listeners...)
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(event)
	}
}

func sessionOf(user *domain.User) Session {
	return Session{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		Email:  user.Email,
	}
}
