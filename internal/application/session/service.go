package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxlink/server/internal/domain"
)

// SessionStore is the session persistence the service requires.
type SessionStore interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// AccountStore is the account persistence the service requires.
type AccountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

// Service maps bearer session tokens to accounts. It backs both HTTP request
// authorization and the relay's admission check for app-role connections.
type Service interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	Logout(ctx context.Context, token string) error
}

type service struct {
	sessions SessionStore
	accounts AccountStore
}

func NewService(sessions SessionStore, accounts AccountStore) Service {
	return &service{sessions: sessions, accounts: accounts}
}

// Authenticate resolves a bearer token to its account. Expired sessions are
// deleted on first use — they are never resurrectable.
func (s *service) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown session: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if sess.Expired(time.Now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			slog.Warn("failed to delete expired session", "account_id", sess.AccountID, "err", err)
		}
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	account, err := s.accounts.Get(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session account missing: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return account, nil
}

// Logout deletes the matching session unconditionally. Deleting a
// non-existent session is not an error.
func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
