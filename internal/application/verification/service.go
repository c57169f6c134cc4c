package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxlink/server/internal/domain"
	"github.com/voxlink/server/internal/infrastructure/notify"
	"github.com/voxlink/server/internal/pkg/id"
	pkgtoken "github.com/voxlink/server/internal/pkg/token"
	"github.com/voxlink/server/internal/pkg/validate"
)

// CodeStore is the verification-code persistence the service requires.
type CodeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	FindLatest(ctx context.Context, email, code string) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, email, codeID string) error
}

// AccountStore is the account persistence the service requires.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
}

// SessionStore is the session persistence the service requires.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// Service issues and checks time-boxed one-time codes, turning a verified
// email into an account and a bearer session.
type Service interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (string, *domain.Account, error)
}

// ServiceDeps bundles the collaborators for NewService.
type ServiceDeps struct {
	Codes      CodeStore
	Accounts   AccountStore
	Sessions   SessionStore
	Notifier   notify.Notifier
	CodeTTL    time.Duration // verification code lifetime
	SessionTTL time.Duration // minted session lifetime
}

type service struct {
	codes      CodeStore
	accounts   AccountStore
	sessions   SessionStore
	notifier   notify.Notifier
	codeTTL    time.Duration
	sessionTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codes:      deps.Codes,
		accounts:   deps.Accounts,
		sessions:   deps.Sessions,
		notifier:   deps.Notifier,
		codeTTL:    deps.CodeTTL,
		sessionTTL: deps.SessionTTL,
	}
}

func (s *service) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validate.Email(email); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	code, err := pkgtoken.NewCode()
	if err != nil {
		return err
	}

	v := &domain.VerificationCode{
		Email:     email,
		CodeID:    id.New(),
		Code:      code,
		Used:      false,
		ExpiresAt: time.Now().Add(s.codeTTL).Unix(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.codes.Put(ctx, v); err != nil {
		return err
	}

	// The code row stays valid on delivery failure — the caller may already
	// have received it out-of-band (log driver in development).
	if err := s.notifier.Send(email, "Your verification code", "Your code: "+code); err != nil {
		return fmt.Errorf("send verification code: %v: %w", err, domain.ErrDeliveryFailed)
	}
	return nil
}

func (s *service) VerifyCode(ctx context.Context, email, code string) (string, *domain.Account, error) {
	email = normalizeEmail(email)
	if err := validate.Email(email); err != nil {
		return "", nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	v, err := s.codes.FindLatest(ctx, email, code)
	if err != nil {
		if isNotFound(err) {
			return "", nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
		}
		return "", nil, err
	}
	if v.Expired(time.Now()) {
		// Expired codes are never consumed.
		return "", nil, fmt.Errorf("code issued at %s: %w", v.CreatedAt.Format(time.RFC3339), domain.ErrCodeExpired)
	}
	if err := s.codes.MarkUsed(ctx, email, v.CodeID); err != nil {
		return "", nil, err
	}

	account, err := s.upsertAccount(ctx, email)
	if err != nil {
		return "", nil, err
	}

	token, err := pkgtoken.NewSession()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		Token:     token,
		AccountID: account.AccountID,
		ExpiresAt: now.Add(s.sessionTTL).Unix(),
		CreatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return "", nil, err
	}

	slog.Info("email verified", "account_id", account.AccountID)
	return token, account, nil
}

func (s *service) upsertAccount(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	account = &domain.Account{
		AccountID: id.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.accounts.Put(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
