package pairing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxlink/server/internal/domain"
	"github.com/voxlink/server/internal/pkg/id"
	"github.com/voxlink/server/internal/pkg/validate"
)

// PairingStore is the pairing persistence the service requires.
type PairingStore interface {
	Put(ctx context.Context, p *domain.Pairing) error
	GetByToken(ctx context.Context, gatewayToken string) (*domain.Pairing, error)
	GetByPairingID(ctx context.Context, pairingID string) (*domain.Pairing, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Pairing, error)
	Delete(ctx context.Context, gatewayToken string) error
}

// AccountStore is the account persistence the service requires.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
}

// Service is the durable gateway-token registry. Register is the one mutation
// path without session-based authorization: it is invoked by a trusted gateway
// process and authorized solely by knowledge of the gateway token plus an
// email the caller controls.
type Service interface {
	Register(ctx context.Context, email, gatewayToken, name string) (*domain.Pairing, error)
	List(ctx context.Context, accountID string) ([]domain.Pairing, error)
	Delete(ctx context.Context, accountID, pairingID string) error
	GetByToken(ctx context.Context, gatewayToken string) (*domain.Pairing, error)
}

type service struct {
	pairings PairingStore
	accounts AccountStore
}

func NewService(pairings PairingStore, accounts AccountStore) Service {
	return &service{pairings: pairings, accounts: accounts}
}

// Register upserts the pairing row for gatewayToken. If the token is already
// registered the row is silently re-pointed at the new owner; the pairing id
// and creation time survive the transfer.
func (s *service) Register(ctx context.Context, email, gatewayToken, name string) (*domain.Pairing, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Email(email); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if gatewayToken == "" {
		return nil, fmt.Errorf("gateway token required: %w", domain.ErrBadRequest)
	}

	account, err := s.upsertAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	p := &domain.Pairing{
		GatewayToken: gatewayToken,
		PairingID:    id.New(),
		AccountID:    account.AccountID,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	if existing, err := s.pairings.GetByToken(ctx, gatewayToken); err == nil {
		p.PairingID = existing.PairingID
		p.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := s.pairings.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, accountID string) ([]domain.Pairing, error) {
	return s.pairings.ListByAccount(ctx, accountID)
}

// Delete removes a pairing only if it belongs to the account. A pairing owned
// by someone else answers exactly like a missing one.
func (s *service) Delete(ctx context.Context, accountID, pairingID string) error {
	p, err := s.pairings.GetByPairingID(ctx, pairingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("pairing: %w", domain.ErrNotFound)
		}
		return err
	}
	if p.AccountID != accountID {
		return fmt.Errorf("pairing: %w", domain.ErrNotFound)
	}
	return s.pairings.Delete(ctx, p.GatewayToken)
}

func (s *service) GetByToken(ctx context.Context, gatewayToken string) (*domain.Pairing, error) {
	return s.pairings.GetByToken(ctx, gatewayToken)
}

func (s *service) upsertAccount(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
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
