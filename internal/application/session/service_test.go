package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voxlink/server/internal/domain"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func TestAuthenticate_Valid(t *testing.T) {
	sessions := new(mockSessionStore)
	accounts := new(mockAccountStore)
	svc := NewService(sessions, accounts)

	sessions.On("Get", mock.Anything, "tok-1").Return(&domain.Session{
		Token:     "tok-1",
		AccountID: "acc-1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	accounts.On("Get", mock.Anything, "acc-1").Return(&domain.Account{
		AccountID: "acc-1",
		Email:     "user@example.com",
	}, nil)

	account, err := svc.Authenticate(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.AccountID)
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockAccountStore))

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockAccountStore))

	sessions.On("Get", mock.Anything, "tok-gone").Return(nil, domain.ErrNotFound)

	_, err := svc.Authenticate(context.Background(), "tok-gone")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_ExpiredDeletesRow(t *testing.T) {
	sessions := new(mockSessionStore)
	accounts := new(mockAccountStore)
	svc := NewService(sessions, accounts)

	sessions.On("Get", mock.Anything, "tok-old").Return(&domain.Session{
		Token:     "tok-old",
		AccountID: "acc-1",
		ExpiresAt: time.Now().Add(-time.Second).Unix(),
	}, nil)
	sessions.On("Delete", mock.Anything, "tok-old").Return(nil)

	_, err := svc.Authenticate(context.Background(), "tok-old")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The expired row is removed on first use.
	sessions.AssertCalled(t, "Delete", mock.Anything, "tok-old")
	accounts.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAuthenticate_ExpiryBoundary(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockAccountStore))

	// ExpiresAt exactly now counts as expired.
	sessions.On("Get", mock.Anything, "tok-edge").Return(&domain.Session{
		Token:     "tok-edge",
		AccountID: "acc-1",
		ExpiresAt: time.Now().Unix(),
	}, nil)
	sessions.On("Delete", mock.Anything, "tok-edge").Return(nil)

	_, err := svc.Authenticate(context.Background(), "tok-edge")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_AccountMissing(t *testing.T) {
	sessions := new(mockSessionStore)
	accounts := new(mockAccountStore)
	svc := NewService(sessions, accounts)

	sessions.On("Get", mock.Anything, "tok-1").Return(&domain.Session{
		Token:     "tok-1",
		AccountID: "acc-gone",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	accounts.On("Get", mock.Anything, "acc-gone").Return(nil, domain.ErrNotFound)

	_, err := svc.Authenticate(context.Background(), "tok-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogout_Idempotent(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockAccountStore))

	sessions.On("Delete", mock.Anything, "tok-1").Return(nil).Once()
	sessions.On("Delete", mock.Anything, "tok-1").Return(domain.ErrNotFound)

	assert.NoError(t, svc.Logout(context.Background(), "tok-1"))
	assert.NoError(t, svc.Logout(context.Background(), "tok-1"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
