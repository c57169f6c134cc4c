package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voxlink/server/internal/domain"
	"github.com/voxlink/server/internal/transport/http/middleware"
)

type mockVerificationService struct{ mock.Mock }

func (m *mockVerificationService) RequestCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockVerificationService) VerifyCode(ctx context.Context, email, code string) (string, *domain.Account, error) {
	args := m.Called(ctx, email, code)
	var account *domain.Account
	if args.Get(1) != nil {
		account = args.Get(1).(*domain.Account)
	}
	return args.String(0), account, args.Error(2)
}

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockSessionService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) MessageEnvelope {
	t.Helper()
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestRequestCode_Accepted(t *testing.T) {
	verifications := new(mockVerificationService)
	h := NewAuthHandler(verifications, new(mockSessionService))

	verifications.On("RequestCode", mock.Anything, "user@example.com").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/request-code",
		strings.NewReader(`{"email":"user@example.com"}`))
	rec := httptest.NewRecorder()
	h.RequestCode(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRequestCode_BadBody(t *testing.T) {
	h := NewAuthHandler(new(mockVerificationService), new(mockSessionService))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/request-code", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.RequestCode(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestCode_DeliveryFailure(t *testing.T) {
	verifications := new(mockVerificationService)
	h := NewAuthHandler(verifications, new(mockSessionService))

	verifications.On("RequestCode", mock.Anything, mock.Anything).Return(domain.ErrDeliveryFailed)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/request-code",
		strings.NewReader(`{"email":"user@example.com"}`))
	rec := httptest.NewRecorder()
	h.RequestCode(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "delivery_failed", decodeEnvelope(t, rec).Kind)
}

func TestVerify_Success(t *testing.T) {
	verifications := new(mockVerificationService)
	h := NewAuthHandler(verifications, new(mockSessionService))

	alice := &domain.Account{AccountID: "acc-1", Email: "user@example.com"}
	verifications.On("VerifyCode", mock.Anything, "user@example.com", "123456").
		Return("session-token", alice, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify",
		strings.NewReader(`{"email":"user@example.com","code":"123456"}`))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "session-token", env.Token)
	assert.Equal(t, "acc-1", env.Account.AccountID)
}

func TestVerify_ErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"invalid code", domain.ErrInvalidCode, http.StatusUnauthorized, "invalid_code"},
		{"expired code", domain.ErrCodeExpired, http.StatusUnauthorized, "code_expired"},
		{"bad input", domain.ErrBadRequest, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifications := new(mockVerificationService)
			h := NewAuthHandler(verifications, new(mockSessionService))
			verifications.On("VerifyCode", mock.Anything, mock.Anything, mock.Anything).
				Return("", nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify",
				strings.NewReader(`{"email":"user@example.com","code":"000000"}`))
			rec := httptest.NewRecorder()
			h.Verify(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, decodeEnvelope(t, rec).Kind)
		})
	}
}

func TestLogout_DeletesCurrentSession(t *testing.T) {
	sessions := new(mockSessionService)
	h := NewAuthHandler(new(mockVerificationService), sessions)

	alice := &domain.Account{AccountID: "acc-1", Email: "user@example.com"}
	sessions.On("Authenticate", mock.Anything, "tok-1").Return(alice, nil)
	sessions.On("Logout", mock.Anything, "tok-1").Return(nil)

	// Route through the auth middleware so the token lands in the context the
	// same way it does in production.
	handler := middleware.Auth(sessions)(http.HandlerFunc(h.Logout))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sessions.AssertCalled(t, "Logout", mock.Anything, "tok-1")
}
