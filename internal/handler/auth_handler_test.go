package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type authServiceMock struct {
	registered []dto.RegisterRequest
	loginResp  *dto.AuthResponse
	loginErr   error
}

func (m *authServiceMock) Register(ctx context.Context, req dto.RegisterRequest) error {
	m.registered = append(m.registered, req)
	return nil
}

func (m *authServiceMock) VerifyCode(ctx context.Context, req dto.VerifyCodeRequest) (*dto.AuthResponse, error) {
	if req.OTP != "123456" {
		return nil, appErrors.ErrInvalidCode
	}
	return &dto.AuthResponse{Token: "signed", User: &models.UserInfo{ID: 1, Email: req.Email}}, nil
}

func (m *authServiceMock) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	return nil
}

func (m *authServiceMock) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	return nil
}

func TestAuthHandlerRegister(t *testing.T) {
	mock := &authServiceMock{}
	h := NewAuthHandler(mock)
	c, w := newContext(http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"email": "a@example.com", "username": "ann", "password": "secret1",
	}), nil)
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, mock.registered, 1)
	assert.Equal(t, "ann", mock.registered[0].Username)
	assert.Equal(t, "verification code sent", decode(t, w).Meta["message"])
}

func TestAuthHandlerInvalidBody(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})
	c, w := newContext(http.MethodPost, "/auth/login", strings.NewReader("{"), nil)

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerVerifyOTP(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, w := newContext(http.MethodPost, "/auth/verify-otp", jsonBody(t, dto.VerifyCodeRequest{Email: "a@example.com", OTP: "000000"}), nil)
	h.VerifyOTP(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newContext(http.MethodPost, "/auth/verify-otp", jsonBody(t, dto.VerifyCodeRequest{Email: "a@example.com", OTP: "123456"}), nil)
	h.VerifyOTP(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"token":"signed"`)
}

func TestAuthHandlerLoginCodeOnly(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{loginResp: &dto.AuthResponse{}})
	c, w := newContext(http.MethodPost, "/auth/login", jsonBody(t, dto.LoginRequest{Email: "a@example.com"}), nil)

	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "login code sent", env.Meta["message"])
	assert.Empty(t, env.Data)
}

func TestAuthHandlerLoginBlocked(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{loginErr: appErrors.ErrBlockedAccount})
	c, w := newContext(http.MethodPost, "/auth/login", jsonBody(t, dto.LoginRequest{Email: "a@example.com", Password: "x"}), nil)

	h.Login(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
