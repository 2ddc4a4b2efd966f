package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertPending(ctx context.Context, user *models.User) error
	SetOTP(ctx context.Context, id int64, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	ClearOTP(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// CodeSender delivers one-time codes to users.
type CodeSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Token         TokenConfig
	OTPTTL        time.Duration
	AdminEmail    string
	AdminPassword string
}

// AuthService provides registration, code verification, login and password reset.
type AuthService struct {
	repo      authUserRepository
	mailer    CodeSender
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	tokens    *tokenSigner
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, mailer CodeSender, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.OTPTTL <= 0 {
		config.OTPTTL = 5 * time.Minute
	}
	return &AuthService{
		repo:      repo,
		mailer:    mailer,
		validator: validate,
		logger:    logger,
		config:    config,
		tokens:    newTokenSigner(config.Token),
		now:       time.Now,
	}
}

// Register stores an unverified account and emails a verification code.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if existing != nil && existing.IsVerified {
		return appErrors.Clone(appErrors.ErrConflict, "user already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	code, expiry, err := s.newCode()
	if err != nil {
		return err
	}

	user := &models.User{
		Email:        req.Email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Role:         req.Role,
		OTP:          &code,
		OTPExpiry:    &expiry,
	}
	if err := s.repo.UpsertPending(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save user")
	}

	return s.deliver(ctx, req.Email, code)
}

// VerifyCode checks a one-time code, marks the account verified and issues a token.
func (s *AuthService) VerifyCode(ctx context.Context, req dto.VerifyCodeRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}

	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !s.codeMatches(user, req.OTP) {
		return nil, appErrors.ErrInvalidCode
	}
	if user.IsBlocked {
		return nil, appErrors.ErrBlockedAccount
	}

	if user.IsVerified {
		err = s.repo.ClearOTP(ctx, user.ID)
	} else {
		err = s.repo.MarkVerified(ctx, user.ID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	return s.issueFor(user)
}

// Login authenticates with a password, or emails a login code when the password is omitted.
// A nil token in the response means a code was sent.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if s.isEnvironmentAdmin(req.Email, req.Password) {
		token, err := s.tokens.issue(0, models.RoleAdmin, req.Email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
		}
		s.logger.Info("environment admin login", zap.String("email", req.Email))
		return &dto.AuthResponse{Token: token, User: &models.UserInfo{Email: req.Email, Username: "admin", Role: models.RoleAdmin}}, nil
	}

	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, appErrors.Clone(appErrors.ErrUnverifiedAccount, "please verify your account first")
	}
	if user.IsBlocked {
		return nil, appErrors.ErrBlockedAccount
	}

	if req.Password != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
		return s.issueFor(user)
	}

	if err := s.sendFreshCode(ctx, user); err != nil {
		return nil, err
	}
	return &dto.AuthResponse{}, nil
}

// ForgotPassword emails a reset code.
func (s *AuthService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}
	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	return s.sendFreshCode(ctx, user)
}

// ResetPassword replaces the password after checking the reset code.
func (s *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}
	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if !s.codeMatches(user, req.OTP) {
		return appErrors.ErrInvalidCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func (s *AuthService) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}

func (s *AuthService) sendFreshCode(ctx context.Context, user *models.User) error {
	code, expiry, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.repo.SetOTP(ctx, user.ID, code, expiry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store code")
	}
	return s.deliver(ctx, user.Email, code)
}

func (s *AuthService) deliver(ctx context.Context, email, code string) error {
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send code")
	}
	return nil
}

func (s *AuthService) issueFor(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.issue(user.ID, user.Role, user.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &dto.AuthResponse{
		Token: token,
		User:  &models.UserInfo{ID: user.ID, Email: user.Email, Username: user.Username, Role: user.Role},
	}, nil
}

func (s *AuthService) codeMatches(user *models.User, code string) bool {
	if user.OTP == nil || user.OTPExpiry == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(strings.TrimSpace(code))) != 1 {
		return false
	}
	return !s.now().After(*user.OTPExpiry)
}

func (s *AuthService) isEnvironmentAdmin(email, password string) bool {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" || password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(normalizeEmail(s.config.AdminEmail))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.AdminPassword)) == 1
	return emailOK && passOK
}

// newCode returns a six digit code and its expiry.
func (s *AuthService) newCode() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), s.now().Add(s.config.OTPTTL), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
