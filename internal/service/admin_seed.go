package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type adminSeedRepository interface {
	ExistsWithRole(ctx context.Context, role models.UserRole) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// AdminSeeder bootstraps the first persisted administrator.
type AdminSeeder struct {
	users  adminSeedRepository
	logger *zap.Logger
}

// NewAdminSeeder constructs an AdminSeeder.
func NewAdminSeeder(users adminSeedRepository, logger *zap.Logger) *AdminSeeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminSeeder{users: users, logger: logger}
}

// EnsureAdmin creates a verified admin unless one already exists. It reports whether a row was created.
func (s *AdminSeeder) EnsureAdmin(ctx context.Context, email, username, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || password == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "admin email and password are required")
	}
	if username == "" {
		username = "admin"
	}

	exists, err := s.users.ExistsWithRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check administrators")
	}
	if exists {
		s.logger.Info("admin already present, nothing to seed")
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	s.logger.Info("admin seeded", zap.Int64("user_id", user.ID), zap.String("email", email))
	return true, nil
}
