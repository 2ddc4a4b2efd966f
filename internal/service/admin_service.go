package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

const overviewTTL = 30 * time.Second

type adminUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ToggleBlocked(ctx context.Context, id int64) (bool, error)
	UpdateRole(ctx context.Context, id int64, role models.UserRole) error
}

type statsRepository interface {
	Overview(ctx context.Context) (*models.Overview, error)
}

// AdminService covers user moderation and platform totals.
type AdminService struct {
	users     adminUserRepository
	stats     statsRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(users adminUserRepository, stats statsRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdminService{users: users, stats: stats, cache: cache, validator: validate, logger: logger}
}

// ListUsers returns a page of users with pagination metadata.
func (s *AdminService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ToggleBlock flips the blocked flag of a user.
func (s *AdminService) ToggleBlock(ctx context.Context, id int64) (*dto.BlockUserResponse, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	blocked, err := s.users.ToggleBlocked(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.logger.Info("user block toggled", zap.Int64("user_id", id), zap.Bool("blocked", blocked))
	return &dto.BlockUserResponse{ID: id, IsBlocked: blocked}, nil
}

// Promote makes a user a professor.
func (s *AdminService) Promote(ctx context.Context, req dto.PromoteUserRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userId is required")
	}
	if err := s.users.UpdateRole(ctx, req.UserID, models.RoleProfessor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote user")
	}
	s.logger.Info("user promoted", zap.Int64("user_id", req.UserID))
	return nil
}

// Overview returns platform totals, cached briefly, and whether the cache served them.
func (s *AdminService) Overview(ctx context.Context) (*models.Overview, bool, error) {
	var cached models.Overview
	if hit, _ := s.cache.Get(ctx, cacheKeyAdminOverview, &cached); hit {
		return &cached, true, nil
	}
	overview, err := s.stats.Overview(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overview")
	}
	_ = s.cache.Set(ctx, cacheKeyAdminOverview, overview, overviewTTL)
	return overview, false, nil
}
