package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type gateUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AccessGate turns bearer tokens into principals.
type AccessGate struct {
	users  gateUserRepository
	tokens *tokenSigner
	logger *zap.Logger
}

// NewAccessGate constructs an AccessGate.
func NewAccessGate(users gateUserRepository, cfg TokenConfig, logger *zap.Logger) *AccessGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessGate{users: users, tokens: newTokenSigner(cfg), logger: logger}
}

// Resolve validates token and loads the identity it names. Registered users are
// re-read on every request so blocking takes effect immediately.
func (g *AccessGate) Resolve(ctx context.Context, token string) (models.Principal, error) {
	claims, err := g.tokens.parse(token)
	if err != nil {
		return nil, err
	}

	switch {
	case claims.ID != 0:
		return g.registered(ctx, func() (*models.User, error) { return g.users.FindByID(ctx, claims.ID) })
	case claims.Role == models.RoleAdmin:
		return models.EnvironmentAdmin{Email: claims.Email}, nil
	case claims.Email != "":
		return g.registered(ctx, func() (*models.User, error) { return g.users.FindByEmail(ctx, claims.Email) })
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid token payload")
	}
}

func (g *AccessGate) registered(ctx context.Context, load func() (*models.User, error)) (models.Principal, error) {
	user, err := load()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.IsBlocked {
		g.logger.Info("blocked user rejected", zap.Int64("user_id", user.ID))
		return nil, appErrors.ErrBlockedAccount
	}
	return models.RegisteredUser{ID: user.ID, Role: user.Role, Email: user.Email}, nil
}

// requireUser returns the users row id of p or a 403 for identities without one.
func requireUser(p models.Principal) (int64, error) {
	if p == nil {
		return 0, appErrors.ErrUnauthorized
	}
	id, ok := p.UserID()
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "this action requires a registered account")
	}
	return id, nil
}
