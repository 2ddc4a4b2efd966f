package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

const defaultKeyPlan = "free"

type apiKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	ListByUser(ctx context.Context, userID int64) ([]models.APIKey, error)
	ListWithOwner(ctx context.Context) ([]models.APIKeyWithOwner, error)
	Deactivate(ctx context.Context, id int64) error
}

// APIKeyService issues and revokes upload API keys.
type APIKeyService struct {
	repo     apiKeyRepository
	logger   *zap.Logger
	validity time.Duration
	now      func() time.Time
}

// NewAPIKeyService constructs an APIKeyService. Keys stay valid for validity, 30 days by default.
func NewAPIKeyService(repo apiKeyRepository, validity time.Duration, logger *zap.Logger) *APIKeyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	return &APIKeyService{repo: repo, logger: logger, validity: validity, now: time.Now}
}

// Generate creates a 56 character key for the caller.
func (s *APIKeyService) Generate(ctx context.Context, principal models.Principal, req dto.GenerateKeyRequest) (*models.APIKey, error) {
	userID, err := requireUser(principal)
	if err != nil {
		return nil, err
	}
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		plan = defaultKeyPlan
	}
	return s.issue(ctx, userID, plan, 28)
}

// issue stores a fresh active key of byteLen random bytes, hex encoded.
func (s *APIKeyService) issue(ctx context.Context, userID int64, plan string, byteLen int) (*models.APIKey, error) {
	value, err := randomHex(byteLen)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate key")
	}
	now := s.now().UTC()
	key := &models.APIKey{
		UserID:    userID,
		Key:       value,
		Plan:      plan,
		ValidFrom: now,
		ValidTo:   now.Add(s.validity),
		Active:    true,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save key")
	}
	s.logger.Info("api key issued", zap.Int64("user_id", userID), zap.String("plan", plan))
	return key, nil
}

// ListMine returns the caller's keys.
func (s *APIKeyService) ListMine(ctx context.Context, principal models.Principal) ([]models.APIKey, error) {
	userID, ok := principal.UserID()
	if !ok {
		return []models.APIKey{}, nil
	}
	keys, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list keys")
	}
	return keys, nil
}

// ListAll returns every key with its owner.
func (s *APIKeyService) ListAll(ctx context.Context) ([]models.APIKeyWithOwner, error) {
	keys, err := s.repo.ListWithOwner(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list keys")
	}
	return keys, nil
}

// Revoke deactivates a key. Keys are never deleted.
func (s *APIKeyService) Revoke(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid key id")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "key not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke key")
	}
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
